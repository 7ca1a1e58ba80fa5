// Package httputil downloads remote images for probing and rendering.
//
// [Client] wraps net/http with three things every remote image needs:
//
//   - Caching: bodies are stored in a [cache.Cache] under an HTTP key, so a
//     URL referenced by many products is downloaded once.
//   - Retry: network failures, 429 and 5xx responses are retried with
//     exponential backoff via [cache.Retry].
//   - Hooks: each attempt is reported to [observability.HTTP].
//
// Usage:
//
//	client := httputil.NewClient(c, cache.TTLHTTP, nil)
//	data, err := client.Fetch(ctx, "https://cdn.example.com/chair.png")
package httputil
