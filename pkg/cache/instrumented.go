package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/slidegrid/pkg/observability"
)

// Instrumented reports every Get and Set of the wrapped cache to the
// registered [observability.CacheHooks]. The key type is the key's prefix up
// to the first ':' (after any scope prefix), e.g. "image" or "artifact".
type Instrumented struct {
	Cache
}

// NewInstrumented wraps c.
func NewInstrumented(c Cache) *Instrumented { return &Instrumented{Cache: c} }

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// KeyType extracts the entry type from a key built by [DefaultKeyer].
func KeyType(key string) string {
	for _, t := range []string{"image", "layout", "artifact", "http"} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	return "other"
}
