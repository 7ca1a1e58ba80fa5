package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/slidegrid/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %v, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestBackends(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	backends := map[string]Cache{
		"file":   fc,
		"memory": NewMemoryCache(),
	}

	for name, c := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
				t.Errorf("Get(missing) hit=%v err=%v", hit, err)
			}
			if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
				t.Fatalf("overwrite error: %v", err)
			}
			data, hit, err := c.Get(ctx, "k")
			if err != nil || !hit || string(data) != "v2" {
				t.Errorf("Get(k) = %q, %v, %v; want v2", data, hit, err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Errorf("Delete error: %v", err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Errorf("second Delete error: %v", err)
			}
			if _, hit, _ := c.Get(ctx, "k"); hit {
				t.Error("entry survived Delete")
			}
		})
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry evicted", c.Len())
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	data, _, _ := c.Get(ctx, "k")
	if string(data) != "abc" {
		t.Errorf("cache aliased caller buffer: %q", data)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}

	j1, err := HashJSON(map[string]int{"a": 1})
	if err != nil || len(j1) != 64 {
		t.Errorf("HashJSON() = %q, %v", j1, err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("img", "https://cdn/a.png"); got != "http:img:https://cdn/a.png" {
		t.Errorf("HTTPKey = %s", got)
	}
	if k.ImageKey("a.png") == k.ImageKey("b.png") {
		t.Error("different refs should produce different image keys")
	}
	if !strings.HasPrefix(k.ImageKey("a.png"), "image:") {
		t.Errorf("ImageKey = %s", k.ImageKey("a.png"))
	}

	lk1 := k.LayoutKey("p", LayoutKeyOpts{Rows: 4, Cols: 4})
	lk2 := k.LayoutKey("p", LayoutKeyOpts{Rows: 4, Cols: 4, Debug: true})
	if lk1 == lk2 {
		t.Error("different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("l", ArtifactKeyOpts{Format: "pdf"})
	ak2 := k.ArtifactKey("l", ArtifactKeyOpts{Format: "svg"})
	if ak1 == ak2 {
		t.Error("different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "production:")
	if got := scoped.HTTPKey("img", "x"); got != "production:http:img:x" {
		t.Errorf("HTTPKey = %s", got)
	}
	if got := scoped.ImageKey("a.png"); !strings.HasPrefix(got, "production:image:") {
		t.Errorf("ImageKey = %s", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "pdf"}); !strings.HasPrefix(got, "production:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}
}

func TestKeyType(t *testing.T) {
	k := NewScopedKeyer(nil, "dev:")
	tests := map[string]string{
		k.ImageKey("a"):                       "image",
		k.LayoutKey("h", LayoutKeyOpts{}):     "layout",
		k.ArtifactKey("h", ArtifactKeyOpts{}): "artifact",
		NewDefaultKeyer().HTTPKey("img", "x"): "http",
		"unrelated":                           "other",
	}
	for key, want := range tests {
		if got := KeyType(key); got != want {
			t.Errorf("KeyType(%s) = %s, want %s", key, got, want)
		}
	}
}

type countingHooks struct {
	observability.Noop
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestInstrumented(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)
	hooks := &countingHooks{}
	observability.Set(observability.Hooks{Cache: hooks})

	ctx := context.Background()
	c := NewInstrumented(NewMemoryCache())
	_, _, _ = c.Get(ctx, "image:a")
	_ = c.Set(ctx, "image:a", []byte("x"), 0)
	_, _, _ = c.Get(ctx, "image:a")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hits=%d misses=%d sets=%d, want 1 each", hooks.hits, hooks.misses, hooks.sets)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message not preserved: %s", err)
	}
	if IsRetryable(ErrNetwork) {
		t.Error("unwrapped errors are not retryable")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Initial: time.Millisecond}

	tests := []struct {
		name      string
		failUntil int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first try", 0, true, 1, false},
		{"succeeds after retry", 2, true, 3, false},
		{"gives up", 10, true, 3, true},
		{"permanent error", 10, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, fast, func() error {
				calls++
				if calls <= tt.failUntil {
					if tt.retryable {
						return Retryable(ErrNetwork)
					}
					return ErrNetwork
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
