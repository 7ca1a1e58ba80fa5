// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation stays optional: slidegrid has no dependency on a metrics or
// tracing backend. Binaries install a [Hooks] bundle at startup and receive
// events about layout and render runs, cache traffic, image downloads and
// stored generations.
//
// # Usage
//
// Install hooks at application startup. Nil fields keep what is installed:
//
//	func main() {
//	    observability.Set(observability.Hooks{
//	        Pipeline: &myPipelineHooks{},
//	        Cache:    &myCacheHooks{},
//	    })
//	    // ... run application
//	}
//
// Libraries fetch the current hooks at the call site:
//
//	observability.Pipeline().OnLayoutStart(ctx, len(payload.Items))
//	// ... place items ...
//	observability.Pipeline().OnLayoutComplete(ctx, seq.Len(), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// PipelineHooks receives events from the generation pipeline.
type PipelineHooks interface {
	// Layout events. items is the number of products in the payload.
	OnLayoutStart(ctx context.Context, items int)
	OnLayoutComplete(ctx context.Context, slides int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache traffic. keyType is "image", "layout",
// "artifact" or "http".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the remote image source.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a network failure or timeout.
	OnError(ctx context.Context, method, host, path string, err error)
}

// StoreHooks receives events about generation records.
type StoreHooks interface {
	OnRecordSaved(ctx context.Context, id string, slides int, err error)
	OnCleanup(ctx context.Context, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// Noop implements every hook interface and discards all events. Embed it to
// implement only some methods.
type Noop struct{}

func (Noop) OnLayoutStart(context.Context, int)                                     {}
func (Noop) OnLayoutComplete(context.Context, int, time.Duration, error)            {}
func (Noop) OnRenderStart(context.Context, []string)                                {}
func (Noop) OnRenderComplete(context.Context, []string, time.Duration, error)       {}
func (Noop) OnCacheHit(context.Context, string)                                     {}
func (Noop) OnCacheMiss(context.Context, string)                                    {}
func (Noop) OnCacheSet(context.Context, string, int)                                {}
func (Noop) OnRequest(context.Context, string, string, string)                      {}
func (Noop) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (Noop) OnError(context.Context, string, string, string, error)                 {}
func (Noop) OnRecordSaved(context.Context, string, int, error)                      {}
func (Noop) OnCleanup(context.Context, time.Duration, error)                        {}

// =============================================================================
// Registry
// =============================================================================

// Hooks bundles one implementation per event category.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
	Store    StoreHooks
}

func noopHooks() *Hooks {
	return &Hooks{Pipeline: Noop{}, Cache: Noop{}, HTTP: Noop{}, Store: Noop{}}
}

var current atomic.Pointer[Hooks]

func init() { current.Store(noopHooks()) }

// Set installs h. Nil fields keep the hooks already installed.
func Set(h Hooks) {
	for {
		old := current.Load()
		next := *old
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if h.Store != nil {
			next.Store = h.Store
		}
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the no-op hooks. Tests call it in cleanup.
func Reset() { current.Store(noopHooks()) }

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func HTTP() HTTPHooks         { return current.Load().HTTP }
func Store() StoreHooks       { return current.Load().Store }
