package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, logger and image access; it
// doesn't store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Prober resolves image sizes for layout.
	Prober layout.Prober

	// Source supplies image bytes for rendering. Nil draws placeholders.
	Source imageprobe.Source
}

// NewRunner creates a runner with the given cache, keyer and image source.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The prober reads from src and shares the runner's cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, src imageprobe.Source) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Source: src,
	}
	if src != nil {
		p := imageprobe.NewProber(src, c, logger)
		p.Keyer = keyer
		r.Prober = p
	}
	return r
}

// Execute runs the complete prefetch → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, payload *layout.Payload, opts Options) (*Result, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hash, err := PayloadHash(payload)
	if err != nil {
		return nil, err
	}
	result := &Result{
		PayloadHash: hash,
		Stats: Stats{
			Items:  len(payload.Items),
			Images: len(payload.ImageRefs()),
		},
	}

	// Stage 1+2: Prefetch and layout
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(payload.Items))
	layoutStart := time.Now()
	seq, layoutHit, prefetch, err := r.layout(ctx, payload, hash, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, time.Since(layoutStart), err)
		return nil, fmt.Errorf("layout: %w", err)
	}
	hooks.OnLayoutComplete(ctx, seq.Len(), time.Since(layoutStart), nil)
	result.Sequence = seq
	result.Stats.PrefetchTime = prefetch
	result.Stats.LayoutTime = time.Since(layoutStart) - prefetch
	result.Stats.Slides = seq.Len()
	result.Stats.Dropped = seq.Dropped
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"items", result.Stats.Items,
		"slides", result.Stats.Slides,
		"dropped", result.Stats.Dropped,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	hooks.OnRenderStart(ctx, opts.Formats)
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, seq, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Formats = opts.Formats
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the slide sequence with caching and returns
// cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, payload *layout.Payload, opts Options) (*layout.Sequence, bool, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	hash, err := PayloadHash(payload)
	if err != nil {
		return nil, false, err
	}
	seq, hit, _, err := r.layout(ctx, payload, hash, opts)
	return seq, hit, err
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Layout(ctx context.Context, payload *layout.Payload, opts Options) (*layout.Sequence, error) {
	seq, _, err := r.LayoutWithCacheInfo(ctx, payload, opts)
	return seq, err
}

func (r *Runner) layout(ctx context.Context, payload *layout.Payload, hash string, opts Options) (*layout.Sequence, bool, time.Duration, error) {
	prober := r.Prober
	if prober == nil {
		prober = layout.SizeTable{}
	}

	// Sizes are resolved before the cache lookup so a replaced image yields a
	// new layout key. The prober keeps its own per-image cache.
	start := time.Now()
	sizes, err := layout.Prefetch(ctx, prober, payload.ImageRefs(), opts.PrefetchLimit)
	prefetch := time.Since(start)
	if err != nil {
		return nil, false, prefetch, err
	}
	cacheKey := r.Keyer.LayoutKey(hash+":"+SizesHash(sizes), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if seq, err := layout.UnmarshalSequence(data); err == nil {
				return seq, true, prefetch, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	seq, _, err := GenerateLayout(ctx, payload, sizes, opts)
	if err != nil {
		return nil, false, prefetch, err
	}

	if data, err := layout.MarshalSequence(seq); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
	}
	return seq, false, prefetch, nil
}

// SizesHash returns a stable digest of a size table, independent of map
// order.
func SizesHash(sizes layout.SizeTable) string {
	refs := make([]string, 0, len(sizes))
	for ref := range sizes {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	var b strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&b, "%s=%s\n", ref, sizes[ref])
	}
	return cache.Hash([]byte(b.String()))
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, seq *layout.Sequence, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Compute cache key from sequence data
	seqData, err := layout.MarshalSequence(seq)
	if err != nil {
		return nil, false, fmt.Errorf("serialize sequence for cache key: %w", err)
	}
	seqHash := cache.Hash(seqData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	allCached := !opts.Refresh
	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(seqHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
		}
	}
	if allCached && len(artifacts) == len(uniq(opts.Formats)) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, seq, r.Source, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(seqHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Render(ctx context.Context, seq *layout.Sequence, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, seq, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func uniq(formats []string) map[string]bool {
	m := make(map[string]bool, len(formats))
	for _, f := range formats {
		m[f] = true
	}
	return m
}
