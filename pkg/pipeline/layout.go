package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/slidegrid/pkg/layout"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout prefetches every image size with p, then places the payload.
// It returns the sequence and the time spent prefetching.
//
// Placement itself runs single-threaded in input order, so the result only
// depends on the payload, the options and the probed sizes.
func GenerateLayout(ctx context.Context, payload *layout.Payload, p layout.Prober, opts Options) (*layout.Sequence, time.Duration, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	sizes, err := layout.Prefetch(ctx, p, payload.ImageRefs(), opts.PrefetchLimit)
	if err != nil {
		return nil, 0, err
	}
	prefetch := time.Since(start)
	opts.Logger.Debug("prefetched images", "images", len(sizes), "duration", prefetch)

	o, err := layout.New(nil, sizes, opts.Layout)
	if err != nil {
		return nil, prefetch, err
	}
	seq, err := o.Generate(ctx, payload)
	return seq, prefetch, err
}
