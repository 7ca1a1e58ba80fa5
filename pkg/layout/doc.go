// Package layout turns a slide payload into a deterministic sequence of
// placement instructions.
//
// # Overview
//
// The [Orchestrator] walks the payload's items in input order and packs them
// onto fixed-size slides using the occupancy grid from package grid:
//
//  1. A new slide starts with a fresh grid. When the payload has a cover
//     image, the cover span (2×2 by default) is reserved at (0,0) and the
//     cover image and title are emitted.
//  2. Each product asks [grid.FindFreeSpot] for a 1×1 span, or 1×2 when it has
//     options. On failure a new slide begins (re-emitting the cover) and the
//     search is retried exactly once. A second failure aborts the run with
//     CANVAS_TOO_SMALL.
//  3. Options are painted into the product's second column as a SubRows ×
//     SubCols sub-grid. Options past the sub-grid capacity are dropped.
//
// The orchestrator never draws. It describes every element to a [Builder];
// the default [Recorder] collects them into a [Sequence] that the render
// sinks consume.
//
// # Image dimensions
//
// Image sizes come from a [Prober]. [Prefetch] resolves every image of a
// payload concurrently and returns a [SizeTable], which is itself a Prober,
// so that the placement pass stays single-threaded and ordered.
//
// # Usage
//
//	rec := layout.NewRecorder()
//	o, err := layout.New(rec, prober, layout.Options{})
//	if err != nil {
//	    return err
//	}
//	seq, err := o.Generate(ctx, payload)
package layout
