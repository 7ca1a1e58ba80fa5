package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/render"
)

// Render generates output artifacts in the requested formats. Images are read
// from src; a nil src draws placeholders.
func Render(ctx context.Context, seq *layout.Sequence, src imageprobe.Source, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	renderOpts := []render.Option{
		render.WithDPI(opts.DPI),
		render.WithLogger(opts.Logger),
	}
	if src != nil {
		renderOpts = append(renderOpts, render.WithSource(src))
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		data, err := render.Render(ctx, seq, render.Format(format), renderOpts...)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
