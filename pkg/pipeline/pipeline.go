// Package pipeline provides the complete slide generation pipeline.
//
// This package implements validate → prefetch → layout → render so the CLI
// and the HTTP server behave identically for the same payload and options.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Prefetch: Resolve the pixel size of every image reference, concurrently
//     and cached per reference
//  2. Layout: Place the payload onto slides with a [layout.Orchestrator]
//  3. Render: Encode the slide sequence in each requested format
//
// Each stage can be run on its own or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(c, nil, logger, imageprobe.NewRouter(uploads, client))
//	result, err := runner.Execute(ctx, payload, pipeline.Options{
//	    Formats: []string{"pdf"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf := result.Artifacts["pdf"]
//
// Run individual stages:
//
//	// Layout only
//	seq, err := runner.Layout(ctx, payload, opts)
//
//	// Render an existing sequence
//	artifacts, err := runner.Render(ctx, seq, opts)
//
// [layout.Orchestrator]: github.com/matzehuels/slidegrid/pkg/layout.Orchestrator
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/layout"
	"github.com/matzehuels/slidegrid/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFormat is the document produced when no format is requested.
	DefaultFormat = string(render.FormatPDF)

	// DefaultPrefetchLimit bounds concurrent image probes.
	DefaultPrefetchLimit = layout.DefaultPrefetchLimit

	// MaxItems bounds the number of products accepted in one payload.
	MaxItems = 1000
)

// ValidFormats is the set of supported output formats.
var ValidFormats = func() map[string]bool {
	m := make(map[string]bool, len(render.Formats))
	for _, f := range render.Formats {
		m[string(f)] = true
	}
	return m
}()

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Layout        layout.Options `json:"layout"`
	PrefetchLimit int            `json:"prefetch_limit,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	DPI     float64  `json:"dpi,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Sequence is the computed slide sequence.
	Sequence *layout.Sequence

	// PayloadHash is the content hash of the input payload.
	PayloadHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Formats lists the rendered formats in request order.
	Formats []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Items        int
	Images       int
	Slides       int
	Dropped      int
	PrefetchTime time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the sequence came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: pdf, svg, png, json, xlsx)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePayload checks a payload before any image is probed.
func ValidatePayload(p *layout.Payload) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidPayload, "payload is required")
	}
	if len(p.Items) > MaxItems {
		return errors.New(errors.ErrCodeInvalidPayload, "too many items: %d (max %d)", len(p.Items), MaxItems)
	}
	return p.Validate()
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Layout.Logger == nil {
		o.Layout.Logger = o.Logger
	}
	o.Layout = o.Layout.WithDefaults()
	if o.PrefetchLimit <= 0 {
		o.PrefetchLimit = DefaultPrefetchLimit
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return o.Layout.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.DPI <= 0 {
		o.DPI = render.DefaultDPI
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	l := o.Layout
	return cache.LayoutKeyOpts{
		Width:     l.Canvas.Width,
		Height:    l.Canvas.Height,
		GapX:      l.Canvas.GapX,
		GapY:      l.Canvas.GapY,
		Rows:      l.Canvas.Rows,
		Cols:      l.Canvas.Cols,
		CoverRows: l.CoverRows,
		CoverCols: l.CoverCols,
		SubRows:   l.SubRows,
		SubCols:   l.SubCols,
		SubGap:    l.SubGap,
		LabelBand: l.LabelBand,
		Debug:     l.Debug,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == string(render.FormatPNG) || format == string(render.FormatSVG) {
		opts.DPI = o.DPI
	}
	return opts
}
