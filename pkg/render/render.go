package render

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

// Format is an output document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format, default first.
var Formats = []Format{FormatPDF, FormatSVG, FormatPNG, FormatJSON, FormatXLSX}

// ParseFormat parses a case-insensitive format name. Unknown names fail with
// INVALID_FORMAT.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want pdf, svg, png, json or xlsx)", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string { return "." + string(f) }

// DefaultDPI is the raster resolution of PNG output and the pixel scale of
// SVG output.
const DefaultDPI = 96.0

// Option configures rendering.
type Option func(*config)

type config struct {
	source imageprobe.Source
	dpi    float64
	logger *log.Logger
}

// WithSource sets where image bytes are read from. Without a source, images
// are drawn as labelled placeholders.
func WithSource(src imageprobe.Source) Option { return func(c *config) { c.source = src } }

// WithDPI sets the pixels per canvas inch for PNG and SVG output.
func WithDPI(dpi float64) Option { return func(c *config) { c.dpi = dpi } }

func WithLogger(l *log.Logger) Option { return func(c *config) { c.logger = l } }

func newConfig(opts []Option) *config {
	c := &config{dpi: DefaultDPI}
	for _, opt := range opts {
		opt(c)
	}
	if c.dpi <= 0 {
		c.dpi = DefaultDPI
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// Render encodes seq in format f.
func Render(ctx context.Context, seq *layout.Sequence, f Format, opts ...Option) ([]byte, error) {
	if seq == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil sequence")
	}
	switch f {
	case FormatPDF:
		return RenderPDF(ctx, seq, opts...)
	case FormatSVG:
		return RenderSVG(ctx, seq, opts...)
	case FormatPNG:
		return RenderPNG(ctx, seq, opts...)
	case FormatJSON:
		return RenderJSON(seq)
	case FormatXLSX:
		return RenderXLSX(seq)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
}

// RenderJSON encodes seq as indented JSON.
func RenderJSON(seq *layout.Sequence) ([]byte, error) {
	data, err := layout.MarshalSequence(seq)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode sequence")
	}
	return data, nil
}

// drawOrder returns a slide's instructions with shapes first, so the debug
// overlay sits underneath the content it describes.
func drawOrder(s layout.Slide) []layout.Instruction {
	out := make([]layout.Instruction, 0, len(s.Instructions))
	for _, in := range s.Instructions {
		if in.Op == layout.OpShape {
			out = append(out, in)
		}
	}
	for _, in := range s.Instructions {
		if in.Op != layout.OpShape {
			out = append(out, in)
		}
	}
	return out
}
