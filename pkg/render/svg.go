package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

// slideGap separates stacked slides in SVG and PNG output, in pixels.
const slideGap = 16

// RenderSVG draws all slides stacked vertically in one document. Images are
// embedded as data URIs when a source is configured.
func RenderSVG(ctx context.Context, seq *layout.Sequence, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	c := seq.Canvas.WithDefaults()
	r := &svgRenderer{dpi: cfg.dpi, images: newImageSet(cfg.source)}

	sw, sh := r.px(c.Width), r.px(c.Height)
	n := max(len(seq.Slides), 1)
	total := n*sh + (n-1)*slideGap

	var buf bytes.Buffer
	r.canvas = svg.New(&buf)
	r.canvas.Start(sw, total)
	for i, slide := range seq.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.canvas.Gtransform(fmt.Sprintf("translate(0,%d)", i*(sh+slideGap)))
		r.canvas.Rect(0, 0, sw, sh, "fill:#ffffff;stroke:#cccccc;stroke-width:1")
		for _, in := range drawOrder(slide) {
			if err := r.draw(ctx, in); err != nil {
				return nil, err
			}
		}
		r.canvas.Gend()
	}
	r.canvas.End()

	cfg.logger.Debug("rendered svg", "slides", len(seq.Slides), "bytes", buf.Len())
	return buf.Bytes(), nil
}

type svgRenderer struct {
	canvas *svg.SVG
	dpi    float64
	images *imageSet
}

func (r *svgRenderer) px(v float64) int { return int(math.Round(v * r.dpi)) }

func (r *svgRenderer) rect(rc grid.Rect) (x, y, w, h int) {
	return r.px(rc.X), r.px(rc.Y), r.px(rc.W), r.px(rc.H)
}

func (r *svgRenderer) draw(ctx context.Context, in layout.Instruction) error {
	switch in.Op {
	case layout.OpShape:
		if in.Style != nil {
			r.shape(in.Rect, *in.Style)
		}
	case layout.OpText:
		r.text(in.Rect, in.Runs)
	case layout.OpImage:
		return r.image(ctx, in)
	}
	return nil
}

func (r *svgRenderer) shape(rc grid.Rect, st layout.ShapeStyle) {
	x, y, w, h := r.rect(rc)
	r.canvas.Rect(x, y, w, h, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f",
		cssColor(st.Fill), cssColor(st.Line), st.LineWidth))
	if st.Label != "" {
		r.canvas.Text(x+w/2, y+h/2, st.Label, fmt.Sprintf(
			"text-anchor:middle;dominant-baseline:middle;font-family:Helvetica,Arial,sans-serif;font-size:%.1fpt;fill:%s",
			st.LabelSize, cssColor(st.LabelColor)))
	}
}

// svgMeasure estimates Helvetica advance widths.
func svgMeasure(s string, run layout.TextRun) float64 {
	per := 0.52
	if run.Bold {
		per = 0.57
	}
	return float64(len([]rune(s))) * run.Size * per / pointsPerInch
}

func (r *svgRenderer) text(rc grid.Rect, runs []layout.TextRun) {
	y := rc.Y
	for _, line := range visibleLines(wrapRuns(runs, rc.W, svgMeasure), rc.H) {
		base := r.px(y + line.height*0.78)
		for _, w := range line.words {
			weight := "normal"
			if w.run.Bold {
				weight = "bold"
			}
			r.canvas.Text(r.px(rc.X+w.x), base, w.text, fmt.Sprintf(
				"font-family:Helvetica,Arial,sans-serif;font-size:%.1fpt;font-weight:%s;fill:%s",
				w.run.Size, weight, cssColor(w.run.Color)))
		}
		y += line.height
	}
}

func (r *svgRenderer) image(ctx context.Context, in layout.Instruction) error {
	x, y, w, h := r.rect(in.Rect)
	if !r.images.enabled() {
		r.canvas.Rect(x, y, w, h, fmt.Sprintf("fill:#%s;stroke:#%s;stroke-width:0.5", placeholderBG, placeholderFG))
		r.text(in.Rect, []layout.TextRun{{Text: in.Ref, Size: 6, Color: placeholderFG}})
		return nil
	}
	data, err := r.images.bytes(ctx, in.Ref)
	if err != nil {
		return err
	}
	uri := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
	r.canvas.Image(x, y, w, h, uri, `preserveAspectRatio="none"`)
	return nil
}
