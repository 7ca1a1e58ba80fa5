package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

var separator = color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}

// RenderPNG rasterises all slides stacked vertically. Text uses a fixed 7x13
// bitmap face regardless of run size.
func RenderPNG(ctx context.Context, seq *layout.Sequence, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	c := seq.Canvas.WithDefaults()
	r := &pngRenderer{dpi: cfg.dpi, images: newImageSet(cfg.source)}

	sw, sh := r.px(c.Width), r.px(c.Height)
	n := max(len(seq.Slides), 1)
	r.img = image.NewRGBA(image.Rect(0, 0, sw, n*sh+(n-1)*slideGap))
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{separator}, image.Point{}, draw.Src)

	for i, slide := range seq.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.offY = i * (sh + slideGap)
		draw.Draw(r.img, image.Rect(0, r.offY, sw, r.offY+sh), image.White, image.Point{}, draw.Src)
		for _, in := range drawOrder(slide) {
			if err := r.draw(ctx, in); err != nil {
				return nil, err
			}
		}
	}
	if len(seq.Slides) == 0 {
		draw.Draw(r.img, r.img.Bounds(), image.White, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	cfg.logger.Debug("rendered png", "slides", len(seq.Slides), "bytes", buf.Len())
	return buf.Bytes(), nil
}

type pngRenderer struct {
	img    *image.RGBA
	dpi    float64
	offY   int
	images *imageSet
}

func (r *pngRenderer) px(v float64) int { return int(math.Round(v * r.dpi)) }

func (r *pngRenderer) bounds(rc grid.Rect) image.Rectangle {
	x0, y0 := r.px(rc.X), r.px(rc.Y)+r.offY
	return image.Rect(x0, y0, r.px(rc.Right()), r.px(rc.Bottom())+r.offY)
}

func (r *pngRenderer) draw(ctx context.Context, in layout.Instruction) error {
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

func (r *pngRenderer) shape(rc grid.Rect, st layout.ShapeStyle) {
	b := r.bounds(rc)
	draw.Draw(r.img, b, &image.Uniform{hexColor(st.Fill)}, image.Point{}, draw.Src)
	r.outline(b, hexColor(st.Line), max(1, int(math.Round(st.LineWidth*r.dpi/pointsPerInch))))
	if st.Label != "" {
		face := basicfont.Face7x13
		w := font.MeasureString(face, st.Label).Ceil()
		d := &font.Drawer{
			Dst:  r.img,
			Src:  &image.Uniform{hexColor(st.LabelColor)},
			Face: face,
			Dot:  fixed.P(b.Min.X+(b.Dx()-w)/2, b.Min.Y+b.Dy()/2+face.Ascent/2),
		}
		d.DrawString(st.Label)
	}
}

func (r *pngRenderer) outline(b image.Rectangle, c color.RGBA, t int) {
	src := &image.Uniform{c}
	draw.Draw(r.img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+t), src, image.Point{}, draw.Src)
	draw.Draw(r.img, image.Rect(b.Min.X, b.Max.Y-t, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(r.img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+t, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(r.img, image.Rect(b.Max.X-t, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
}

func (r *pngRenderer) measure(s string, _ layout.TextRun) float64 {
	return float64(font.MeasureString(basicfont.Face7x13, s).Ceil()) / r.dpi
}

func (r *pngRenderer) text(rc grid.Rect, runs []layout.TextRun) {
	face := basicfont.Face7x13
	lineH := float64(face.Height) / r.dpi
	clip := r.bounds(rc)
	dst := r.img.SubImage(clip).(*image.RGBA)

	y := rc.Y
	for _, line := range visibleLines(wrapRuns(runs, rc.W, r.measure), rc.H) {
		h := math.Max(line.height, lineH)
		base := r.px(y) + r.offY + face.Ascent
		for _, w := range line.words {
			d := &font.Drawer{
				Dst:  dst,
				Src:  &image.Uniform{hexColor(w.run.Color)},
				Face: face,
				Dot:  fixed.P(r.px(rc.X+w.x), base),
			}
			d.DrawString(w.text)
			if w.run.Bold {
				d.Dot = fixed.P(r.px(rc.X+w.x)+1, base)
				d.DrawString(w.text)
			}
		}
		y += h
	}
}

func (r *pngRenderer) image(ctx context.Context, in layout.Instruction) error {
	b := r.bounds(in.Rect)
	if !r.images.enabled() {
		draw.Draw(r.img, b, &image.Uniform{hexColor(placeholderBG)}, image.Point{}, draw.Src)
		r.outline(b, hexColor(placeholderFG), 1)
		return nil
	}
	src, err := r.images.image(ctx, in.Ref)
	if err != nil {
		return err
	}
	draw.CatmullRom.Scale(r.img, b, src, src.Bounds(), draw.Over, nil)
	return nil
}
