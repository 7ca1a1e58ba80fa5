package render

import (
	"bytes"
	"context"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/layout"
)

const pdfFont = "Helvetica"

// RenderPDF draws one page per slide. Page size equals the canvas, in inches.
func RenderPDF(ctx context.Context, seq *layout.Sequence, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	c := seq.Canvas.WithDefaults()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: c.Width, Ht: c.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("slidegrid", true)

	r := &pdfRenderer{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		images:     newImageSet(cfg.source),
		registered: map[string]bool{},
	}

	for _, slide := range seq.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		for _, in := range drawOrder(slide) {
			if err := r.draw(ctx, in); err != nil {
				return nil, err
			}
		}
	}
	if len(seq.Slides) == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	cfg.logger.Debug("rendered pdf", "slides", len(seq.Slides), "bytes", buf.Len())
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	images     *imageSet
	registered map[string]bool
}

func (r *pdfRenderer) draw(ctx context.Context, in layout.Instruction) error {
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

func (r *pdfRenderer) shape(rect grid.Rect, st layout.ShapeStyle) {
	fr, fg, fb := parseHex(st.Fill)
	lr, lg, lb := parseHex(st.Line)
	r.pdf.SetFillColor(int(fr), int(fg), int(fb))
	r.pdf.SetDrawColor(int(lr), int(lg), int(lb))
	r.pdf.SetLineWidth(st.LineWidth / pointsPerInch)
	r.pdf.Rect(rect.X, rect.Y, rect.W, rect.H, "FD")
	if st.Label != "" {
		r.centred(rect, st.Label, layout.TextRun{Size: st.LabelSize, Color: st.LabelColor})
	}
}

func (r *pdfRenderer) setRun(run layout.TextRun) {
	style := ""
	if run.Bold {
		style = "B"
	}
	r.pdf.SetFont(pdfFont, style, run.Size)
	cr, cg, cb := parseHex(run.Color)
	r.pdf.SetTextColor(int(cr), int(cg), int(cb))
}

func (r *pdfRenderer) measure(s string, run layout.TextRun) float64 {
	r.setRun(run)
	return r.pdf.GetStringWidth(r.tr(s))
}

func (r *pdfRenderer) text(rect grid.Rect, runs []layout.TextRun) {
	y := rect.Y
	for _, line := range visibleLines(wrapRuns(runs, rect.W, r.measure), rect.H) {
		base := y + line.height*0.78
		for _, w := range line.words {
			r.setRun(w.run)
			r.pdf.Text(rect.X+w.x, base, r.tr(w.text))
		}
		y += line.height
	}
}

func (r *pdfRenderer) centred(rect grid.Rect, s string, run layout.TextRun) {
	w := r.measure(s, run)
	r.pdf.Text(rect.CenterX()-w/2, rect.CenterY()+run.Size/pointsPerInch*0.35, r.tr(s))
}

func (r *pdfRenderer) image(ctx context.Context, in layout.Instruction) error {
	if !r.images.enabled() {
		r.placeholder(in.Rect, in.Ref)
		return nil
	}
	var opts fpdf.ImageOptions
	if !r.registered[in.Ref] {
		data, err := r.images.bytes(ctx, in.Ref)
		if err != nil {
			return err
		}
		norm, typ, err := imageprobe.Normalize(data)
		if err != nil {
			return errors.Wrap(errors.ErrCodeImageRead, err, "%s", in.Ref)
		}
		opts.ImageType = typ
		r.pdf.RegisterImageOptionsReader(in.Ref, opts, bytes.NewReader(norm))
		if err := r.pdf.Error(); err != nil {
			return errors.Wrap(errors.ErrCodeImageRead, err, "embed %s", in.Ref)
		}
		r.registered[in.Ref] = true
	}
	r.pdf.ImageOptions(in.Ref, in.Rect.X, in.Rect.Y, in.Rect.W, in.Rect.H, false, opts, 0, "")
	return nil
}

func (r *pdfRenderer) placeholder(rect grid.Rect, ref string) {
	r.shape(rect, layout.ShapeStyle{Fill: placeholderBG, Line: placeholderFG, LineWidth: 0.5})
	r.text(rect, []layout.TextRun{{Text: ref, Size: 6, Color: placeholderFG}})
}
