package layout

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
)

const eps = 1e-9

// fixedProber reports the same size for every ref and records each lookup.
type fixedProber struct {
	size imageprobe.Size
	fail map[string]bool

	mu    sync.Mutex
	calls []string
}

func (p *fixedProber) Dimensions(_ context.Context, ref string) (imageprobe.Size, error) {
	p.mu.Lock()
	p.calls = append(p.calls, ref)
	p.mu.Unlock()
	if p.fail[ref] {
		return imageprobe.Size{}, errors.New(errors.ErrCodeImageRead, "cannot read %s", ref)
	}
	return p.size, nil
}

func square() *fixedProber { return &fixedProber{size: imageprobe.Size{Width: 100, Height: 100}} }

func products(n int, options int) []Product {
	out := make([]Product, n)
	for i := range out {
		out[i] = Product{
			MainImage:   fmt.Sprintf("p%d.png", i),
			Title:       fmt.Sprintf("Product %d", i),
			Description: "desc",
		}
		for j := 0; j < options; j++ {
			out[i].Options = append(out[i].Options, Option{Label: fmt.Sprintf("opt %d", j), Image: "o.png"})
		}
	}
	return out
}

func generate(t *testing.T, p *Payload, prober Prober, opts Options) *Sequence {
	t.Helper()
	o, err := New(NewRecorder(), prober, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	seq, err := o.Generate(context.Background(), p)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if o.State() != StateFinalized {
		t.Errorf("State() = %v, want finalized", o.State())
	}
	return seq
}

func byItem(seq *Sequence, item string, op Op) []Instruction {
	var out []Instruction
	for _, sl := range seq.Slides {
		for _, in := range sl.Instructions {
			if in.Item == item && in.Op == op {
				out = append(out, in)
			}
		}
	}
	return out
}

func TestGenerateOverflowsToSecondSlide(t *testing.T) {
	seq := generate(t, &Payload{Items: products(17, 0)}, square(), Options{})

	if seq.Len() != 2 {
		t.Fatalf("slides = %d, want 2", seq.Len())
	}
	if got := len(seq.Slides[0].Reserved); got != 16 {
		t.Errorf("slide 1 reserved %d spans, want 16", got)
	}
	want := []grid.Span{{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1}}
	if got := seq.Slides[1].Reserved; len(got) != 1 || got[0] != want[0] {
		t.Errorf("slide 2 reserved = %v, want %v", got, want)
	}
	last := byItem(seq, "items[16]", OpImage)
	if len(last) != 1 || last[0].Slide != 2 {
		t.Errorf("item 16 image = %+v, want one image on slide 2", last)
	}
}

func TestGenerateRowMajorOrder(t *testing.T) {
	seq := generate(t, &Payload{Items: products(6, 0)}, square(), Options{})
	for i, s := range seq.Slides[0].Reserved {
		if s.Row != i/4 || s.Col != i%4 {
			t.Errorf("item %d at %v, want row %d col %d", i, s, i/4, i%4)
		}
	}
}

func TestGenerateOptionsWithinCapacity(t *testing.T) {
	p := &Payload{Items: products(1, 5)}
	seq := generate(t, p, square(), Options{})

	if got := seq.Slides[0].Reserved; len(got) != 1 || got[0] != (grid.Span{Row: 0, Col: 0, RowSpan: 1, ColSpan: 2}) {
		t.Fatalf("reserved = %v, want one 1x2 span at the origin", got)
	}
	imgs := byItem(seq, "items[0].options", OpImage)
	labels := byItem(seq, "items[0].options", OpText)
	if len(imgs) != 5 || len(labels) != 5 {
		t.Errorf("option images = %d, labels = %d, want 5 and 5", len(imgs), len(labels))
	}
	if seq.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", seq.Dropped)
	}

	cell := seq.Canvas.CellRect(grid.Span{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1})
	for _, in := range append(imgs, labels...) {
		if !cell.Contains(in.Rect, eps) {
			t.Errorf("option %s rect %+v escapes cell %+v", in.Op, in.Rect, cell)
		}
	}
	if labels[4].Text() != "opt 4" {
		t.Errorf("fifth label = %q", labels[4].Text())
	}
	// Fifth option starts the second sub-row.
	if !(imgs[4].Rect.Y > imgs[0].Rect.Y) || !approxEq(imgs[4].Rect.X, imgs[0].Rect.X) {
		t.Errorf("fifth option at %+v, want below the first at %+v", imgs[4].Rect, imgs[0].Rect)
	}
}

func TestGenerateOptionsTruncated(t *testing.T) {
	seq := generate(t, &Payload{Items: products(1, 9)}, square(), Options{})

	if got := len(byItem(seq, "items[0].options", OpImage)); got != 8 {
		t.Errorf("option images = %d, want 8", got)
	}
	if seq.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", seq.Dropped)
	}
}

func TestGenerateCoverRepeatsOnEverySlide(t *testing.T) {
	p := &Payload{CoverImage: "cover.png", Title: "Catalogue", Description: "Spring", Items: products(13, 0)}
	seq := generate(t, p, square(), Options{})

	if seq.Len() != 2 {
		t.Fatalf("slides = %d, want 2", seq.Len())
	}
	cover := grid.Span{Row: 0, Col: 0, RowSpan: 2, ColSpan: 2}
	for i, sl := range seq.Slides {
		if sl.Reserved[0] != cover {
			t.Errorf("slide %d first reservation = %v, want cover %v", i+1, sl.Reserved[0], cover)
		}
	}
	titles := byItem(seq, "cover", OpText)
	if len(titles) != 2 || titles[0].Text() != "Catalogue - Spring" {
		t.Errorf("cover titles = %+v", titles)
	}
	if got := seq.Slides[0].Reserved[1]; got != (grid.Span{Row: 0, Col: 2, RowSpan: 1, ColSpan: 1}) {
		t.Errorf("first product at %v, want 0,2", got)
	}
	if got := seq.Slides[1].Reserved[1]; got != (grid.Span{Row: 0, Col: 2, RowSpan: 1, ColSpan: 1}) {
		t.Errorf("overflow product at %v, want 0,2", got)
	}
}

func TestGenerateCoverCentred(t *testing.T) {
	p := &Payload{CoverImage: "cover.png", Title: "T"}
	prober := &fixedProber{size: imageprobe.Size{Width: 400, Height: 100}}
	seq := generate(t, p, prober, Options{})

	img := byItem(seq, "cover", OpImage)
	if len(img) != 1 {
		t.Fatalf("cover images = %d, want 1", len(img))
	}
	box := seq.Canvas.CellRect(grid.Span{RowSpan: 2, ColSpan: 2})
	if !approxEq(img[0].Rect.CenterX(), box.CenterX()) || !approxEq(img[0].Rect.CenterY(), box.CenterY()) {
		t.Errorf("cover %+v not centred in %+v", img[0].Rect, box)
	}
	if !approxEq(img[0].Rect.W, box.W) {
		t.Errorf("wide cover should fill box width: %v vs %v", img[0].Rect.W, box.W)
	}
}

func TestGenerateProductGeometry(t *testing.T) {
	prober := &fixedProber{size: imageprobe.Size{Width: 400, Height: 100}}
	seq := generate(t, &Payload{Items: products(1, 0)}, prober, Options{})

	cell := seq.Canvas.CellRect(grid.Span{RowSpan: 1, ColSpan: 1})
	img := byItem(seq, "items[0]", OpImage)[0]
	if !approxEq(img.Rect.Bottom(), cell.Bottom()) || !approxEq(img.Rect.X, cell.X) {
		t.Errorf("product image %+v not bottom-left aligned in %+v", img.Rect, cell)
	}
	if !approxEq(img.Rect.W/img.Rect.H, 4) {
		t.Errorf("aspect ratio %v, want 4", img.Rect.W/img.Rect.H)
	}

	caption := byItem(seq, "items[0]", OpText)[0]
	want := grid.Rect{X: cell.X, Y: cell.Bottom(), W: cell.W, H: seq.Canvas.GapY}
	if caption.Rect != want {
		t.Errorf("caption rect = %+v, want %+v", caption.Rect, want)
	}
	if len(caption.Runs) != 2 || !caption.Runs[0].Bold || caption.Runs[1].Color != "666666" {
		t.Errorf("caption runs = %+v", caption.Runs)
	}
}

func TestGenerateEmptyImageSkipped(t *testing.T) {
	prober := square()
	p := &Payload{Items: []Product{{Title: "no image", Options: []Option{{Label: "bare"}}}}}
	seq := generate(t, p, prober, Options{})

	if len(prober.calls) != 0 {
		t.Errorf("prober called for %v, want no calls", prober.calls)
	}
	if seq.Count(OpImage) != 0 {
		t.Errorf("images = %d, want 0", seq.Count(OpImage))
	}
	labels := byItem(seq, "items[0].options", OpText)
	if len(labels) != 1 {
		t.Fatalf("labels = %d, want 1", len(labels))
	}
	slot := SubGrid(seq.Canvas.CellRect(grid.Span{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1}), 2, 4, DefaultSubGap)[0]
	if labels[0].Rect != slot {
		t.Errorf("label without image = %+v, want full slot %+v", labels[0].Rect, slot)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload *Payload
		opts    Options
		prober  Prober
		code    errors.Code
		msg     string
	}{
		{
			name:    "cover larger than grid",
			payload: &Payload{CoverImage: "c.png", Items: products(1, 0)},
			opts:    Options{CoverRows: 5, CoverCols: 1},
			prober:  square(),
			code:    errors.ErrCodeCanvasTooSmall,
			msg:     "cover",
		},
		{
			name:    "product with options on one column",
			payload: &Payload{Items: products(1, 1)},
			opts:    Options{Canvas: grid.Canvas{Cols: 1}},
			prober:  square(),
			code:    errors.ErrCodeCanvasTooSmall,
			msg:     "items[0]",
		},
		{
			name:    "cover fills the whole grid",
			payload: &Payload{CoverImage: "c.png", Items: products(1, 0)},
			opts:    Options{Canvas: grid.Canvas{Rows: 2, Cols: 2}},
			prober:  square(),
			code:    errors.ErrCodeCanvasTooSmall,
		},
		{
			name:    "unreadable product image",
			payload: &Payload{Items: products(3, 0)},
			prober:  &fixedProber{size: imageprobe.Size{Width: 1, Height: 1}, fail: map[string]bool{"p2.png": true}},
			code:    errors.ErrCodeImageRead,
			msg:     "items[2]: p2.png",
		},
		{
			name:    "unreadable option image",
			payload: &Payload{Items: products(1, 2)},
			prober:  &fixedProber{size: imageprobe.Size{Width: 1, Height: 1}, fail: map[string]bool{"o.png": true}},
			code:    errors.ErrCodeImageRead,
			msg:     "items[0].options",
		},
		{
			name:    "missing from size table",
			payload: &Payload{CoverImage: "c.png"},
			prober:  SizeTable{},
			code:    errors.ErrCodeImageRead,
		},
		{
			name:    "nil payload",
			payload: nil,
			prober:  square(),
			code:    errors.ErrCodeInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(nil, tt.prober, tt.opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			seq, err := o.Generate(context.Background(), tt.payload)
			if seq != nil {
				t.Errorf("Generate() returned a sequence alongside an error")
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("Generate() error = %v, want %s", err, tt.code)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestNewInvalidCanvas(t *testing.T) {
	_, err := New(nil, nil, Options{Canvas: grid.Canvas{Width: 1, Height: 1}})
	if !errors.Is(err, errors.ErrCodeInvalidCanvas) {
		t.Errorf("New() error = %v, want INVALID_CANVAS", err)
	}
}

func TestGenerateSingleUse(t *testing.T) {
	o, err := New(nil, square(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Generate(context.Background(), &Payload{}); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if _, err := o.Generate(context.Background(), &Payload{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second Generate() error = %v, want INVALID_INPUT", err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, _ := New(nil, square(), Options{})
	if _, err := o.Generate(ctx, &Payload{Items: products(2, 0)}); err != context.Canceled {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := Demo(DemoOptions{Products: 30, Seed: 7})
	a, _ := MarshalSequence(generate(t, p, square(), Options{Debug: true}))
	b, _ := MarshalSequence(generate(t, p, square(), Options{Debug: true}))
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different sequences")
	}
}

func TestGenerateNoOverlap(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		p := Demo(DemoOptions{Products: 25, Seed: seed})
		seq := generate(t, p, square(), Options{})
		page := grid.Rect{W: seq.Canvas.Width, H: seq.Canvas.Height}

		placed := 0
		for _, sl := range seq.Slides {
			for i, a := range sl.Reserved {
				for _, b := range sl.Reserved[i+1:] {
					if a.Overlaps(b) {
						t.Fatalf("seed %d slide %d: %v overlaps %v", seed, sl.Index, a, b)
					}
				}
			}
			for _, in := range sl.Instructions {
				if in.Op == OpImage && !page.Contains(in.Rect, eps) {
					t.Fatalf("seed %d: image %+v leaves the page", seed, in.Rect)
				}
			}
			placed += len(sl.Reserved) - 1 // cover
		}
		if placed != len(p.Items) {
			t.Errorf("seed %d: placed %d products, want %d", seed, placed, len(p.Items))
		}
	}
}

func TestGenerateDebugOverlay(t *testing.T) {
	seq := generate(t, &Payload{Items: products(3, 0)}, square(), Options{Debug: true})

	shapes := byItem(seq, "debug", OpShape)
	if len(shapes) != 16 {
		t.Fatalf("shapes = %d, want 16", len(shapes))
	}
	used := 0
	for _, s := range shapes {
		if s.Style == nil {
			t.Fatal("shape without style")
		}
		if s.Style.Fill == debugFillUsed {
			used++
		}
	}
	if used != 3 {
		t.Errorf("used cells = %d, want 3", used)
	}
	if shapes[5].Style.Label != "1,1" {
		t.Errorf("label = %q, want 1,1", shapes[5].Style.Label)
	}
}

func TestSubGrid(t *testing.T) {
	cell := grid.Rect{X: 1, Y: 1, W: 2.15, H: 1.05}
	slots := SubGrid(cell, 2, 4, 0.05)
	if len(slots) != 8 {
		t.Fatalf("slots = %d, want 8", len(slots))
	}
	if !approxEq(slots[0].W, 0.5) || !approxEq(slots[0].H, 0.5) {
		t.Errorf("slot size = %vx%v, want 0.5x0.5", slots[0].W, slots[0].H)
	}
	if !approxEq(slots[7].Right(), cell.Right()) || !approxEq(slots[7].Bottom(), cell.Bottom()) {
		t.Errorf("last slot %+v should touch the cell corner", slots[7])
	}
	if SubGrid(cell, 0, 4, 0.05) != nil {
		t.Error("empty sub-grid should be nil")
	}
}

func approxEq(a, b float64) bool {
	d := a - b
	return d < eps && d > -eps
}
