package layout

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/grid"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultCoverRows = 2
	DefaultCoverCols = 2
	DefaultSubRows   = 2
	DefaultSubCols   = 4
	DefaultSubGap    = 0.05

	// DefaultLabelBand is the height kept free under each option image for
	// its label.
	DefaultLabelBand = 0.12
)

// Text styles taken over from the slide templates.
const (
	coverTitleSize  = 12.0
	captionTitle    = 10.0
	captionDesc     = 8.0
	captionColor    = "666666"
	optionLabelSize = 7.0
	labelGap        = 0.01
)

// Debug overlay styles.
const (
	debugFillUsed = "FFCCCC"
	debugFillFree = "FFFFFF"
	debugLine     = "999999"
	debugLabel    = "FF0000"
)

// =============================================================================
// State
// =============================================================================

// State is the lifecycle of an [Orchestrator].
type State int

const (
	StateEmpty State = iota
	StateInProgress
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInProgress:
		return "in_progress"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// =============================================================================
// Options
// =============================================================================

// Options configures an [Orchestrator]. Zero values take the defaults above
// and [grid.DefaultCanvas].
type Options struct {
	Canvas    grid.Canvas `json:"canvas" toml:"canvas"`
	CoverRows int         `json:"cover_rows,omitempty" toml:"cover_rows"`
	CoverCols int         `json:"cover_cols,omitempty" toml:"cover_cols"`
	SubRows   int         `json:"sub_rows,omitempty" toml:"sub_rows"`
	SubCols   int         `json:"sub_cols,omitempty" toml:"sub_cols"`
	SubGap    float64     `json:"sub_gap,omitempty" toml:"sub_gap"`
	LabelBand float64     `json:"label_band,omitempty" toml:"label_band"`
	Debug     bool        `json:"debug,omitempty" toml:"debug"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o Options) WithDefaults() Options {
	o.Canvas = o.Canvas.WithDefaults()
	if o.CoverRows == 0 {
		o.CoverRows = DefaultCoverRows
	}
	if o.CoverCols == 0 {
		o.CoverCols = DefaultCoverCols
	}
	if o.SubRows == 0 {
		o.SubRows = DefaultSubRows
	}
	if o.SubCols == 0 {
		o.SubCols = DefaultSubCols
	}
	if o.SubGap == 0 {
		o.SubGap = DefaultSubGap
	}
	if o.LabelBand == 0 {
		o.LabelBand = DefaultLabelBand
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate checks the canvas and the sub-grid settings.
func (o Options) Validate() error {
	if err := o.Canvas.Validate(); err != nil {
		return err
	}
	if o.CoverRows < 1 || o.CoverCols < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "cover span must be at least 1x1 (got %dx%d)", o.CoverRows, o.CoverCols)
	}
	if o.SubRows < 1 || o.SubCols < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "option grid must be at least 1x1 (got %dx%d)", o.SubRows, o.SubCols)
	}
	if o.SubGap < 0 || o.LabelBand < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "sub_gap and label_band cannot be negative")
	}
	return nil
}

// OptionCapacity is the number of options one product can show.
func (o Options) OptionCapacity() int { return o.SubRows * o.SubCols }

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator places one payload onto a sequence of slides. It is single
// use: once Generate returns, the orchestrator is finalized.
type Orchestrator struct {
	opts    Options
	builder Builder
	prober  Prober
	logger  *log.Logger

	state    State
	grid     *grid.Grid
	slide    SlideHandle
	reserved [][]grid.Span
	dropped  int
	cover    *Item
	title    string
}

// New creates an orchestrator. It fails with INVALID_CANVAS before any
// placement when the canvas cannot hold a cell.
func New(b Builder, p Prober, opts Options) (*Orchestrator, error) {
	if b == nil {
		b = NewRecorder()
	}
	if p == nil {
		p = SizeTable{}
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		opts:    opts,
		builder: b,
		prober:  p,
		logger:  opts.Logger,
		grid:    grid.ForCanvas(opts.Canvas),
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// Generate lays out p and returns the finished sequence. Items are placed
// strictly in input order. The run aborts on the first IMAGE_READ or
// CANVAS_TOO_SMALL error, or when ctx is cancelled.
func (o *Orchestrator) Generate(ctx context.Context, p *Payload) (*Sequence, error) {
	if o.state != StateEmpty {
		return nil, errors.New(errors.ErrCodeInvalidInput, "orchestrator is %s; create a new one per payload", o.state)
	}
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "payload is nil")
	}
	o.state = StateInProgress
	defer func() { o.state = StateFinalized }()

	if cover, ok := CoverItem(p, o.opts.CoverRows, o.opts.CoverCols); ok {
		if !grid.Fits(o.opts.Canvas.Rows, o.opts.Canvas.Cols, cover.Rows, cover.Cols) {
			return nil, errors.New(errors.ErrCodeCanvasTooSmall,
				"cover span %dx%d does not fit a %dx%d grid", cover.Rows, cover.Cols, o.opts.Canvas.Rows, o.opts.Canvas.Cols)
		}
		o.cover = &cover
		o.title = p.CoverTitle()
	}

	if err := o.beginSlide(ctx); err != nil {
		return nil, err
	}

	for i, pr := range p.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := o.placeProduct(ctx, ProductItem(i, pr)); err != nil {
			return nil, err
		}
	}

	o.endSlide()
	seq := o.builder.EndGeneration()
	for i := range seq.Slides {
		if i < len(o.reserved) {
			seq.Slides[i].Reserved = o.reserved[i]
		}
	}
	seq.Canvas = o.opts.Canvas
	seq.Dropped = o.dropped

	o.logger.Debug("layout complete",
		"slides", seq.Len(),
		"items", len(p.Items),
		"dropped", o.dropped)
	return seq, nil
}

// beginSlide closes the current slide (if any), opens a new one on a fresh
// grid and emits the cover.
func (o *Orchestrator) beginSlide(ctx context.Context) error {
	if o.slide != 0 {
		o.endSlide()
	}
	o.grid.Reset()
	o.slide = o.builder.BeginSlide(o.opts.Canvas)
	o.reserved = append(o.reserved, nil)
	o.logger.Debug("begin slide", "slide", int(o.slide))

	if o.cover == nil {
		return nil
	}
	return o.placeCover(ctx, *o.cover)
}

// endSlide emits the debug overlay for the current slide.
func (o *Orchestrator) endSlide() {
	if !o.opts.Debug || o.slide == 0 {
		return
	}
	c := o.opts.Canvas
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			span := grid.Span{Row: r, Col: col, RowSpan: 1, ColSpan: 1}
			fill := debugFillFree
			if o.grid.IsOccupied(r, col) {
				fill = debugFillUsed
			}
			o.builder.PlaceShape(o.slide, c.CellRect(span), ShapeStyle{
				Fill:       fill,
				Line:       debugLine,
				LineWidth:  1,
				Label:      fmt.Sprintf("%d,%d", r, col),
				LabelColor: debugLabel,
				LabelSize:  8,
			}, Origin{Span: span, Item: "debug"})
		}
	}
}

func (o *Orchestrator) reserve(s grid.Span) {
	i := len(o.reserved) - 1
	o.reserved[i] = append(o.reserved[i], s)
}

// placeCover reserves the cover span at the origin without searching.
func (o *Orchestrator) placeCover(ctx context.Context, it Item) error {
	span := grid.Span{Row: 0, Col: 0, RowSpan: it.Rows, ColSpan: it.Cols}
	o.grid.OccupySpan(span)
	o.reserve(span)

	at := Origin{Span: span, Item: it.Name()}
	c := o.opts.Canvas
	if o.title != "" {
		o.builder.PlaceText(o.slide, grid.Rect{X: c.GapX / 2, Y: 0, W: c.Width - c.GapX, H: c.GapY},
			[]TextRun{{Text: o.title, Size: coverTitleSize, Bold: true}}, at)
	}

	size, err := o.prober.Dimensions(ctx, it.Image)
	if err != nil {
		return o.imageError(ctx, err, it, it.Image)
	}
	box := c.CellRect(span)
	o.builder.PlaceImage(o.slide, grid.FitRect(float64(size.Width), float64(size.Height), box, 0.5, 0.5), it.Image, at)
	return nil
}

// placeProduct finds a span for it, retrying once on a new slide.
func (o *Orchestrator) placeProduct(ctx context.Context, it Item) error {
	rowSpan, colSpan := it.RequiredSpan()
	span, ok := grid.FindFreeSpot(o.grid, rowSpan, colSpan)
	if !ok {
		o.logger.Debug("slide full", "slide", int(o.slide), "item", it.Name(), "span", fmt.Sprintf("%dx%d", rowSpan, colSpan))
		if err := o.beginSlide(ctx); err != nil {
			return err
		}
		span, ok = grid.FindFreeSpot(o.grid, rowSpan, colSpan)
		if !ok {
			return errors.New(errors.ErrCodeCanvasTooSmall,
				"%s needs a %dx%d span that does not fit a fresh %dx%d slide",
				it.Name(), rowSpan, colSpan, o.opts.Canvas.Rows, o.opts.Canvas.Cols)
		}
	}
	o.reserve(span)

	cell := grid.Span{Row: span.Row, Col: span.Col, RowSpan: 1, ColSpan: 1}
	box := o.opts.Canvas.CellRect(cell)
	at := Origin{Span: span, Item: it.Name()}

	if it.Image != "" {
		size, err := o.prober.Dimensions(ctx, it.Image)
		if err != nil {
			return o.imageError(ctx, err, it, it.Image)
		}
		o.builder.PlaceImage(o.slide, grid.FitRect(float64(size.Width), float64(size.Height), box, 0, 1), it.Image, at)
	}

	o.builder.PlaceText(o.slide, grid.Rect{X: box.X, Y: box.Bottom(), W: box.W, H: o.opts.Canvas.GapY}, []TextRun{
		{Text: it.Title + "\n", Size: captionTitle, Bold: true},
		{Text: it.Description, Size: captionDesc, Color: captionColor},
	}, at)

	if group, ok := it.OptionGroup(); ok {
		slot := grid.Span{Row: span.Row, Col: span.Col + 1, RowSpan: 1, ColSpan: 1}
		return o.placeOptions(ctx, group, slot)
	}
	return nil
}

// placeOptions paints the option sub-grid into the cell at span. The cell is
// already reserved as part of the product span.
func (o *Orchestrator) placeOptions(ctx context.Context, group Item, span grid.Span) error {
	cell := o.opts.Canvas.CellRect(span)
	slots := SubGrid(cell, o.opts.SubRows, o.opts.SubCols, o.opts.SubGap)
	at := Origin{Span: span, Item: group.Name()}

	n := min(len(group.Options), len(slots))
	for i := 0; i < n; i++ {
		opt := group.Options[i]
		slot := slots[i]

		imgH := 0.0
		if opt.Image != "" {
			size, err := o.prober.Dimensions(ctx, opt.Image)
			if err != nil {
				return o.imageError(ctx, err, group, opt.Image)
			}
			box := grid.Rect{X: slot.X, Y: slot.Y, W: slot.W, H: max(slot.H-o.opts.LabelBand, 0)}
			img := grid.FitRect(float64(size.Width), float64(size.Height), box, 0, 0)
			o.builder.PlaceImage(o.slide, img, opt.Image, at)
			imgH = img.H
		}

		label := grid.Rect{X: slot.X, Y: slot.Y + imgH, W: slot.W, H: slot.H - imgH}
		if imgH > 0 {
			label.Y += labelGap
			label.H -= labelGap
		}
		o.builder.PlaceText(o.slide, label, []TextRun{{Text: opt.Label, Size: optionLabelSize, Bold: true}}, at)
	}

	if dropped := len(group.Options) - n; dropped > 0 {
		o.dropped += dropped
		o.logger.Debug("options truncated",
			"item", group.Name(),
			"placed", n,
			"dropped", dropped)
	}
	return nil
}

func (o *Orchestrator) imageError(ctx context.Context, err error, it Item, ref string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.Wrap(errors.ErrCodeImageRead, err, "%s: %s", it.Name(), ref)
}

// SubGrid splits cell into rows × cols equal slots separated by gap and
// returns them row-major. Unlike the slide grid, the sub-grid has no outer
// margin.
func SubGrid(cell grid.Rect, rows, cols int, gap float64) []grid.Rect {
	if rows < 1 || cols < 1 {
		return nil
	}
	w := (cell.W - float64(cols-1)*gap) / float64(cols)
	h := (cell.H - float64(rows-1)*gap) / float64(rows)
	out := make([]grid.Rect, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, grid.Rect{
				X: cell.X + float64(c)*(w+gap),
				Y: cell.Y + float64(r)*(h+gap),
				W: w,
				H: h,
			})
		}
	}
	return out
}
