package grid

import (
	"github.com/matzehuels/slidegrid/pkg/errors"
)

// Default canvas values: a 10 × 7.5 inch slide split into 4 × 4 cells.
const (
	DefaultWidth  = 10.0
	DefaultHeight = 7.5
	DefaultRows   = 4
	DefaultCols   = 4
	DefaultGapX   = 0.3
	DefaultGapY   = 0.3
)

// Canvas describes the fixed slide surface and its grid partition.
// Width, Height and gaps share one unit (inches for all built-in sinks).
// A Canvas is a value; it must not change once a slide has begun.
type Canvas struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	GapX   float64 `json:"gap_x" toml:"gap_x"`
	GapY   float64 `json:"gap_y" toml:"gap_y"`
	Rows   int     `json:"rows" toml:"rows"`
	Cols   int     `json:"cols" toml:"cols"`
}

// DefaultCanvas returns the standard 10 × 7.5 in, 4 × 4 canvas with 0.3 in gaps.
func DefaultCanvas() Canvas {
	return Canvas{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		GapX:   DefaultGapX,
		GapY:   DefaultGapY,
		Rows:   DefaultRows,
		Cols:   DefaultCols,
	}
}

// WithDefaults fills zero fields from [DefaultCanvas]. Negative values are kept
// so that [Canvas.Validate] can reject them.
func (c Canvas) WithDefaults() Canvas {
	d := DefaultCanvas()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.GapX == 0 {
		c.GapX = d.GapX
	}
	if c.GapY == 0 {
		c.GapY = d.GapY
	}
	if c.Rows == 0 {
		c.Rows = d.Rows
	}
	if c.Cols == 0 {
		c.Cols = d.Cols
	}
	return c
}

// Validate reports an INVALID_CANVAS error when the canvas cannot hold a
// single positive-size cell.
func (c Canvas) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return errors.New(errors.ErrCodeInvalidCanvas, "grid must have at least one row and column (got %dx%d)", c.Rows, c.Cols)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidCanvas, "canvas size must be positive (got %gx%g)", c.Width, c.Height)
	}
	if c.GapX < 0 || c.GapY < 0 {
		return errors.New(errors.ErrCodeInvalidCanvas, "gaps cannot be negative (got %g, %g)", c.GapX, c.GapY)
	}
	_, _, err := c.BlockSize()
	return err
}

// BlockSize returns the width and height of a single unit cell.
// It fails with INVALID_CANVAS when either dimension is not positive.
func (c Canvas) BlockSize() (w, h float64, err error) {
	if c.Rows <= 0 || c.Cols <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidCanvas, "grid must have at least one row and column (got %dx%d)", c.Rows, c.Cols)
	}
	w = (c.Width - c.GapX*float64(c.Cols+1)) / float64(c.Cols)
	h = (c.Height - c.GapY*float64(c.Rows+1)) / float64(c.Rows)
	if w <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidCanvas, "block width %.4g is not positive: width %g cannot hold %d columns with gap %g", w, c.Width, c.Cols, c.GapX)
	}
	if h <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidCanvas, "block height %.4g is not positive: height %g cannot hold %d rows with gap %g", h, c.Height, c.Rows, c.GapY)
	}
	return w, h, nil
}

// CellRect returns the absolute rectangle of span. It performs no bounds
// checks; callers reserve spans through a [Grid] first. On an invalid canvas
// the zero Rect is returned.
func (c Canvas) CellRect(s Span) Rect {
	bw, bh, err := c.BlockSize()
	if err != nil {
		return Rect{}
	}
	return Rect{
		X: c.GapX + float64(s.Col)*(bw+c.GapX),
		Y: c.GapY + float64(s.Row)*(bh+c.GapY),
		W: bw*float64(s.ColSpan) + c.GapX*float64(s.ColSpan-1),
		H: bh*float64(s.RowSpan) + c.GapY*float64(s.RowSpan-1),
	}
}

// Capacity returns the number of unit cells on one slide.
func (c Canvas) Capacity() int { return c.Rows * c.Cols }

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center point.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center point.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Contains reports whether o lies entirely inside r, allowing eps of slack
// for floating-point rounding.
func (r Rect) Contains(o Rect, eps float64) bool {
	return o.X >= r.X-eps && o.Y >= r.Y-eps &&
		o.Right() <= r.Right()+eps && o.Bottom() <= r.Bottom()+eps
}
