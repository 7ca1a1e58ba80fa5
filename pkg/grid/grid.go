package grid

import "fmt"

// Span is a rectangular group of cells identified by its top-left cell and
// its extent. RowSpan and ColSpan are at least 1 for any span produced by
// this package.
type Span struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`
}

// String returns "row,col rowSpanxcolSpan", e.g. "0,1 1x2".
func (s Span) String() string {
	return fmt.Sprintf("%d,%d %dx%d", s.Row, s.Col, s.RowSpan, s.ColSpan)
}

// Overlaps reports whether s and o share at least one cell.
func (s Span) Overlaps(o Span) bool {
	return s.Row < o.Row+o.RowSpan && o.Row < s.Row+s.RowSpan &&
		s.Col < o.Col+o.ColSpan && o.Col < s.Col+s.ColSpan
}

// Cells returns the number of cells covered by s.
func (s Span) Cells() int { return s.RowSpan * s.ColSpan }

// Grid is the occupancy matrix of one slide. It is not safe for concurrent
// use; a grid belongs to the slide under construction.
type Grid struct {
	rows, cols int
	cells      [][]bool
	occupied   int
}

// New creates an empty rows × cols grid. Non-positive dimensions yield a grid
// with no cells, on which every query fails.
func New(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	g := &Grid{rows: rows, cols: cols}
	g.Reset()
	return g
}

// ForCanvas creates an empty grid sized for c.
func ForCanvas(c Canvas) *Grid { return New(c.Rows, c.Cols) }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Reset marks every cell free. It is used when a new slide starts.
func (g *Grid) Reset() {
	g.cells = make([][]bool, g.rows)
	for r := range g.cells {
		g.cells[r] = make([]bool, g.cols)
	}
	g.occupied = 0
}

// IsFree reports whether every cell of the span lies inside the grid and is
// unoccupied. Out-of-bounds spans are not free; they are not an error.
func (g *Grid) IsFree(row, col, rowSpan, colSpan int) bool {
	if rowSpan < 1 || colSpan < 1 || row < 0 || col < 0 {
		return false
	}
	if row+rowSpan > g.rows || col+colSpan > g.cols {
		return false
	}
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			if g.cells[r][c] {
				return false
			}
		}
	}
	return true
}

// Occupy marks every in-bounds cell of the span as taken. Cells outside the
// grid are silently clipped. Re-occupying a cell is a no-op.
func (g *Grid) Occupy(row, col, rowSpan, colSpan int) {
	for r := max(row, 0); r < row+rowSpan && r < g.rows; r++ {
		for c := max(col, 0); c < col+colSpan && c < g.cols; c++ {
			if !g.cells[r][c] {
				g.cells[r][c] = true
				g.occupied++
			}
		}
	}
}

// OccupySpan is Occupy for a [Span].
func (g *Grid) OccupySpan(s Span) { g.Occupy(s.Row, s.Col, s.RowSpan, s.ColSpan) }

// IsOccupied reports whether the single cell (row, col) is taken.
// Out-of-bounds cells report false.
func (g *Grid) IsOccupied(row, col int) bool {
	if row < 0 || col < 0 || row >= g.rows || col >= g.cols {
		return false
	}
	return g.cells[row][col]
}

// Occupied returns the number of taken cells.
func (g *Grid) Occupied() int { return g.occupied }

// IsFull reports whether every cell is taken.
func (g *Grid) IsFull() bool { return g.occupied == g.rows*g.cols }

// Snapshot returns a copy of the cell matrix.
func (g *Grid) Snapshot() [][]bool {
	out := make([][]bool, g.rows)
	for r := range g.cells {
		out[r] = append([]bool(nil), g.cells[r]...)
	}
	return out
}
