package grid

// FindFreeSpot scans g row by row, left to right, and reserves the first
// position where a rowSpan × colSpan region is free. It returns false and
// leaves g untouched when no such region exists, which callers treat as
// overflow.
func FindFreeSpot(g *Grid, rowSpan, colSpan int) (Span, bool) {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.IsFree(r, c, rowSpan, colSpan) {
				g.Occupy(r, c, rowSpan, colSpan)
				return Span{Row: r, Col: c, RowSpan: rowSpan, ColSpan: colSpan}, true
			}
		}
	}
	return Span{}, false
}

// Fits reports whether a rowSpan × colSpan region could ever be placed on an
// empty grid of the given size.
func Fits(rows, cols, rowSpan, colSpan int) bool {
	return rowSpan >= 1 && colSpan >= 1 && rowSpan <= rows && colSpan <= cols
}
