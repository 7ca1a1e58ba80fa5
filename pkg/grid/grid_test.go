package grid

import "testing"

func TestIsFree(t *testing.T) {
	g := New(4, 4)
	g.Occupy(1, 1, 1, 1)

	tests := []struct {
		name                      string
		row, col, rowSpan, colSpan int
		want                      bool
	}{
		{"empty cell", 0, 0, 1, 1, true},
		{"occupied cell", 1, 1, 1, 1, false},
		{"span over occupied", 0, 0, 2, 2, false},
		{"span beside occupied", 0, 2, 2, 2, true},
		{"right edge", 0, 3, 1, 1, true},
		{"past right edge", 0, 3, 1, 2, false},
		{"past bottom edge", 3, 0, 2, 1, false},
		{"negative row", -1, 0, 1, 1, false},
		{"zero span", 0, 0, 0, 1, false},
		{"whole grid", 0, 0, 4, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsFree(tt.row, tt.col, tt.rowSpan, tt.colSpan); got != tt.want {
				t.Errorf("IsFree(%d,%d,%d,%d) = %v, want %v", tt.row, tt.col, tt.rowSpan, tt.colSpan, got, tt.want)
			}
		})
	}
}

func TestOccupyIdempotent(t *testing.T) {
	g := New(2, 3)
	g.Occupy(0, 0, 1, 2)
	g.Occupy(0, 0, 1, 2)
	g.Occupy(0, 1, 1, 1)

	if got := g.Occupied(); got != 2 {
		t.Errorf("Occupied() = %d, want 2 after repeated occupy", got)
	}
	if g.IsFull() {
		t.Error("IsFull() = true with 2 of 6 cells taken")
	}
}

func TestOccupyClipsOutOfBounds(t *testing.T) {
	g := New(2, 2)
	g.Occupy(1, 1, 3, 3)

	if got := g.Occupied(); got != 1 {
		t.Errorf("Occupied() = %d, want 1", got)
	}
	if !g.IsOccupied(1, 1) {
		t.Error("cell 1,1 should be occupied")
	}

	g.Occupy(-1, -1, 2, 2)
	if !g.IsOccupied(0, 0) {
		t.Error("clipped occupy should still mark 0,0")
	}
	if got := g.Occupied(); got != 2 {
		t.Errorf("Occupied() = %d, want 2", got)
	}
}

func TestIsFullMonotonic(t *testing.T) {
	g := New(3, 3)
	total := g.Rows() * g.Cols()
	for i := 0; i < total; i++ {
		if g.IsFull() {
			t.Fatalf("IsFull() = true after %d of %d cells", i, total)
		}
		g.Occupy(i/3, i%3, 1, 1)
		if got := g.Occupied(); got != i+1 {
			t.Fatalf("Occupied() = %d, want %d", got, i+1)
		}
	}
	if !g.IsFull() {
		t.Error("IsFull() = false with every cell occupied")
	}
}

func TestReset(t *testing.T) {
	g := New(2, 2)
	g.Occupy(0, 0, 2, 2)
	if !g.IsFull() {
		t.Fatal("grid should be full")
	}

	g.Reset()
	if g.Occupied() != 0 || g.IsFull() {
		t.Errorf("after Reset: Occupied() = %d, IsFull() = %v", g.Occupied(), g.IsFull())
	}
	if !g.IsFree(0, 0, 2, 2) {
		t.Error("whole grid should be free after Reset")
	}
}

func TestEmptyGrid(t *testing.T) {
	g := New(0, -2)
	if g.Rows() != 0 || g.Cols() != 0 {
		t.Errorf("New(0,-2) = %dx%d, want 0x0", g.Rows(), g.Cols())
	}
	if g.IsFree(0, 0, 1, 1) {
		t.Error("empty grid has no free cells")
	}
	if !g.IsFull() {
		t.Error("empty grid is trivially full")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	g := New(2, 2)
	g.Occupy(0, 0, 1, 1)
	snap := g.Snapshot()
	snap[1][1] = true

	if g.IsOccupied(1, 1) {
		t.Error("mutating a snapshot must not affect the grid")
	}
	if !snap[0][0] {
		t.Error("snapshot should reflect occupied cells")
	}
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"same cell", Span{0, 0, 1, 1}, Span{0, 0, 1, 1}, true},
		{"adjacent columns", Span{0, 0, 1, 1}, Span{0, 1, 1, 1}, false},
		{"adjacent rows", Span{0, 0, 1, 2}, Span{1, 0, 1, 2}, false},
		{"wide covers cell", Span{0, 0, 1, 2}, Span{0, 1, 1, 1}, true},
		{"cover block", Span{0, 0, 2, 2}, Span{1, 1, 1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %v, %v", tt.a, tt.b)
			}
		})
	}
}

func TestSpanString(t *testing.T) {
	if got := (Span{Row: 0, Col: 1, RowSpan: 1, ColSpan: 2}).String(); got != "0,1 1x2" {
		t.Errorf("String() = %q", got)
	}
}
