// Package grid implements the occupancy grid at the heart of the slide layout
// engine.
//
// # Overview
//
// A slide is a fixed-size [Canvas] split into Rows × Cols equally sized cells
// separated by constant gaps. This package provides the four building blocks
// the orchestrator in package layout composes:
//
//   - Geometry: [Canvas.BlockSize] and [Canvas.CellRect] convert grid
//     coordinates into absolute rectangles (in the canvas unit, inches by
//     default).
//   - Occupancy: [Grid] tracks which cells are taken and answers free-space
//     queries via [Grid.IsFree], [Grid.Occupy], [Grid.IsFull] and [Grid.Reset].
//   - Slot search: [FindFreeSpot] scans a grid row-major and reserves the first
//     free rectangular [Span] of the requested size.
//   - Image fit: [Fit] computes the largest aspect-preserving rectangle that
//     fits a bounding box.
//
// # Geometry
//
// For a canvas of width W, height H, gaps gx/gy and a rows × cols grid:
//
//	blockW = (W - gx*(cols+1)) / cols
//	blockH = (H - gy*(rows+1)) / rows
//
// A span starting at (row, col) covering rowSpan × colSpan cells sits at
//
//	x = gx + col*(blockW+gx)
//	y = gy + row*(blockH+gy)
//	w = blockW*colSpan + gx*(colSpan-1)
//	h = blockH*rowSpan + gy*(rowSpan-1)
//
// so merged cells absorb the gaps between them.
//
// # Determinism
//
// [FindFreeSpot] always returns the top-most, then left-most free position.
// Packing is not optimal, but identical inputs always produce identical
// placements.
//
//	g := grid.New(4, 4)
//	span, ok := grid.FindFreeSpot(g, 1, 2) // (0,0) 1x2, now reserved
//	rect := grid.DefaultCanvas().CellRect(span)
package grid
