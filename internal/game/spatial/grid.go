// Package spatial provides a uniform grid for broad-phase queries against
// static map geometry on the horizontal (XZ) plane.
//
// The grid stores integer indices into the caller's own slice, never
// pointers, and reuses a scratch buffer for query results.
package spatial

import (
	"math"
)

// Grid buckets rectangles into fixed-size cells. A rectangle is recorded in
// every cell its footprint overlaps, so queries only look at the cells the
// query circle touches.
//
// Coordinates are world units with the origin at the map center; the grid
// covers [-halfWidth, halfWidth] x [-halfDepth, halfDepth]. Anything outside
// is clamped to the border cells.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col]).
type Grid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	originX     float64
	originZ     float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
	seen        []uint32 // per-entity query stamp for deduplication
	stamp       uint32
	count       int
}

// NewGrid creates a grid for a width x depth world centered on the origin.
func NewGrid(width, depth, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	for i := range cells {
		cells[i] = make([]uint32, 0, 4)
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		originX:     -width / 2,
		originZ:     -depth / 2,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 32),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0] // Keep capacity, reset length
	}
	g.count = 0
}

// InsertRect records id in every cell overlapped by the rectangle
// [minX,maxX] x [minZ,maxZ].
func (g *Grid) InsertRect(id uint32, minX, minZ, maxX, maxZ float64) {
	c0, r0 := g.cellCoords(minX, minZ)
	c1, r1 := g.cellCoords(maxX, maxZ)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], id)
		}
	}

	if int(id) >= len(g.seen) {
		grown := make([]uint32, id+1)
		copy(grown, g.seen)
		g.seen = grown
	}
	g.count++
}

// cellCoords maps a world point to its clamped (col, row).
func (g *Grid) cellCoords(x, z float64) (int, int) {
	col := int(math.Floor((x - g.originX) * g.invCellSize))
	row := int(math.Floor((z - g.originZ) * g.invCellSize))

	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// QueryRadius returns every id whose rectangle may lie within radius of
// (cx, cz). Each id appears once.
//
// IMPORTANT: The returned slice is reused on subsequent calls and the grid
// is not safe for concurrent queries. Candidates still need a narrow-phase
// test.
func (g *Grid) QueryRadius(cx, cz, radius float64) []uint32 {
	g.scratch = g.scratch[:0]
	g.stamp++
	if g.stamp == 0 {
		// Stamp wrapped; clear so stale marks cannot collide.
		for i := range g.seen {
			g.seen[i] = 0
		}
		g.stamp = 1
	}

	c0, r0 := g.cellCoords(cx-radius, cz-radius)
	c1, r1 := g.cellCoords(cx+radius, cz+radius)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				if g.seen[id] == g.stamp {
					continue
				}
				g.seen[id] = g.stamp
				g.scratch = append(g.scratch, id)
			}
		}
	}

	return g.scratch
}

// QueryCell returns the ids recorded in the cell containing (x, z).
func (g *Grid) QueryCell(x, z float64) []uint32 {
	col, row := g.cellCoords(x, z)
	return g.cells[row*g.cols+col]
}

// Stats returns grid statistics for debugging/profiling.
func (g *Grid) Stats() GridStats {
	var entries, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		n := len(cell)
		entries += n
		if n > maxInCell {
			maxInCell = n
		}
		if n > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(entries) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		Rects:          g.count,
		CellEntries:    entries,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int     `json:"totalCells"`
	NonEmptyCells  int     `json:"nonEmptyCells"`
	Rects          int     `json:"rects"`
	CellEntries    int     `json:"cellEntries"`
	MaxInCell      int     `json:"maxInCell"`
	AvgPerNonEmpty float64 `json:"avgPerNonEmpty"`
}

// Dimensions returns the grid dimensions.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
