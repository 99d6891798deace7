package main

import "math"

const (
	SpatialCellSize   = 8.0   // a little over 2x the largest collider radius
	SpatialHalfExtent = 104.0 // covers the despawn radius around the origin
	SpatialCols       = 26    // 2*SpatialHalfExtent / SpatialCellSize
	SpatialRows       = 26
)

// SpatialGrid is a fixed-size grid over the X/Z plane, centered on the
// origin, used as a broad phase for collision queries. Anything outside the
// covered square lands in the edge cells.
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]EntityID
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func cellCoord(v float64, n int) int {
	c := int(math.Floor((v + SpatialHalfExtent) / SpatialCellSize))
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

func cellSpan(p Vec3, radius float64) (minCX, maxCX, minCZ, maxCZ int) {
	minCX = cellCoord(p.X-radius, SpatialCols)
	maxCX = cellCoord(p.X+radius, SpatialCols)
	minCZ = cellCoord(p.Z-radius, SpatialRows)
	maxCZ = cellCoord(p.Z+radius, SpatialRows)
	return
}

// InsertCircle adds id to every cell its bounding square touches
func (g *SpatialGrid) InsertCircle(p Vec3, radius float64, id EntityID) {
	minCX, maxCX, minCZ, maxCZ := cellSpan(p, radius)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cz*SpatialCols + cx
			g.cells[idx] = append(g.cells[idx], id)
		}
	}
}

// QueryBuf appends the ids in every cell the given bounding square touches.
// An id that spans several cells is appended once per shared cell.
func (g *SpatialGrid) QueryBuf(p Vec3, radius float64, buf []EntityID) []EntityID {
	minCX, maxCX, minCZ, maxCZ := cellSpan(p, radius)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cz*SpatialCols+cx]...)
		}
	}
	return buf
}
