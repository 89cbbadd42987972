package battle

import "math"

// Broad-phase tuning. Cells comfortably larger than the biggest hurtbox keep
// candidate lists short without missing neighbors.
const (
	collisionCellSize = 64.0
)

type cellKey struct {
	X int
	Y int
}

type aabb struct {
	minX, minY float64
	maxX, maxY float64
}

func (b aabb) center() (float64, float64) {
	return (b.minX + b.maxX) / 2, (b.minY + b.maxY) / 2
}

func (b aabb) union(other aabb) aabb {
	return aabb{
		minX: math.Min(b.minX, other.minX),
		minY: math.Min(b.minY, other.minY),
		maxX: math.Max(b.maxX, other.maxX),
		maxY: math.Max(b.maxY, other.maxY),
	}
}

// spatialGrid is a uniform hash over arena space. Projectiles are
// re-bucketed every tick by their swept bounds; queries return candidate
// indices for any box overlapping the same cells.
type spatialGrid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]int
}

func newSpatialGrid(cellSize float64) *spatialGrid {
	if cellSize <= 0 {
		cellSize = collisionCellSize
	}
	return &spatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]int),
	}
}

func (g *spatialGrid) reset() {
	for key := range g.cells {
		delete(g.cells, key)
	}
}

func (g *spatialGrid) insert(index int, box aabb) {
	minX, minY, maxX, maxY := g.cellRange(box)
	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			key := cellKey{X: col, Y: row}
			g.cells[key] = append(g.cells[key], index)
		}
	}
}

// query appends the indices bucketed in every cell the box covers. Callers
// dedupe; a box spanning multiple cells reports its occupants once per cell.
func (g *spatialGrid) query(box aabb, out []int) []int {
	minX, minY, maxX, maxY := g.cellRange(box)
	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			out = append(out, g.cells[cellKey{X: col, Y: row}]...)
		}
	}
	return out
}

func (g *spatialGrid) cellRange(box aabb) (int, int, int, int) {
	return g.coordToCell(box.minX), g.coordToCell(box.minY),
		g.coordToCell(box.maxX), g.coordToCell(box.maxY)
}

func (g *spatialGrid) coordToCell(value float64) int {
	return int(math.Floor(value * g.invCellSize))
}
