package game

import "math"

// GridCell is one cell of the danger map.
type GridCell struct {
	Solid           bool    `json:"solid"`
	DangerLevel     float64 `json:"danger_level"` // fraction of the 8 neighbors that are solid
	EscapeDirection Vec2    `json:"escape_direction"`
	HasEscape       bool    `json:"has_escape"`
}

// CollisionGrid is a danger map rasterized from wall geometry once per level.
// It is read-only after BuildCollisionGrid returns; a level change replaces
// the whole grid.
//
// Every tick the ball's cell is looked up and, if it sits in a tight crevice,
// the ball is nudged toward open space before the narrow phase runs.
type CollisionGrid struct {
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cols        int
	rows        int
	cells       []GridCell
}

// BuildCollisionGrid rasterizes the walls into a grid covering width × height.
func BuildCollisionGrid(walls []*Wall, width, height, cellSize float64) *CollisionGrid {
	if cellSize <= 0 {
		cellSize = GridCellSize
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g := &CollisionGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]GridCell, cols*rows),
	}

	for _, w := range walls {
		for _, p := range w.samplePoints(cellSize / 2) {
			g.markSolid(p)
		}
	}
	g.computeDanger()
	g.computeEscapes()

	return g
}

// markSolid marks the 3×3 neighborhood around p, a cheap stand-in for wall thickness.
func (g *CollisionGrid) markSolid(p Vec2) {
	col, row, ok := g.posToCell(p)
	if !ok {
		return
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if c, r := col+dc, row+dr; g.inBounds(c, r) {
				g.cells[r*g.cols+c].Solid = true
			}
		}
	}
}

func (g *CollisionGrid) computeDanger() {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			solid := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					if c, r := col+dc, row+dr; g.inBounds(c, r) && g.cells[r*g.cols+c].Solid {
						solid++
					}
				}
			}
			g.cells[row*g.cols+col].DangerLevel = float64(solid) / 8
		}
	}
}

// computeEscapes points every dangerous cell at the least dangerous open
// cell within GridEscapeRadius, preferring nearer cells on ties.
func (g *CollisionGrid) computeEscapes() {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			cell := &g.cells[row*g.cols+col]
			if cell.DangerLevel <= GridDangerThreshold {
				continue
			}

			bestDanger := cell.DangerLevel
			bestDist := math.Inf(1)
			var best Vec2
			found := false

			for dr := -GridEscapeRadius; dr <= GridEscapeRadius; dr++ {
				for dc := -GridEscapeRadius; dc <= GridEscapeRadius; dc++ {
					c, r := col+dc, row+dr
					if (dr == 0 && dc == 0) || !g.inBounds(c, r) {
						continue
					}
					other := g.cells[r*g.cols+c]
					if other.Solid {
						continue
					}
					dist := float64(dc*dc + dr*dr)
					if other.DangerLevel < bestDanger || (found && other.DangerLevel == bestDanger && dist < bestDist) {
						bestDanger, bestDist = other.DangerLevel, dist
						best = Vec2{X: float64(dc), Y: float64(dr)}
						found = true
					}
				}
			}

			if found {
				cell.EscapeDirection = best.Normalize()
				cell.HasEscape = true
			}
		}
	}
}

// Correct nudges a ball sitting in an open but crowded cell, such as a narrow
// crevice, toward its escape direction. It reports whether a
// nudge was applied.
func (g *CollisionGrid) Correct(b *Ball) bool {
	cell, ok := g.CellAt(b.Position)
	if !ok || cell.Solid || cell.DangerLevel <= GridNudgeThreshold || !cell.HasEscape {
		return false
	}
	b.Velocity = b.Velocity.Plus(cell.EscapeDirection.Times(cell.DangerLevel * GridNudgeStrength))
	return true
}

// CellAt returns the cell containing p, or false outside the grid.
func (g *CollisionGrid) CellAt(p Vec2) (GridCell, bool) {
	col, row, ok := g.posToCell(p)
	if !ok {
		return GridCell{}, false
	}
	return g.cells[row*g.cols+col], true
}

// Cell returns the cell at grid coordinates.
func (g *CollisionGrid) Cell(col, row int) (GridCell, bool) {
	if !g.inBounds(col, row) {
		return GridCell{}, false
	}
	return g.cells[row*g.cols+col], true
}

// Size returns the grid dimensions in cells.
func (g *CollisionGrid) Size() (cols, rows int) {
	return g.cols, g.rows
}

func (g *CollisionGrid) inBounds(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// posToCell converts table coordinates to grid cell coordinates.
func (g *CollisionGrid) posToCell(p Vec2) (col, row int, ok bool) {
	if p.X < 0 || p.Y < 0 {
		return 0, 0, false
	}
	col = int(p.X * g.invCellSize)
	row = int(p.Y * g.invCellSize)
	if col >= g.cols || row >= g.rows {
		return 0, 0, false
	}
	return col, row, true
}
