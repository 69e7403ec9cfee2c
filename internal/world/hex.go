// Package world provides geometry, the entity registry, the hex land grid and
// world generation for the village simulation.
package world

import "math"

// HexLayout places flat-topped hexagons in offset rows: even rows are shifted
// by one and a half hex sizes, and each row advances by half a hex height.
type HexLayout struct {
	Size float64 // Center-to-corner distance
}

// Height returns the flat-to-flat height of one hexagon.
func (l HexLayout) Height() float64 { return math.Sqrt(3) * l.Size }

// Center returns the world position of the tile at column, row.
func (l HexLayout) Center(column, row int) Vec2 {
	x := float64(column) * l.Size * 3
	if isEven(row) {
		x += l.Size * 1.5
	}
	return Vec2{X: x, Y: float64(row) * l.Height() / 2}
}

// ColumnsRows returns how many columns and rows cover a width x height area.
func (l HexLayout) ColumnsRows(width, height float64) (int, int) {
	cols := int(math.Ceil(width / (3 * l.Size)))
	rows := int(math.Ceil(2*height/l.Height())) + 1
	return cols, rows
}

// Nearest returns the column and row of the tile whose center is closest to p.
func (l HexLayout) Nearest(p Vec2) (int, int) {
	row := int(math.Round(p.Y / (l.Height() / 2)))
	bestCol, bestRow := 0, row
	best := math.Inf(1)
	for r := row - 1; r <= row+1; r++ {
		off := 0.0
		if isEven(r) {
			off = l.Size * 1.5
		}
		col := int(math.Round((p.X - off) / (3 * l.Size)))
		for c := col - 1; c <= col+1; c++ {
			if d := Distance(p, l.Center(c, r)); d < best {
				best, bestCol, bestRow = d, c, r
			}
		}
	}
	return bestCol, bestRow
}

func isEven(v int) bool {
	return ((v%2)+2)%2 == 0
}
