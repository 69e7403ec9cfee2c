package world

import "fmt"

// Tile is one hexagon of the land grid.
type Tile struct {
	Column    int     `json:"column"`
	Row       int     `json:"row"`
	Center    Vec2    `json:"center"`
	Fertility float64 `json:"fertility"` // 0.0 (barren) to 1.0 (lush)
}

// LandGrid is the hex tiling that covers the world rectangle.
type LandGrid struct {
	Layout  HexLayout
	Columns int
	Rows    int
	Tiles   []Tile // Row-major
}

// NewLandGrid tiles the given bounds with hexagons of the given size.
func NewLandGrid(bounds Rect, hexSize float64) *LandGrid {
	layout := HexLayout{Size: hexSize}
	cols, rows := layout.ColumnsRows(bounds.Size.X, bounds.Size.Y)
	g := &LandGrid{
		Layout:  layout,
		Columns: cols,
		Rows:    rows,
		Tiles:   make([]Tile, 0, cols*rows),
	}
	for i := 0; i < cols*rows; i++ {
		col, row := i%cols, i/cols
		g.Tiles = append(g.Tiles, Tile{
			Column: col,
			Row:    row,
			Center: layout.Center(col, row).Add(bounds.Min()),
		})
	}
	return g
}

// Get returns the tile at column, row, or nil if out of range.
func (g *LandGrid) Get(column, row int) *Tile {
	if column < 0 || column >= g.Columns || row < 0 || row >= g.Rows {
		return nil
	}
	return &g.Tiles[row*g.Columns+column]
}

// TileAt returns the tile covering p, or nil outside the grid.
func (g *LandGrid) TileAt(p Vec2) *Tile {
	if len(g.Tiles) == 0 {
		return nil
	}
	origin := g.Tiles[0].Center.Sub(g.Layout.Center(0, 0))
	col, row := g.Layout.Nearest(p.Sub(origin))
	return g.Get(col, row)
}

// TileCount returns the number of tiles.
func (g *LandGrid) TileCount() int {
	return len(g.Tiles)
}

// String returns a summary of the grid.
func (g *LandGrid) String() string {
	return fmt.Sprintf("LandGrid(%dx%d, hex=%.1f)", g.Columns, g.Rows, g.Layout.Size)
}
