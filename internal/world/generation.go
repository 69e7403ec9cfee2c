// World generation: a hex land grid with simplex fertility, trees scattered over
// fertile ground, and the village start area holding villagers, houses and the
// storage stockpile.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width         float64 // World rectangle width
	Height        float64 // World rectangle height
	HexSize       float64 // Land tile size
	Seed          int64
	Trees         int     // Initial tree count
	Villagers     int     // Initial villager count
	Houses        int     // Initial house count
	StartArea     float64 // Side of the square the village starts in
	StartPos      Vec2    // Center of the village start area
	MaxPlaceTries int     // Rejection-sampling attempts per tree
}

// DefaultGenConfig returns the starting village layout.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:         1200,
		Height:        800,
		HexSize:       16,
		Seed:          0,
		Trees:         36,
		Villagers:     8,
		Houses:        2,
		StartArea:     100,
		StartPos:      Vec2{X: 600, Y: 400},
		MaxPlaceTries: 32,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:         200,
		Height:        200,
		HexSize:       10,
		Seed:          42,
		Trees:         6,
		Villagers:     2,
		Houses:        1,
		StartArea:     40,
		StartPos:      Vec2{X: 100, Y: 100},
		MaxPlaceTries: 16,
	}
}

// TreeSeed is a tree to be planted at world creation.
type TreeSeed struct {
	Pos  Vec2
	Size float64 // 0.0 (sapling) to 1.0 (grown)
}

// Layout is the generated world, ready to be turned into entities.
type Layout struct {
	Bounds    Rect
	Grid      *LandGrid
	Trees     []TreeSeed
	Villagers []Vec2
	Houses    []Vec2
	Storage   Vec2
}

// Generate lays out a world from cfg. The same seed yields the same layout.
func Generate(cfg GenConfig) *Layout {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	noise := opensimplex.NewNormalized(seed)

	bounds := RectFromOrigin(cfg.Width, cfg.Height)
	grid := NewLandGrid(bounds, cfg.HexSize)
	for i := range grid.Tiles {
		t := &grid.Tiles[i]
		t.Fertility = octaveNoise(noise, t.Center.X, t.Center.Y, 3, 0.01, 0.5)
	}

	l := &Layout{Bounds: bounds, Grid: grid}

	for i := 0; i < cfg.Trees; i++ {
		l.Trees = append(l.Trees, TreeSeed{
			Pos:  placeFertile(rng, grid, bounds, cfg.MaxPlaceTries),
			Size: rng.Float64(),
		})
	}

	start := Rect{Center: cfg.StartPos, Size: Vec2{X: cfg.StartArea, Y: cfg.StartArea}}
	for i := 0; i < cfg.Villagers; i++ {
		l.Villagers = append(l.Villagers, bounds.Clamp(start.RandomPoint(rng)))
	}
	for i := 0; i < cfg.Houses; i++ {
		l.Houses = append(l.Houses, bounds.Clamp(start.RandomPoint(rng)))
	}
	l.Storage = bounds.Clamp(start.RandomPoint(rng))

	return l
}

// placeFertile picks a random point, accepting it with probability equal to
// the fertility of the tile under it. After tries rejections the last
// candidate is used.
func placeFertile(rng *rand.Rand, grid *LandGrid, bounds Rect, tries int) Vec2 {
	p := bounds.RandomPoint(rng)
	for i := 0; i < tries; i++ {
		t := grid.TileAt(p)
		if t != nil && rng.Float64() < t.Fertility {
			return p
		}
		p = bounds.RandomPoint(rng)
	}
	return p
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// MeanFertility returns the average fertility over the grid.
func MeanFertility(g *LandGrid) float64 {
	if len(g.Tiles) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range g.Tiles {
		sum += t.Fertility
	}
	return sum / float64(len(g.Tiles))
}
