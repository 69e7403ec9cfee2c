// Plant life — trees grow toward full size and scatter saplings around them.
package engine

import (
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/world"
)

// PlantParams tunes tree growth and seeding.
type PlantParams struct {
	GrowthPerSecond float64 // Size gained per second of step time
	MaxSize         float64
	MatureSize      float64 // Smallest tree worth cutting
	SeedsPerSecond  float64 // Upper bound of the uniform seed rate
	Survival        float64 // Chance a seed becomes a sapling
	Spread          float64 // Side of the square saplings land in
	MaxTrees        int
	MinFertility    float64 // Saplings die on poorer land
}

// DefaultPlantParams returns the stock tuning.
func DefaultPlantParams() PlantParams {
	return PlantParams{
		GrowthPerSecond: 0.1,
		MaxSize:         1.0,
		MatureSize:      0.5,
		SeedsPerSecond:  1.0,
		Survival:        0.01,
		Spread:          20,
		MaxTrees:        400,
		MinFertility:    0.2,
	}
}

// Tree is the growth state of a tree entity.
type Tree struct {
	Size  float64 `json:"size"`
	seeds float64 // Fractional seeds carried between steps
}

// Mature reports whether the tree is big enough to cut.
func (t *Tree) Mature(p PlantParams) bool {
	return t.Size >= p.MatureSize
}

func (s *Simulation) plantLocked(pos world.Vec2, size float64) world.EntityID {
	id := s.world.Spawn(world.KindTree, pos)
	s.trees[id] = &Tree{Size: min(size, s.params.Plants.MaxSize)}
	return id
}

// growPlants grows every tree by dt and plants the saplings that survive.
func (s *Simulation) growPlants(dt time.Duration) {
	p := s.params.Plants
	secs := dt.Seconds()

	var saplings []world.Vec2
	for _, id := range s.world.IDs(world.KindTree) {
		t := s.trees[id]
		if t == nil {
			continue
		}
		t.Size = min(p.MaxSize, t.Size+p.GrowthPerSecond*secs)

		t.seeds += s.rng.Float64() * p.SeedsPerSecond * secs
		whole := int(t.seeds)
		if whole == 0 {
			continue
		}
		t.seeds -= float64(whole)

		survivors := int(distuv.Binomial{N: float64(whole), P: p.Survival}.Rand())
		parent, _ := s.world.Position(id)
		for range survivors {
			saplings = append(saplings, s.saplingSpot(parent))
		}
	}

	for _, pos := range saplings {
		if len(s.trees) >= p.MaxTrees {
			break
		}
		if !s.params.Bounds.Contains(pos) || !s.fertile(pos) {
			continue
		}
		s.plantLocked(pos, 0)
		s.publish(events.CategoryNature, 0, "a sapling sprouted at %s", pos)
	}
}

func (s *Simulation) saplingSpot(parent world.Vec2) world.Vec2 {
	half := s.params.Plants.Spread / 2
	return world.Vec2{
		X: parent.X + (s.rng.Float64()*2-1)*half,
		Y: parent.Y + (s.rng.Float64()*2-1)*half,
	}
}

func (s *Simulation) fertile(pos world.Vec2) bool {
	if s.land == nil {
		return true
	}
	tile := s.land.TileAt(pos)
	return tile == nil || tile.Fertility >= s.params.Plants.MinFertility
}
