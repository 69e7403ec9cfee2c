// Villager spawning — gives each new villager a name, walking ability and a
// wood carrier.
package agents

import (
	"math/rand"

	"github.com/talgya/mini-village/internal/economy"
	"github.com/talgya/mini-village/internal/movement"
	"github.com/talgya/mini-village/internal/world"
)

// SpawnConfig controls villager attributes.
type SpawnConfig struct {
	Acceleration  float64 // Mean acceleration, distance per sim-hour²
	MaxSpeed      float64 // Mean top speed, distance per sim-hour
	Variation     float64 // Relative spread around the means, 0.0–1.0
	CarryCapacity float64 // Wood a villager can carry
}

// DefaultSpawnConfig returns the stock villager attributes.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Acceleration:  20000,
		MaxSpeed:      2000,
		Variation:     0.2,
		CarryCapacity: 5,
	}
}

// Spawner creates villagers for the simulation.
type Spawner struct {
	rng *rand.Rand
	cfg SpawnConfig
}

// NewSpawner creates a villager spawner with the given seed.
func NewSpawner(seed int64, cfg SpawnConfig) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed + 300)),
		cfg: cfg,
	}
}

// Spawn creates a working villager bound to an already registered entity.
func (s *Spawner) Spawn(id world.EntityID, tick uint64) *Agent {
	return &Agent{
		ID:   id,
		Name: s.generateName(),
		Walker: movement.Walker{
			Acceleration: s.jitter(s.cfg.Acceleration),
			MaxSpeed:     s.jitter(s.cfg.MaxSpeed),
		},
		Worker:   true,
		Carrier:  economy.NewCarrier(s.cfg.CarryCapacity),
		BornTick: tick,
	}
}

// jitter spreads v uniformly by ±Variation.
func (s *Spawner) jitter(v float64) float64 {
	return v * (1 + s.cfg.Variation*(2*s.rng.Float64()-1))
}

func (s *Spawner) generateName() string {
	firsts := maleNames
	if s.rng.Float32() < 0.5 {
		firsts = femaleNames
	}
	first := firsts[s.rng.Intn(len(firsts))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
	"Dorian", "Edric", "Falk", "Gunnar", "Hugo", "Ivar", "Jorik",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
	"Eira", "Fern", "Gwen", "Hilde", "Inga", "Johanna", "Katla",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Copperfield", "Ravenmoor", "Silverdale", "Wolfsbane", "Stoneheart",
	"Deepwell", "Brightwater", "Oakenshield", "Redforge", "Windholm",
	"Marshwood", "Goldhaven", "Nightingale", "Riverstone", "Steelworth",
	"Embercroft", "Holloway", "Dawnridge", "Farrow", "Wyatt", "Thatcher",
	"Briar", "Caldwell", "Frost", "Harper", "Mercer", "Ward", "Cross",
}
