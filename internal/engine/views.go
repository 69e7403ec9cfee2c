package engine

import (
	"fmt"

	"github.com/talgya/mini-village/internal/economy"
	"github.com/talgya/mini-village/internal/movement"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

// Status is a point-in-time summary of the village.
type Status struct {
	Tick  uint64   `json:"tick"`
	Time  string   `json:"time"`
	Day   uint64   `json:"day"`
	Hour  int      `json:"hour"`
	Night bool     `json:"night"`
	Stats SimStats `json:"stats"`
}

// VillagerView is a copy of one villager's state.
type VillagerView struct {
	ID          world.EntityID  `json:"id"`
	Name        string          `json:"name"`
	Position    world.Vec2      `json:"position"`
	Speed       float64         `json:"speed"`
	MaxSpeed    float64         `json:"max_speed"`
	Travel      string          `json:"travel"`
	Destination *world.Vec2     `json:"destination,omitempty"`
	Tasks       []tasks.Spec    `json:"tasks"`
	Carrier     economy.Carrier `json:"carrier"`
	Home        world.EntityID  `json:"home,omitempty"`
}

// TreeView is a copy of one tree's state.
type TreeView struct {
	ID       world.EntityID `json:"id"`
	Position world.Vec2     `json:"position"`
	Size     float64        `json:"size"`
	Mature   bool           `json:"mature"`
}

// StorageView is a copy of the village storage.
type StorageView struct {
	ID       world.EntityID `json:"id"`
	Position world.Vec2     `json:"position"`
	Wood     float64        `json:"wood"`
}

// Status returns the current village summary.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Villagers = len(s.agents)
	st.Trees = len(s.trees)
	st.Houses = len(s.houses)
	st.Traveling, st.Homeless, st.CarriedWood = 0, 0, 0
	for _, a := range s.agents {
		if a.Travel != nil {
			st.Traveling++
		}
		if a.Homeless() {
			st.Homeless++
		}
		if a.Carrier != nil {
			st.CarriedWood += a.Carrier.Wood
		}
	}
	st.StoredWood = 0
	if s.storage != nil {
		st.StoredWood = s.storage.Wood
	}
	return Status{
		Tick:  s.lastTick,
		Time:  s.clock.String(),
		Day:   s.clock.Day,
		Hour:  s.clock.Hour(),
		Night: s.clock.IsNight(),
		Stats: st,
	}
}

// Villagers returns every villager ordered by id.
func (s *Simulation) Villagers() []VillagerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.agentIDs()
	out := make([]VillagerView, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.villagerView(id))
	}
	return out
}

// Villager returns one villager.
func (s *Simulation) Villager(id world.EntityID) (VillagerView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agents[id] == nil {
		return VillagerView{}, fmt.Errorf("villager %s: %w", id, world.ErrUnknownEntity)
	}
	return s.villagerView(id), nil
}

func (s *Simulation) villagerView(id world.EntityID) VillagerView {
	a := s.agents[id]
	pos, _ := s.world.Position(id)
	v := VillagerView{
		ID:       id,
		Name:     a.Name,
		Position: pos,
		Speed:    a.Walker.Speed,
		MaxSpeed: a.Walker.MaxSpeed,
		Travel:   movement.Describe(a.Travel),
		Tasks:    []tasks.Spec{},
		Home:     a.Home,
	}
	if dest, ok := movement.Destination(a.Travel); ok {
		v.Destination = &dest
	}
	for _, t := range a.Tasks.Tasks() {
		v.Tasks = append(v.Tasks, tasks.ToSpec(t))
	}
	if a.Carrier != nil {
		v.Carrier = *a.Carrier
	}
	return v
}

// Trees returns every tree ordered by id.
func (s *Simulation) Trees() []TreeView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.world.IDs(world.KindTree)
	out := make([]TreeView, 0, len(ids))
	for _, id := range ids {
		t := s.trees[id]
		pos, _ := s.world.Position(id)
		out = append(out, TreeView{ID: id, Position: pos, Size: t.Size, Mature: t.Mature(s.params.Plants)})
	}
	return out
}

// Storage returns the village storage, or ErrNoStorage.
func (s *Simulation) Storage() (StorageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, id, err := s.storageLocked()
	if err != nil {
		return StorageView{}, err
	}
	pos, _ := s.world.Position(id)
	return StorageView{ID: id, Position: pos, Wood: store.Wood}, nil
}

// Position returns where an entity stands.
func (s *Simulation) Position(id world.EntityID) (world.Vec2, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world.Position(id)
}
