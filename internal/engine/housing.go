// Housing — each morning homeless villagers move into houses with room to spare.
package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/world"
)

// DefaultHouseCapacity is how many villagers one house holds.
const DefaultHouseCapacity = 4

// LivingSpace counts the residents of a house against its room.
type LivingSpace struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Free returns how many more residents fit.
func (l LivingSpace) Free() int { return l.Max - l.Current }

// House is the residence state of a house entity.
type House struct {
	Space     LivingSpace      `json:"space"`
	Residents []world.EntityID `json:"residents"`
}

func (h *House) moveIn(id world.EntityID) {
	h.Residents = append(h.Residents, id)
	h.Space.Current++
	if h.Space.Current > h.Space.Max {
		panic(fmt.Sprintf("house over capacity: %d/%d", h.Space.Current, h.Space.Max))
	}
}

func (h *House) evict(id world.EntityID) {
	i := slices.Index(h.Residents, id)
	if i < 0 {
		return
	}
	h.Residents = slices.Delete(h.Residents, i, i+1)
	h.Space.Current--
}

// settleHomeless moves homeless villagers into houses with free room, lowest
// ids first on both sides.
func (s *Simulation) settleHomeless() {
	houses := s.world.IDs(world.KindHouse)
	next := 0
	for _, id := range s.agentIDs() {
		a := s.agents[id]
		if !a.Homeless() {
			continue
		}
		for next < len(houses) && s.houses[houses[next]].Space.Free() <= 0 {
			next++
		}
		if next == len(houses) {
			return
		}
		h := s.houses[houses[next]]
		h.moveIn(id)
		a.Home = houses[next]
		s.publish(events.CategoryVillage, id, "%s moved into house %s", a.Name, houses[next])
	}
}
