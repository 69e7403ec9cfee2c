// Foreman — hourly during the day, idle villagers are sent to fell the nearest
// grown tree and haul its wood to storage.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

// ForemanParams tunes work assignment.
type ForemanParams struct {
	WoodPerSize float64 // Wood yielded per unit of tree size
}

// DefaultForemanParams returns the stock tuning.
func DefaultForemanParams() ForemanParams {
	return ForemanParams{WoodPerSize: 5}
}

// assignWork hands idle workers a cutting job. Villagers still carrying wood
// are sent to unload first.
func (s *Simulation) assignWork() {
	if s.storage == nil {
		return
	}
	claimed := s.claimedTrees()
	assigned := 0
	for _, id := range s.agentIDs() {
		a := s.agents[id]
		if !a.Worker || !a.Idle() {
			continue
		}
		if a.Carrier != nil && a.Carrier.Wood > 0 {
			s.assignLocked(id, tasks.DropOffResources{})
			assigned++
			continue
		}
		tree, ok := s.nearestTree(a, claimed)
		if !ok {
			continue
		}
		claimed[tree] = true
		yield := s.trees[tree].Size * s.params.Foreman.WoodPerSize
		s.assignLocked(id,
			tasks.CutTarget{Target: tree},
			tasks.PickUpResource{Amount: yield},
			tasks.DropOffResources{},
		)
		assigned++
	}
	if assigned > 0 {
		slog.Debug("foreman assigned work", "villagers", assigned, "time", s.clock.String())
	}
}

// claimedTrees returns every tree some queue already means to cut.
func (s *Simulation) claimedTrees() map[world.EntityID]bool {
	claimed := make(map[world.EntityID]bool)
	for _, a := range s.agents {
		for _, t := range a.Tasks.Tasks() {
			if c, ok := t.(tasks.CutTarget); ok {
				claimed[c.Target] = true
			}
		}
	}
	return claimed
}

func (s *Simulation) nearestTree(a *agents.Agent, claimed map[world.EntityID]bool) (world.EntityID, bool) {
	pos, ok := s.world.Position(a.ID)
	if !ok {
		return 0, false
	}
	var best world.EntityID
	bestDist := math.Inf(1)
	for _, id := range s.world.IDs(world.KindTree) {
		t := s.trees[id]
		if t == nil || claimed[id] || !t.Mature(s.params.Plants) {
			continue
		}
		tp, _ := s.world.Position(id)
		if d := world.Distance(pos, tp); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, !best.IsNull()
}
