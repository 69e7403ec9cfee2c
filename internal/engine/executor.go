// Task executor — attempts each villager's front task and cascades completions
// within the same step.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/economy"
	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/movement"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

// worklist is a FIFO of agents to re-evaluate. An agent is queued at most
// once at a time.
type worklist struct {
	ids    []world.EntityID
	queued map[world.EntityID]bool
}

func newWorklist() *worklist {
	return &worklist{queued: make(map[world.EntityID]bool)}
}

func (w *worklist) add(ids ...world.EntityID) {
	for _, id := range ids {
		if w.queued[id] {
			continue
		}
		w.queued[id] = true
		w.ids = append(w.ids, id)
	}
}

func (w *worklist) next() (world.EntityID, bool) {
	if len(w.ids) == 0 {
		return 0, false
	}
	id := w.ids[0]
	w.ids = w.ids[1:]
	delete(w.queued, id)
	return id, true
}

// runExecutor runs one executor pass over agents whose queue changed and
// agents named by pending Arrival and Recheck notifications.
func (s *Simulation) runExecutor() {
	wl := newWorklist()

	changed := make([]world.EntityID, 0, len(s.changed))
	for id := range s.changed {
		changed = append(changed, id)
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	clear(s.changed)

	wl.add(changed...)
	wl.add(s.bus.Drain(events.Arrival)...)
	wl.add(s.bus.Drain(events.Recheck)...)

	attempts := make(map[world.EntityID]int)
	for {
		id, ok := wl.next()
		if !ok {
			break
		}
		a := s.agents[id]
		if a == nil {
			continue
		}
		front, ok := a.Tasks.Front()
		if !ok {
			continue
		}
		if attempts[id] >= s.params.MaxCascade {
			slog.Warn("task cascade bound reached, deferring",
				"agent", id, "task", tasks.Describe(front), "attempts", attempts[id])
			s.markChanged(id)
			continue
		}
		attempts[id]++

		if s.attempt(a, front) {
			a.Tasks.Pop()
			s.bus.Emit(events.Recheck, id)
		}
		wl.add(s.bus.Drain(events.Recheck)...)
	}
}

// attempt tries to progress t for a. True means t is complete.
func (s *Simulation) attempt(a *agents.Agent, t tasks.Task) bool {
	switch t := t.(type) {
	case tasks.CutTarget:
		return s.attemptCut(a, t.Target)
	case tasks.PickUpResource:
		return s.attemptPickUp(a, t.Amount)
	case tasks.DropOffResources:
		return s.attemptDropOff(a)
	case tasks.Wander:
		s.attemptWander(a)
		return false
	}
	panic(fmt.Sprintf("engine: agent %s holds unknown task %T", a.ID, t))
}

func (s *Simulation) attemptCut(a *agents.Agent, target world.EntityID) bool {
	targetPos, ok := s.world.Position(target)
	if !ok {
		// Already gone: nothing left to cut.
		s.dropTravelTo(a, target)
		slog.Debug("cut target gone", "agent", a.ID, "target", target)
		return true
	}
	if !s.near(a.ID, targetPos) {
		s.travelTo(a, target)
		return false
	}

	var size float64
	if tr := s.trees[target]; tr != nil {
		size = tr.Size
	}
	if err := s.removeLocked(target); err != nil {
		slog.Error("cut failed", "agent", a.ID, "target", target, "error", err)
		return false
	}
	s.dropTravelTo(a, target)
	s.stats.TreesCut++
	s.publish(events.CategoryWork, a.ID, "%s cut down a tree of size %.2f", a.Name, size)
	return true
}

func (s *Simulation) attemptPickUp(a *agents.Agent, amount float64) bool {
	if a.Carrier == nil {
		return true
	}
	got := economy.PickUp(a.Carrier, amount)
	slog.Debug("picked up wood", "agent", a.ID, "requested", amount, "taken", got)
	return true
}

func (s *Simulation) attemptDropOff(a *agents.Agent) bool {
	if a.Carrier == nil {
		return true
	}
	store, storeID, err := s.storageLocked()
	if err != nil {
		slog.Debug("drop-off waiting", "agent", a.ID, "error", err)
		return false
	}
	storePos, _ := s.world.Position(storeID)
	if !s.near(a.ID, storePos) {
		s.travelTo(a, storeID)
		return false
	}
	moved := economy.Deposit(a.Carrier, store)
	s.dropTravelTo(a, storeID)
	if moved > 0 {
		s.stats.Deposits++
		s.publish(events.CategoryStorage, a.ID, "%s stored %.1f wood (total %.1f)", a.Name, moved, store.Wood)
	}
	return true
}

func (s *Simulation) attemptWander(a *agents.Agent) {
	if _, ok := a.Travel.(*movement.ToPosition); ok {
		return
	}
	a.Travel = &movement.ToPosition{Dest: s.params.Bounds.RandomPoint(s.rng)}
}

// travelTo installs a travel order toward target, keeping an existing one
// that already tracks it.
func (s *Simulation) travelTo(a *agents.Agent, target world.EntityID) {
	if tt, ok := a.Travel.(*movement.ToTarget); ok && tt.Target == target {
		return
	}
	a.Travel = movement.NewToTarget(target)
}

// dropTravelTo clears a travel order tracking target.
func (s *Simulation) dropTravelTo(a *agents.Agent, target world.EntityID) {
	if tt, ok := a.Travel.(*movement.ToTarget); ok && tt.Target == target {
		a.Travel = nil
		a.Walker.Speed = 0
	}
}

func (s *Simulation) near(id world.EntityID, p world.Vec2) bool {
	pos, ok := s.world.Position(id)
	return ok && world.Near(pos, p, s.params.ProximityRadius)
}
