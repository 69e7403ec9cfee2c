// Package agents provides the villager data model and the spawner that
// creates villagers at world generation.
package agents

import (
	"github.com/talgya/mini-village/internal/economy"
	"github.com/talgya/mini-village/internal/movement"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

// Agent is a mobile villager. Its position lives in the world registry under
// ID; everything else it owns is here.
type Agent struct {
	ID   world.EntityID `json:"id"`
	Name string         `json:"name"`

	// Kinematics and the current travel order, nil when standing still.
	Walker movement.Walker  `json:"walker"`
	Travel movement.Travel `json:"-"`

	// Work. Tasks is nil until the maintenance pass hands out a queue.
	Worker  bool             `json:"worker"` // Can hold tasks
	Tasks   *tasks.Queue     `json:"-"`
	Carrier *economy.Carrier `json:"carrier,omitempty"`

	// Housing.
	Home world.EntityID `json:"home,omitempty"`

	BornTick uint64 `json:"born_tick"`
}

// Homeless reports whether the agent has no residence.
func (a *Agent) Homeless() bool {
	return a.Home.IsNull()
}

// Idle reports whether the agent has nothing but wandering to do.
func (a *Agent) Idle() bool {
	front, ok := a.Tasks.Front()
	if !ok {
		return true
	}
	_, wandering := front.(tasks.Wander)
	return wandering && a.Tasks.Len() == 1
}
