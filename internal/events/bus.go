// Package events carries notifications between simulation systems and the
// chronicle of notable happenings published to observers.
package events

import "github.com/talgya/mini-village/internal/world"

// Signal is the kind of a same-tick notification.
type Signal uint8

const (
	// Arrival: a travel order delivered the agent to its destination.
	Arrival Signal = iota + 1
	// Recheck: the agent's front task should be re-evaluated now.
	Recheck
)

// Notification addresses a signal to one agent.
type Notification struct {
	Signal Signal
	Agent  world.EntityID
}

// Bus queues notifications until the consuming system drains them. It is
// owned by the simulation step and is not safe for concurrent use.
type Bus struct {
	pending []Notification
}

// Emit queues a notification.
func (b *Bus) Emit(sig Signal, agent world.EntityID) {
	b.pending = append(b.pending, Notification{Signal: sig, Agent: agent})
}

// Drain removes and returns the agents of every pending notification of the
// given signal, in emission order.
func (b *Bus) Drain(sig Signal) []world.EntityID {
	var out []world.EntityID
	kept := b.pending[:0]
	for _, n := range b.pending {
		if n.Signal == sig {
			out = append(out, n.Agent)
		} else {
			kept = append(kept, n)
		}
	}
	b.pending = kept
	return out
}

// Len returns the number of pending notifications.
func (b *Bus) Len() int { return len(b.pending) }
