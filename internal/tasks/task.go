// Package tasks defines the intents a villager pursues and the FIFO queue
// that orders them. Tasks carry no behavior; the engine decides completion.
package tasks

import (
	"fmt"

	"github.com/talgya/mini-village/internal/world"
)

// Kind names a task variant.
type Kind string

const (
	KindCutTarget        Kind = "CUT_TARGET"
	KindPickUpResource   Kind = "PICK_UP_RESOURCE"
	KindDropOffResources Kind = "DROP_OFF_RESOURCES"
	KindWander           Kind = "WANDER"
)

// Task is one of CutTarget, PickUpResource, DropOffResources or Wander.
type Task interface {
	Kind() Kind
	isTask()
}

// CutTarget fells the target entity once the agent stands next to it.
type CutTarget struct {
	Target world.EntityID
}

// PickUpResource loads up to Amount wood into the agent's carrier.
type PickUpResource struct {
	Amount float64
}

// DropOffResources empties the carrier into the village storage.
type DropOffResources struct{}

// Wander walks to random points until something else is queued.
type Wander struct{}

func (CutTarget) Kind() Kind        { return KindCutTarget }
func (PickUpResource) Kind() Kind   { return KindPickUpResource }
func (DropOffResources) Kind() Kind { return KindDropOffResources }
func (Wander) Kind() Kind           { return KindWander }

func (CutTarget) isTask()        {}
func (PickUpResource) isTask()   {}
func (DropOffResources) isTask() {}
func (Wander) isTask()           {}

// Describe returns a short label for logs and the API.
func Describe(t Task) string {
	switch t := t.(type) {
	case CutTarget:
		return fmt.Sprintf("cut %s", t.Target)
	case PickUpResource:
		return fmt.Sprintf("pick up %.2f", t.Amount)
	case DropOffResources:
		return "drop off"
	case Wander:
		return "wander"
	}
	return "unknown"
}

// Spec is the wire form of a task used by the admin API.
type Spec struct {
	Kind   Kind           `json:"kind"`
	Target world.EntityID `json:"target,omitempty"`
	Amount float64        `json:"amount,omitempty"`
}

// ToSpec converts a task into its wire form.
func ToSpec(t Task) Spec {
	s := Spec{Kind: t.Kind()}
	switch t := t.(type) {
	case CutTarget:
		s.Target = t.Target
	case PickUpResource:
		s.Amount = t.Amount
	}
	return s
}

// FromSpec converts a wire task back into a Task.
func FromSpec(s Spec) (Task, error) {
	switch s.Kind {
	case KindCutTarget:
		if s.Target.IsNull() {
			return nil, fmt.Errorf("task %s: missing target", s.Kind)
		}
		return CutTarget{Target: s.Target}, nil
	case KindPickUpResource:
		if s.Amount < 0 {
			return nil, fmt.Errorf("task %s: negative amount %f", s.Kind, s.Amount)
		}
		return PickUpResource{Amount: s.Amount}, nil
	case KindDropOffResources:
		return DropOffResources{}, nil
	case KindWander:
		return Wander{}, nil
	}
	return nil, fmt.Errorf("unknown task kind %q", s.Kind)
}
