package world

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownEntity is returned when an EntityID no longer refers to a live entity.
var ErrUnknownEntity = errors.New("unknown entity")

// EntityID is a generation-checked handle into a Registry. The low 32 bits hold
// the slot index plus one, the high 32 bits the slot generation. The zero value
// is the null entity.
type EntityID uint64

func makeID(slot int, gen uint32) EntityID {
	return EntityID(uint64(gen)<<32 | uint64(slot+1))
}

func (id EntityID) slot() int { return int(uint32(id)) - 1 }

// Generation returns the slot generation encoded in the handle.
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

// IsNull reports whether id is the null entity.
func (id EntityID) IsNull() bool { return uint32(id) == 0 }

func (id EntityID) String() string {
	if id.IsNull() {
		return "nil"
	}
	return fmt.Sprintf("%dv%d", id.slot(), id.Generation())
}

// Kind classifies what an entity is.
type Kind uint8

const (
	KindVillager Kind = iota + 1
	KindTree
	KindHouse
	KindStorage
)

type slot struct {
	gen   uint32
	alive bool
	kind  Kind
	pos   Vec2
}

// Registry is an arena of positioned entities. Removing an entity bumps its
// slot generation, so stale handles fail lookups instead of aliasing a
// newer occupant of the same slot.
type Registry struct {
	slots []slot
	free  []int
	live  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Spawn creates an entity of the given kind at pos.
func (r *Registry) Spawn(kind Kind, pos Vec2) EntityID {
	var i int
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		i = len(r.slots) - 1
	}
	s := &r.slots[i]
	s.alive = true
	s.kind = kind
	s.pos = pos
	r.live++
	return makeID(i, s.gen)
}

func (r *Registry) get(id EntityID) *slot {
	i := id.slot()
	if i < 0 || i >= len(r.slots) {
		return nil
	}
	s := &r.slots[i]
	if !s.alive || s.gen != id.Generation() {
		return nil
	}
	return s
}

// Despawn removes an entity. It returns false if id was already stale.
func (r *Registry) Despawn(id EntityID) bool {
	s := r.get(id)
	if s == nil {
		return false
	}
	s.alive = false
	s.gen++
	s.kind = 0
	r.free = append(r.free, id.slot())
	r.live--
	return true
}

// Alive reports whether id refers to a live entity.
func (r *Registry) Alive(id EntityID) bool {
	return r.get(id) != nil
}

// Position returns the position of a live entity.
func (r *Registry) Position(id EntityID) (Vec2, bool) {
	s := r.get(id)
	if s == nil {
		return Vec2{}, false
	}
	return s.pos, true
}

// SetPosition moves a live entity.
func (r *Registry) SetPosition(id EntityID, p Vec2) error {
	s := r.get(id)
	if s == nil {
		return fmt.Errorf("set position %s: %w", id, ErrUnknownEntity)
	}
	s.pos = p
	return nil
}

// Len returns the number of live entities.
func (r *Registry) Len() int { return r.live }

// IDs returns the live entities of the given kind in ascending handle order.
// A zero kind matches everything.
func (r *Registry) IDs(kind Kind) []EntityID {
	var out []EntityID
	for i := range r.slots {
		s := &r.slots[i]
		if s.alive && (kind == 0 || s.kind == kind) {
			out = append(out, makeID(i, s.gen))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
