// Package economy provides the resource exchange: what a villager carries and
// what the village has stored.
package economy

import (
	"fmt"
	"math"
)

// Carrier is the wood a villager is holding. Invariant: 0 <= Wood <= Capacity.
type Carrier struct {
	Wood     float64 `json:"wood"`
	Capacity float64 `json:"capacity"`
}

// NewCarrier returns an empty carrier with the given capacity.
func NewCarrier(capacity float64) *Carrier {
	if capacity < 0 {
		panic(fmt.Sprintf("economy: negative carrier capacity %f", capacity))
	}
	return &Carrier{Capacity: capacity}
}

// Free returns how much more wood fits.
func (c *Carrier) Free() float64 {
	return c.Capacity - c.Wood
}

// check panics when the carrier invariant has been broken upstream.
func (c *Carrier) check() {
	if c.Wood < 0 || c.Wood > c.Capacity {
		panic(fmt.Sprintf("economy: carrier holds %f of %f", c.Wood, c.Capacity))
	}
}

// Storage is the village stockpile. Wood only ever grows.
type Storage struct {
	Wood float64 `json:"wood"`
}

// PickUp loads up to amount wood into c, clamped to the free space, and
// returns what was actually taken. Negative amounts take nothing.
func PickUp(c *Carrier, amount float64) float64 {
	c.check()
	taken := math.Min(math.Max(amount, 0), c.Free())
	c.Wood += taken
	return taken
}

// Deposit moves everything c holds into s and returns the amount moved.
func Deposit(c *Carrier, s *Storage) float64 {
	c.check()
	moved := c.Wood
	s.add(moved)
	c.Wood = 0
	return moved
}

func (s *Storage) add(amount float64) {
	if amount < 0 || math.IsNaN(amount) {
		panic(fmt.Sprintf("economy: storage would shrink by %f", amount))
	}
	s.Wood += amount
}
