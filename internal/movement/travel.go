package movement

import (
	"time"

	"github.com/talgya/mini-village/internal/world"
)

// DefaultRecheckInterval is how long a target-tracking travel order commits to
// its last sampled target position before looking again.
const DefaultRecheckInterval = 3000 * time.Millisecond

// Travel is a travel order attached to an agent in transit. It is either a
// *ToPosition or a *ToTarget.
type Travel interface {
	isTravel()
}

// ToPosition walks toward a constant point.
type ToPosition struct {
	Dest world.Vec2 `json:"dest"`
}

// ToTarget walks toward another entity, re-sampling its position only when
// Countdown has run out. Between samples the agent commits to Sampled.
type ToTarget struct {
	Target    world.EntityID `json:"target"`
	Countdown time.Duration  `json:"countdown"`
	Sampled   world.Vec2     `json:"sampled"`
	HasSample bool           `json:"has_sample"`
}

func (*ToPosition) isTravel() {}
func (*ToTarget) isTravel()   {}

// NewToTarget returns a travel order that samples target on its first step.
func NewToTarget(target world.EntityID) *ToTarget {
	return &ToTarget{Target: target}
}

// Locator resolves entity positions. A false result means the entity is gone.
type Locator interface {
	Position(id world.EntityID) (world.Vec2, bool)
}

// Params tunes the travel controller.
type Params struct {
	SimHoursPerSecond float64
	RecheckInterval   time.Duration
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		SimHoursPerSecond: DefaultSimHoursPerSecond,
		RecheckInterval:   DefaultRecheckInterval,
	}
}

// Status is the outcome of one travel step.
type Status uint8

const (
	Traveling Status = iota
	Arrived
	Stalled // Target due for sampling but gone
)

// Advance moves one agent one step along its travel order. On Arrived the
// caller must drop the order and publish the arrival; on Stalled nothing has
// changed and the order stays for the next tick.
func Advance(tr Travel, pos world.Vec2, w *Walker, dt time.Duration, loc Locator, p Params) (world.Vec2, Status) {
	var dest world.Vec2
	switch t := tr.(type) {
	case *ToPosition:
		dest = t.Dest
	case *ToTarget:
		if !t.reaim(dt, loc, p.RecheckInterval) {
			return pos, Stalled
		}
		dest = t.Sampled
	default:
		return pos, Stalled
	}

	next := w.Step(pos, dest, SimHours(dt, p.SimHoursPerSecond))
	if next == dest {
		return next, Arrived
	}
	return next, Traveling
}

// reaim refreshes the sampled position when the countdown has expired, and
// otherwise burns down the countdown. It reports false when the target had to
// be sampled but could not be found.
func (t *ToTarget) reaim(dt time.Duration, loc Locator, interval time.Duration) bool {
	if t.Countdown > 0 {
		t.Countdown -= dt
		if t.Countdown < 0 {
			t.Countdown = 0
		}
		return t.HasSample
	}
	pos, ok := loc.Position(t.Target)
	if !ok {
		return false
	}
	t.Sampled = pos
	t.HasSample = true
	t.Countdown = interval
	return true
}

// Destination returns where the order currently leads and whether it is known.
func Destination(tr Travel) (world.Vec2, bool) {
	switch t := tr.(type) {
	case *ToPosition:
		return t.Dest, true
	case *ToTarget:
		return t.Sampled, t.HasSample
	}
	return world.Vec2{}, false
}

// Describe returns a short label for logs and the API.
func Describe(tr Travel) string {
	switch t := tr.(type) {
	case *ToPosition:
		return "to " + t.Dest.String()
	case *ToTarget:
		return "to target " + t.Target.String()
	}
	return "idle"
}
