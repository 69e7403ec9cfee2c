// Package movement implements the kinematic model and the travel controller
// that walks agents toward fixed points or tracked targets.
package movement

import (
	"math"
	"time"

	"github.com/talgya/mini-village/internal/world"
)

// DefaultSimHoursPerSecond converts one second of step time into simulation
// hours (3600 * 0.00001).
const DefaultSimHoursPerSecond = 0.036

// Walker holds the kinematic state of a mobile agent.
type Walker struct {
	Speed        float64 `json:"speed"`        // Current speed, distance per sim-hour
	Acceleration float64 `json:"acceleration"` // Distance per sim-hour²
	MaxSpeed     float64 `json:"max_speed"`
}

// SimHours converts a step duration into elapsed simulation time.
func SimHours(dt time.Duration, hoursPerSecond float64) float64 {
	return dt.Seconds() * hoursPerSecond
}

// NextSpeed applies constant acceleration capped at maxSpeed.
func NextSpeed(speed, acceleration, maxSpeed, elapsed float64) float64 {
	return math.Min(maxSpeed, speed+acceleration*elapsed)
}

// StepToward moves from toward to by dist. It returns to exactly when the
// step would reach or overshoot it, which is what makes exact arrival
// comparison safe.
func StepToward(from, to world.Vec2, dist float64) world.Vec2 {
	total := world.Distance(from, to)
	if dist >= total {
		return to
	}
	if dist <= 0 {
		return from
	}
	return from.Add(to.Sub(from).Scale(dist / total))
}

// Step advances w one step toward dest and returns the new position. Speed
// is zeroed when dest is reached.
func (w *Walker) Step(pos, dest world.Vec2, elapsed float64) world.Vec2 {
	w.Speed = NextSpeed(w.Speed, w.Acceleration, w.MaxSpeed, elapsed)
	next := StepToward(pos, dest, w.Speed*elapsed)
	if next == dest {
		w.Speed = 0
	}
	return next
}
