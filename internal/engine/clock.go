// Day clock — the village wakes at seven and counts days from zero.
package engine

import (
	"fmt"
	"time"
)

// DefaultClockSpeed is how many clock seconds pass per second of step time.
const DefaultClockSpeed = 400

const (
	dayStart   = 7 * time.Hour
	nightFrom  = 18 // Night runs 18:00 through 05:59
	nightUntil = 5
)

// Clock tracks the village time of day.
type Clock struct {
	Day   uint64        `json:"day"`
	Since time.Duration `json:"since_midnight"`
	Speed float64       `json:"speed"`
}

// NewClock returns a clock at day 0, 07:00.
func NewClock(speed float64) *Clock {
	return &Clock{Since: dayStart, Speed: speed}
}

// Advance moves the clock by dt of step time and reports how many hour and
// day boundaries were crossed.
func (c *Clock) Advance(dt time.Duration) (hours, days int) {
	before := c.Since
	c.Since += time.Duration(float64(dt) * c.Speed)
	hours = int(c.Since/time.Hour - before/time.Hour)
	for c.Since >= 24*time.Hour {
		c.Since -= 24 * time.Hour
		c.Day++
		days++
	}
	return hours, days
}

// Hour returns the hour of day, 0–23.
func (c *Clock) Hour() int { return int(c.Since / time.Hour) }

// Minute returns the minute of the hour.
func (c *Clock) Minute() int { return int(c.Since/time.Minute) % 60 }

// IsNight reports whether it is between 18:00 and 05:59.
func (c *Clock) IsNight() bool {
	h := c.Hour()
	return h >= nightFrom || h <= nightUntil
}

func (c *Clock) String() string {
	return fmt.Sprintf("%dday %02d:%02d", c.Day, c.Hour(), c.Minute())
}
