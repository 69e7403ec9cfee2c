package events

import (
	"log/slog"
	"sync"

	"github.com/talgya/mini-village/internal/world"
)

// Event categories.
const (
	CategoryWork    = "work"    // Trees cut, wood picked up
	CategoryStorage = "storage" // Deposits into the stockpile
	CategoryNature  = "nature"  // Saplings sprouting
	CategoryVillage = "village" // Housing, daily life
)

// DefaultSubscriberBuffer is the channel size handed to each subscriber.
const DefaultSubscriberBuffer = 256

// Event is a notable occurrence in the village.
type Event struct {
	Tick        uint64         `json:"tick" db:"tick"`
	Time        string         `json:"time" db:"sim_time"`
	Category    string         `json:"category" db:"category"`
	Description string         `json:"description" db:"description"`
	Agent       world.EntityID `json:"agent,omitempty" db:"agent"`
}

// Feed fans events out to subscribers and keeps a ring of recent ones.
// Delivery is best effort: a subscriber with a full channel misses events.
type Feed struct {
	mu     sync.RWMutex
	recent []Event
	limit  int
	nextID int
	subs   map[int]chan Event
}

// NewFeed returns a feed remembering the last limit events.
func NewFeed(limit int) *Feed {
	return &Feed{limit: limit, subs: make(map[int]chan Event)}
}

// Publish records e and forwards it to every subscriber.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = append(f.recent, e)
	if len(f.recent) > f.limit {
		f.recent = f.recent[len(f.recent)-f.limit:]
	}
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("event feed: subscriber full, event dropped", "category", e.Category)
		}
	}
}

// Subscribe registers a new subscriber.
func (f *Feed) Subscribe() (int, <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := make(chan Event, DefaultSubscriberBuffer)
	f.subs[f.nextID] = ch
	return f.nextID, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		close(ch)
		delete(f.subs, id)
	}
}

// Recent returns up to n of the most recent events, oldest first.
func (f *Feed) Recent(n int) []Event {
	if n <= 0 {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	start := len(f.recent) - n
	if start < 0 {
		start = 0
	}
	return append([]Event(nil), f.recent[start:]...)
}
