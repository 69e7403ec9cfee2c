package events

import (
	"testing"

	"github.com/talgya/mini-village/internal/world"
)

func TestBusDrainBySignal(t *testing.T) {
	var b Bus
	b.Emit(Arrival, 1)
	b.Emit(Recheck, 2)
	b.Emit(Arrival, 3)

	got := b.Drain(Arrival)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("arrivals: got %v", got)
	}
	if b.Len() != 1 {
		t.Fatalf("pending after drain: got %d want 1", b.Len())
	}
	if got := b.Drain(Recheck); len(got) != 1 || got[0] != world.EntityID(2) {
		t.Fatalf("rechecks: got %v", got)
	}
	if got := b.Drain(Recheck); got != nil {
		t.Fatalf("second drain should be empty, got %v", got)
	}
}

func TestFeedSubscribeAndRecent(t *testing.T) {
	f := NewFeed(2)
	id, ch := f.Subscribe()

	f.Publish(Event{Tick: 1, Category: CategoryWork})
	f.Publish(Event{Tick: 2, Category: CategoryStorage})
	f.Publish(Event{Tick: 3, Category: CategoryNature})

	for want := uint64(1); want <= 3; want++ {
		if e := <-ch; e.Tick != want {
			t.Fatalf("subscriber got tick %d want %d", e.Tick, want)
		}
	}
	recent := f.Recent(10)
	if len(recent) != 2 || recent[0].Tick != 2 || recent[1].Tick != 3 {
		t.Fatalf("recent ring: got %+v", recent)
	}
	if one := f.Recent(1); len(one) != 1 || one[0].Tick != 3 {
		t.Fatalf("Recent(1): got %+v", one)
	}
	for _, n := range []int{0, -1} {
		if got := f.Recent(n); len(got) != 0 {
			t.Fatalf("Recent(%d): expected nothing, got %+v", n, got)
		}
	}

	f.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	f.Publish(Event{Tick: 4})
}
