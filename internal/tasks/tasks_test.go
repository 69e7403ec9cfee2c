package tasks

import (
	"testing"

	"github.com/talgya/mini-village/internal/world"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(CutTarget{Target: 1}, PickUpResource{Amount: 5})
	q.Push(DropOffResources{})

	want := []Kind{KindCutTarget, KindPickUpResource, KindDropOffResources}
	for i, k := range want {
		front, ok := q.Front()
		if !ok || front.Kind() != k {
			t.Fatalf("front %d: got %v want %s", i, front, k)
		}
		popped, _ := q.Pop()
		if popped.Kind() != k {
			t.Fatalf("pop %d: got %s want %s", i, popped.Kind(), k)
		}
	}
	if !q.Empty() {
		t.Fatalf("queue should be empty, len=%d", q.Len())
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop on empty queue should fail")
	}
}

func TestNilQueueIsEmpty(t *testing.T) {
	var q *Queue
	if !q.Empty() || q.Len() != 0 || q.Tasks() != nil {
		t.Fatalf("nil queue must behave as empty")
	}
	if _, ok := q.Front(); ok {
		t.Fatalf("nil queue has no front")
	}
}

func TestQueueReplace(t *testing.T) {
	q := NewQueue(Wander{})
	q.Replace(DropOffResources{}, Wander{})
	got := q.Tasks()
	if len(got) != 2 || got[0] != (DropOffResources{}) {
		t.Fatalf("replace: got %v", got)
	}
	got[0] = Wander{}
	if f, _ := q.Front(); f != (DropOffResources{}) {
		t.Fatalf("Tasks must return a copy")
	}
}

func TestSpecRoundTripAndValidation(t *testing.T) {
	for _, task := range []Task{CutTarget{Target: world.EntityID(4)}, PickUpResource{Amount: 2}, DropOffResources{}, Wander{}} {
		back, err := FromSpec(ToSpec(task))
		if err != nil || back != task {
			t.Fatalf("round trip %v: got %v, %v", task, back, err)
		}
	}
	bad := []Spec{
		{Kind: KindCutTarget},
		{Kind: KindPickUpResource, Amount: -1},
		{Kind: "DANCE"},
	}
	for _, s := range bad {
		if _, err := FromSpec(s); err == nil {
			t.Fatalf("expected error for %+v", s)
		}
	}
}
