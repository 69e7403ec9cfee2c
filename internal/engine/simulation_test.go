package engine

import (
	"context"
	"testing"
	"time"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

func TestClockAdvance(t *testing.T) {
	c := NewClock(DefaultClockSpeed)
	if c.Hour() != 7 || c.IsNight() {
		t.Fatalf("expected a 07:00 daytime start, got %s", c)
	}

	hours, days := c.Advance(9 * time.Second) // One clock hour at 400x
	if hours != 1 || days != 0 || c.Hour() != 8 {
		t.Fatalf("expected one hour crossed to 08:00, got hours=%d days=%d at %s", hours, days, c)
	}

	c.Advance(90 * time.Second) // Ten more hours
	if !c.IsNight() {
		t.Fatalf("expected night at %s", c)
	}

	_, days = c.Advance(54 * time.Second) // Six hours, past midnight
	if days != 1 || c.Day != 1 || c.Hour() != 0 {
		t.Fatalf("expected day 1 00:00, got days=%d %s", days, c)
	}
	if got := c.String(); got != "1day 00:00" {
		t.Fatalf("unexpected clock string %q", got)
	}
}

func TestSettleHomeless(t *testing.T) {
	s := newTestSim(t)
	house := s.AddHouse(world.Vec2{X: 50, Y: 50}, 2)
	var vs []*agents.Agent
	for i := 0; i < 3; i++ {
		vs = append(vs, addVillager(s, world.Vec2{X: 40 + float64(i), Y: 40}, 0))
	}

	var days []uint64
	s.OnDay = func(_ uint64, day uint64) { days = append(days, day) }
	s.Step(17 * time.Hour / DefaultClockSpeed) // 07:00 to midnight

	if len(days) != 1 || days[0] != 1 {
		t.Fatalf("expected one day rollover to day 1, got %v", days)
	}
	housed := 0
	for _, a := range vs {
		if a.Home == house {
			housed++
		}
	}
	if housed != 2 {
		t.Fatalf("expected 2 villagers housed, got %d", housed)
	}
	if st := s.Status(); st.Stats.Homeless != 1 {
		t.Fatalf("expected 1 homeless, got %d", st.Stats.Homeless)
	}

	if err := s.RemoveEntity(house); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	for _, a := range vs {
		if !a.Homeless() {
			t.Fatalf("villager %s still housed after demolition", a.ID)
		}
	}
}

func TestHouseOverCapacityPanics(t *testing.T) {
	h := &House{Space: LivingSpace{Max: 1}}
	h.moveIn(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when a house overflows")
		}
	}()
	h.moveIn(2)
}

func TestForemanAssignsNearestMatureTree(t *testing.T) {
	s := newTestSim(t)
	mustStorage(t, s, world.Vec2{X: 50, Y: 50})
	nearest := s.AddTree(world.Vec2{X: 20, Y: 20}, 1)
	farther := s.AddTree(world.Vec2{X: 30, Y: 20}, 0.8)
	s.AddTree(world.Vec2{X: 12, Y: 10}, 0.1) // Sapling, too small

	first := addVillager(s, world.Vec2{X: 10, Y: 10}, 0)
	second := addVillager(s, world.Vec2{X: 11, Y: 10}, 0)
	loaded := addVillager(s, world.Vec2{X: 12, Y: 12}, 3)
	for _, a := range []*agents.Agent{first, second, loaded} {
		s.Assign(a.ID, tasks.Wander{})
	}

	s.mu.Lock()
	s.assignWork()
	s.mu.Unlock()

	want := []tasks.Task{
		tasks.CutTarget{Target: nearest},
		tasks.PickUpResource{Amount: 5},
		tasks.DropOffResources{},
	}
	assertQueue(t, first, want)
	assertQueue(t, second, []tasks.Task{
		tasks.CutTarget{Target: farther},
		tasks.PickUpResource{Amount: 0.8 * 5},
		tasks.DropOffResources{},
	})
	assertQueue(t, loaded, []tasks.Task{tasks.DropOffResources{}})
}

func TestForemanNeedsStorage(t *testing.T) {
	s := newTestSim(t)
	s.AddTree(world.Vec2{X: 20, Y: 20}, 1)
	a := addVillager(s, world.Vec2{X: 10, Y: 10}, 0)
	s.Assign(a.ID, tasks.Wander{})

	s.mu.Lock()
	s.assignWork()
	s.mu.Unlock()

	assertQueue(t, a, []tasks.Task{tasks.Wander{}})
}

func assertQueue(t *testing.T, a *agents.Agent, want []tasks.Task) {
	t.Helper()
	got := a.Tasks.Tasks()
	if len(got) != len(want) {
		t.Fatalf("villager %s: expected %v, got %v", a.ID, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("villager %s task %d: expected %v, got %v", a.ID, i, want[i], got[i])
		}
	}
}

func TestTreesGrowToMaxSize(t *testing.T) {
	s := newTestSim(t)
	id := s.AddTree(world.Vec2{X: 20, Y: 20}, 0.2)

	s.Step(time.Second)
	s.mu.RLock()
	size := s.trees[id].Size
	s.mu.RUnlock()
	if size < 0.299 || size > 0.301 {
		t.Fatalf("expected size 0.3 after one second, got %f", size)
	}

	for range 20 {
		s.Step(time.Second)
	}
	for _, tv := range s.Trees() {
		if tv.Size != 1 || !tv.Mature {
			t.Fatalf("expected a grown tree, got %+v", tv)
		}
	}
}

func TestSaplingsStayInBounds(t *testing.T) {
	p := testParams()
	p.Plants.SeedsPerSecond = 50
	p.Plants.Survival = 0.5
	p.Plants.MaxTrees = 30
	s := NewSimulation(p, 7)
	s.AddTree(world.Vec2{X: 1, Y: 1}, 1)

	for range 20 {
		s.Step(time.Second)
	}
	trees := s.Trees()
	if len(trees) > p.Plants.MaxTrees {
		t.Fatalf("expected at most %d trees, got %d", p.Plants.MaxTrees, len(trees))
	}
	for _, tv := range trees {
		if !p.Bounds.Contains(tv.Position) {
			t.Fatalf("tree %s planted outside bounds at %s", tv.ID, tv.Position)
		}
	}
}

func TestPopulateFromLayout(t *testing.T) {
	cfg := world.SmallTestConfig()
	layout := world.Generate(cfg)
	s := NewSimulation(DefaultParams(layout.Bounds), cfg.Seed)
	if err := s.Populate(layout, agents.NewSpawner(cfg.Seed, agents.DefaultSpawnConfig()), DefaultHouseCapacity); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	st := s.Status()
	if st.Stats.Villagers != cfg.Villagers || st.Stats.Houses != cfg.Houses || st.Stats.Trees != cfg.Trees {
		t.Fatalf("unexpected population %+v", st.Stats)
	}
	if _, err := s.Storage(); err != nil {
		t.Fatalf("Storage: %v", err)
	}

	for range 50 {
		s.Step(testStep)
	}
	for _, v := range s.Villagers() {
		if len(v.Tasks) == 0 {
			t.Fatalf("villager %s has no tasks", v.ID)
		}
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.SetSpeed(10)

	ctx, cancel := context.WithCancel(context.Background())
	var steps int
	e.OnStep = func(tick uint64, dt time.Duration) {
		steps++
		if dt != time.Millisecond {
			t.Errorf("unexpected step duration %s", dt)
		}
		if tick == 3 {
			cancel()
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	if steps < 3 || e.Running() {
		t.Fatalf("expected at least 3 steps and a stopped engine, got %d running=%v", steps, e.Running())
	}
}
