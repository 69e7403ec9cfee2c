// Simulation ties together the registry, villagers and village systems and
// runs them each step.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/economy"
	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/movement"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

var (
	// ErrNoStorage is returned when the village has no storage stockpile.
	ErrNoStorage = errors.New("village has no storage")
	// ErrStorageExists is returned when a second storage is added.
	ErrStorageExists = errors.New("village already has a storage")
	// ErrNotWorker is returned when tasks are given to an agent that cannot hold them.
	ErrNotWorker = errors.New("agent cannot hold tasks")
	// ErrNilTask is returned when a nil task is queued.
	ErrNilTask = errors.New("nil task")
)

const maxPendingEvents = 10000

// Params tunes the simulation systems.
type Params struct {
	Bounds          world.Rect      // Wander destinations are drawn from here
	ProximityRadius float64         // Interaction distance, strict
	MaxCascade      int             // Task attempts per agent per executor pass
	Travel          movement.Params // Kinematics and target re-check
	ClockSpeed      float64
	Plants          PlantParams
	Foreman         ForemanParams
}

// DefaultParams returns the stock tuning for a world of the given bounds.
func DefaultParams(bounds world.Rect) Params {
	return Params{
		Bounds:          bounds,
		ProximityRadius: 4.0,
		MaxCascade:      8,
		Travel:          movement.DefaultParams(),
		ClockSpeed:      DefaultClockSpeed,
		Plants:          DefaultPlantParams(),
		Foreman:         DefaultForemanParams(),
	}
}

// SimStats tracks aggregate village statistics. TreesCut and Deposits are
// running totals; the rest are recomputed on read.
type SimStats struct {
	Villagers   int     `json:"villagers"`
	Traveling   int     `json:"traveling"`
	Homeless    int     `json:"homeless"`
	Trees       int     `json:"trees"`
	Houses      int     `json:"houses"`
	StoredWood  float64 `json:"stored_wood"`
	CarriedWood float64 `json:"carried_wood"`
	TreesCut    int     `json:"trees_cut"`
	Deposits    int     `json:"deposits"`
}

// Simulation holds the complete village state. All access goes through its
// methods, which serialize on one lock.
type Simulation struct {
	mu sync.RWMutex

	params Params
	rng    *rand.Rand

	world  *world.Registry
	land   *world.LandGrid // Optional; limits where saplings take root
	agents map[world.EntityID]*agents.Agent
	trees  map[world.EntityID]*Tree
	houses map[world.EntityID]*House

	storageID world.EntityID
	storage   *economy.Storage

	bus     events.Bus
	changed map[world.EntityID]struct{}

	feed    *events.Feed
	pending []events.Event // Awaiting the chronicle

	clock    *Clock
	lastTick uint64
	stats    SimStats

	// Called after a step that crossed an hour or day boundary, outside the lock.
	OnHour func(tick uint64, hour int)
	OnDay  func(tick uint64, day uint64)
}

// NewSimulation creates an empty village.
func NewSimulation(params Params, seed int64) *Simulation {
	return &Simulation{
		params:  params,
		rng:     rand.New(rand.NewSource(seed + 500)),
		world:   world.NewRegistry(),
		agents:  make(map[world.EntityID]*agents.Agent),
		trees:   make(map[world.EntityID]*Tree),
		houses:  make(map[world.EntityID]*House),
		changed: make(map[world.EntityID]struct{}),
		feed:    events.NewFeed(1000),
		clock:   NewClock(params.ClockSpeed),
	}
}

// Populate turns a generated layout into entities.
func (s *Simulation) Populate(l *world.Layout, spawner *agents.Spawner, houseCapacity int) error {
	s.mu.Lock()
	s.land = l.Grid
	s.mu.Unlock()
	for _, t := range l.Trees {
		s.AddTree(t.Pos, t.Size)
	}
	for _, p := range l.Villagers {
		s.mu.Lock()
		id := s.world.Spawn(world.KindVillager, p)
		s.agents[id] = spawner.Spawn(id, s.lastTick)
		s.mu.Unlock()
	}
	for _, p := range l.Houses {
		s.AddHouse(p, houseCapacity)
	}
	if _, err := s.AddStorage(l.Storage); err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	return nil
}

// Feed returns the event feed observers subscribe to.
func (s *Simulation) Feed() *events.Feed {
	return s.feed
}

// AddAgent registers a at pos and returns its new id.
func (s *Simulation) AddAgent(pos world.Vec2, a *agents.Agent) world.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.world.Spawn(world.KindVillager, pos)
	if a.BornTick == 0 {
		a.BornTick = s.lastTick
	}
	s.agents[a.ID] = a
	return a.ID
}

// AddTree plants a tree of the given size.
func (s *Simulation) AddTree(pos world.Vec2, size float64) world.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plantLocked(pos, size)
}

// AddHouse builds a house with room for capacity residents.
func (s *Simulation) AddHouse(pos world.Vec2, capacity int) world.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.world.Spawn(world.KindHouse, pos)
	s.houses[id] = &House{Space: LivingSpace{Max: capacity}}
	return id
}

// AddStorage places the village storage. Only one may exist.
func (s *Simulation) AddStorage(pos world.Vec2) (world.EntityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storage != nil {
		return 0, fmt.Errorf("add storage at %s: %w", pos, ErrStorageExists)
	}
	s.storageID = s.world.Spawn(world.KindStorage, pos)
	s.storage = &economy.Storage{}
	return s.storageID, nil
}

// RemoveEntity deletes an entity and everything attached to it.
func (s *Simulation) RemoveEntity(id world.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Simulation) removeLocked(id world.EntityID) error {
	if !s.world.Despawn(id) {
		return fmt.Errorf("remove %s: %w", id, world.ErrUnknownEntity)
	}
	delete(s.agents, id)
	delete(s.trees, id)
	delete(s.changed, id)
	if h, ok := s.houses[id]; ok {
		for _, r := range h.Residents {
			if a := s.agents[r]; a != nil {
				a.Home = 0
			}
		}
		delete(s.houses, id)
	}
	for _, h := range s.houses {
		h.evict(id)
	}
	if id == s.storageID {
		s.storageID = 0
		s.storage = nil
	}
	return nil
}

// Assign replaces an agent's queue with ts.
func (s *Simulation) Assign(id world.EntityID, ts ...tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignLocked(id, ts...)
}

func (s *Simulation) assignLocked(id world.EntityID, ts ...tasks.Task) error {
	a, err := s.workerLocked(id)
	if err != nil {
		return err
	}
	for i, t := range ts {
		if t == nil {
			return fmt.Errorf("assign %s task %d: %w", id, i, ErrNilTask)
		}
	}
	if a.Tasks == nil {
		a.Tasks = tasks.NewQueue()
	}
	a.Tasks.Replace(ts...)
	a.Travel = nil
	a.Walker.Speed = 0
	s.markChanged(id)
	return nil
}

// Enqueue appends t to an agent's queue.
func (s *Simulation) Enqueue(id world.EntityID, t tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.workerLocked(id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("enqueue %s: %w", id, ErrNilTask)
	}
	if a.Tasks == nil {
		a.Tasks = tasks.NewQueue()
	}
	a.Tasks.Push(t)
	s.markChanged(id)
	return nil
}

// Recheck asks for the agent's front task to be attempted on the next step.
func (s *Simulation) Recheck(id world.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Emit(events.Recheck, id)
}

func (s *Simulation) workerLocked(id world.EntityID) (*agents.Agent, error) {
	a := s.agents[id]
	if a == nil {
		return nil, fmt.Errorf("agent %s: %w", id, world.ErrUnknownEntity)
	}
	if !a.Worker {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotWorker)
	}
	return a, nil
}

func (s *Simulation) markChanged(id world.EntityID) {
	s.changed[id] = struct{}{}
}

// storageLocked returns the single village storage.
func (s *Simulation) storageLocked() (*economy.Storage, world.EntityID, error) {
	if s.storage == nil {
		return nil, 0, ErrNoStorage
	}
	return s.storage, s.storageID, nil
}

// Step advances the village by dt: hourly and daily systems, travel,
// queue maintenance, the task executor, then plant life.
func (s *Simulation) Step(dt time.Duration) {
	s.mu.Lock()
	s.lastTick++
	tick := s.lastTick
	hours, days := s.clock.Advance(dt)
	hour, day := s.clock.Hour(), s.clock.Day

	if days > 0 {
		s.settleHomeless()
	}
	if hours > 0 && !s.clock.IsNight() {
		s.assignWork()
	}

	s.advanceTravel(dt)
	s.maintainQueues()
	s.runExecutor()
	s.growPlants(dt)
	s.mu.Unlock()

	if hours > 0 && s.OnHour != nil {
		s.OnHour(tick, hour)
	}
	if days > 0 && s.OnDay != nil {
		s.OnDay(tick, day)
	}
}

// advanceTravel moves every agent with a travel order one step.
func (s *Simulation) advanceTravel(dt time.Duration) {
	for _, id := range s.agentIDs() {
		a := s.agents[id]
		if a.Travel == nil {
			continue
		}
		pos, ok := s.world.Position(id)
		if !ok {
			continue
		}
		next, status := movement.Advance(a.Travel, pos, &a.Walker, dt, s.world, s.params.Travel)
		switch status {
		case movement.Traveling:
			s.world.SetPosition(id, next)
		case movement.Arrived:
			s.world.SetPosition(id, next)
			a.Travel = nil
			a.Walker.Speed = 0
			s.bus.Emit(events.Arrival, id)
		case movement.Stalled:
			// The tracked target is gone; let the executor decide what that means.
			s.bus.Emit(events.Recheck, id)
		}
	}
}

// maintainQueues gives every worker without tasks a fresh wander queue.
func (s *Simulation) maintainQueues() {
	for _, id := range s.agentIDs() {
		a := s.agents[id]
		if a.Worker && a.Tasks.Empty() {
			a.Tasks = tasks.NewQueue(tasks.Wander{})
			s.markChanged(id)
		}
	}
}

func (s *Simulation) agentIDs() []world.EntityID {
	ids := make([]world.EntityID, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Simulation) publish(category string, agent world.EntityID, format string, args ...any) {
	e := events.Event{
		Tick:        s.lastTick,
		Time:        s.clock.String(),
		Category:    category,
		Description: fmt.Sprintf(format, args...),
		Agent:       agent,
	}
	s.feed.Publish(e)
	s.pending = append(s.pending, e)
	if len(s.pending) > maxPendingEvents {
		s.pending = s.pending[len(s.pending)-maxPendingEvents:]
	}
}

// TakeEvents returns and forgets the events not yet handed to the chronicle.
func (s *Simulation) TakeEvents() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}
