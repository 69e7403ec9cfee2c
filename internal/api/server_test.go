package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/engine"
	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/world"
)

type fixture struct {
	srv      *httptest.Server
	sim      *engine.Simulation
	villager world.EntityID
	tree     world.EntityID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sim := engine.NewSimulation(engine.DefaultParams(world.RectFromOrigin(100, 100)), 1)
	if _, err := sim.AddStorage(world.Vec2{X: 50, Y: 50}); err != nil {
		t.Fatalf("AddStorage: %v", err)
	}
	tree := sim.AddTree(world.Vec2{X: 20, Y: 20}, 1)
	spawner := agents.NewSpawner(1, agents.DefaultSpawnConfig())
	v := sim.AddAgent(world.Vec2{X: 10, Y: 10}, spawner.Spawn(0, 0))
	sim.Step(50 * time.Millisecond)

	s := &Server{
		Sim:         sim,
		Eng:         engine.NewEngine(),
		AdminKey:    "admin",
		RelayKey:    "relay",
		StatusEvery: 10 * time.Millisecond,
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, sim: sim, villager: v, tree: tree}
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (f *fixture) post(t *testing.T, path, token, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	var st statusResponse
	if code := f.get(t, "/api/v1/status", &st); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if st.Tick != 1 || st.Stats.Villagers != 1 || st.Stats.Trees != 1 || st.Speed != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestVillagerEndpoints(t *testing.T) {
	f := newFixture(t)

	var list []engine.VillagerView
	f.get(t, "/api/v1/villagers", &list)
	if len(list) != 1 || list[0].ID != f.villager {
		t.Fatalf("unexpected villagers %+v", list)
	}

	var v engine.VillagerView
	if code := f.get(t, fmt.Sprintf("/api/v1/villager/%d", uint64(f.villager)), &v); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(v.Tasks) != 1 || v.Tasks[0].Kind != "WANDER" {
		t.Fatalf("expected a wander task, got %+v", v.Tasks)
	}

	if code := f.get(t, "/api/v1/villager/999", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code := f.get(t, "/api/v1/villager/abc", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAssignTasks(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/api/v1/villager/%d/tasks", uint64(f.villager))
	body := fmt.Sprintf(`{"tasks":[{"kind":"CUT_TARGET","target":%d},{"kind":"PICK_UP_RESOURCE","amount":5},{"kind":"DROP_OFF_RESOURCES"}]}`, uint64(f.tree))

	if resp := f.post(t, path, "", body); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := f.post(t, path, "admin", `{"tasks":[{"kind":"CUT_TARGET"}]}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a target-less cut, got %d", resp.StatusCode)
	}

	resp := f.post(t, path, "admin", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var v engine.VillagerView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Tasks) != 3 || v.Tasks[0].Target != f.tree {
		t.Fatalf("queue not replaced: %+v", v.Tasks)
	}

	if resp := f.post(t, "/api/v1/villager/999/tasks", "admin", `{"tasks":[]}`); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown villager, got %d", resp.StatusCode)
	}
}

func TestSpeed(t *testing.T) {
	f := newFixture(t)
	if resp := f.post(t, "/api/v1/speed", "admin", `{"speed":5000}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp := f.post(t, "/api/v1/speed", "admin", `{"speed":4}`)
	var out map[string]float64
	json.NewDecoder(resp.Body).Decode(&out)
	if out["speed"] != 4 {
		t.Fatalf("expected speed 4, got %v", out)
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	s := &Server{Sim: engine.NewSimulation(engine.DefaultParams(world.RectFromOrigin(10, 10)), 1), Eng: engine.NewEngine()}
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/speed", "application/json", strings.NewReader(`{"speed":2}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestTreesStorageAndEvents(t *testing.T) {
	f := newFixture(t)

	var trees []engine.TreeView
	f.get(t, "/api/v1/trees", &trees)
	if len(trees) != 1 || trees[0].ID != f.tree || !trees[0].Mature {
		t.Fatalf("unexpected trees %+v", trees)
	}

	var st engine.StorageView
	if code := f.get(t, "/api/v1/storage", &st); code != http.StatusOK || st.Wood != 0 {
		t.Fatalf("unexpected storage %d %+v", code, st)
	}

	f.sim.Feed().Publish(events.Event{Tick: 1, Category: events.CategoryVillage, Description: "hello"})
	var evs []events.Event
	f.get(t, "/api/v1/events?limit=5", &evs)
	if len(evs) != 1 || evs[0].Description != "hello" {
		t.Fatalf("unexpected events %+v", evs)
	}
}

func TestStreamRequiresRelayKey(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/api/v1/stream")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWebSocketPushesStatus(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var st statusResponse
		if err := conn.ReadJSON(&st); err != nil {
			t.Fatalf("read: %v", err)
		}
		if st.Stats.Villagers != 1 {
			t.Fatalf("unexpected status %+v", st)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own bucket")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("expected retry after 61s, got %d", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window reset should allow again")
	}
}
