package world

import (
	"math/rand"
	"testing"
)

func TestRegistryStaleHandleAfterReuse(t *testing.T) {
	r := NewRegistry()
	a := r.Spawn(KindTree, Vec2{X: 1, Y: 2})
	if !r.Alive(a) {
		t.Fatalf("fresh entity should be alive")
	}
	if !r.Despawn(a) {
		t.Fatalf("despawn of live entity should succeed")
	}
	b := r.Spawn(KindVillager, Vec2{X: 3, Y: 4})
	if a.slot() != b.slot() {
		t.Fatalf("expected slot reuse: a=%s b=%s", a, b)
	}
	if r.Alive(a) {
		t.Fatalf("stale handle %s must not resolve after reuse", a)
	}
	if _, ok := r.Position(a); ok {
		t.Fatalf("stale handle returned a position")
	}
	if r.Despawn(a) {
		t.Fatalf("double despawn should fail")
	}
	if p, ok := r.Position(b); !ok || p != (Vec2{X: 3, Y: 4}) {
		t.Fatalf("position of b: got %v %v", p, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("len: got %d want 1", r.Len())
	}
}

func TestRegistryNullEntity(t *testing.T) {
	r := NewRegistry()
	var id EntityID
	if !id.IsNull() || r.Alive(id) {
		t.Fatalf("zero EntityID must be null and dead")
	}
	if err := r.SetPosition(id, Vec2{}); err == nil {
		t.Fatalf("expected error moving the null entity")
	}
}

func TestRegistryIDsByKind(t *testing.T) {
	r := NewRegistry()
	r.Spawn(KindTree, Vec2{})
	v := r.Spawn(KindVillager, Vec2{})
	r.Spawn(KindTree, Vec2{})
	got := r.IDs(KindVillager)
	if len(got) != 1 || got[0] != v {
		t.Fatalf("villagers: got %v want [%s]", got, v)
	}
	if n := len(r.IDs(0)); n != 3 {
		t.Fatalf("all: got %d want 3", n)
	}
}

func TestRectRandomPointInside(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := Rect{Center: Vec2{X: 10, Y: -5}, Size: Vec2{X: 4, Y: 8}}
	for i := 0; i < 1000; i++ {
		if p := r.RandomPoint(rng); !r.Contains(p) {
			t.Fatalf("point %v outside %v", p, r)
		}
	}
}

func TestNearIsStrict(t *testing.T) {
	if Near(Vec2{}, Vec2{X: 4}, 4) {
		t.Fatalf("distance equal to radius must not count as near")
	}
	if !Near(Vec2{}, Vec2{X: 3.999}, 4) {
		t.Fatalf("distance below radius must count as near")
	}
}

func TestLandGridTileAtCenters(t *testing.T) {
	g := NewLandGrid(RectFromOrigin(200, 120), 10)
	if g.TileCount() != g.Columns*g.Rows {
		t.Fatalf("tile count %d != %d*%d", g.TileCount(), g.Columns, g.Rows)
	}
	for _, tile := range g.Tiles {
		got := g.TileAt(tile.Center)
		if got == nil || got.Column != tile.Column || got.Row != tile.Row {
			t.Fatalf("TileAt(%v): got %+v want col=%d row=%d", tile.Center, got, tile.Column, tile.Row)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)
	if len(a.Trees) != cfg.Trees || len(a.Villagers) != cfg.Villagers || len(a.Houses) != cfg.Houses {
		t.Fatalf("counts: trees=%d villagers=%d houses=%d", len(a.Trees), len(a.Villagers), len(a.Houses))
	}
	for i := range a.Trees {
		if a.Trees[i] != b.Trees[i] {
			t.Fatalf("tree %d differs between runs with the same seed", i)
		}
		if !a.Bounds.Contains(a.Trees[i].Pos) {
			t.Fatalf("tree %d at %v outside bounds", i, a.Trees[i].Pos)
		}
	}
	if a.Storage != b.Storage {
		t.Fatalf("storage placement differs between runs")
	}
	if f := MeanFertility(a.Grid); f <= 0 || f >= 1 {
		t.Fatalf("mean fertility out of range: %f", f)
	}
}
