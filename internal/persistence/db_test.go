package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/mini-village/internal/events"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "chronicle.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.StartRun(42); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	in := []events.Event{
		{Tick: 1, Time: "0day 07:00", Category: events.CategoryWork, Description: "first", Agent: 3},
		{Tick: 2, Time: "0day 07:01", Category: events.CategoryStorage, Description: "second"},
	}
	if err := db.SaveEvents(in); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}

	got, err := db.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0] != in[1] || got[1] != in[0] {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestEventsAreScopedToRun(t *testing.T) {
	db := openTestDB(t)
	db.StartRun(1)
	db.SaveEvents([]events.Event{{Tick: 1, Time: "0day 07:00", Category: events.CategoryNature, Description: "old run"}})

	second, err := db.StartRun(2)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if db.RunID() != second {
		t.Fatalf("expected run %s, got %s", second, db.RunID())
	}
	got, err := db.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("new run should see no events, got %+v", got)
	}
}

func TestDailyReports(t *testing.T) {
	db := openTestDB(t)
	db.StartRun(7)

	r := DailyReport{Day: 1, Tick: 3060, Villagers: 8, Homeless: 0, Trees: 40, StoredWood: 25, TreesCut: 5, Deposits: 5}
	if err := db.SaveDailyReport(r); err != nil {
		t.Fatalf("SaveDailyReport: %v", err)
	}
	r.StoredWood = 30
	if err := db.SaveDailyReport(r); err != nil {
		t.Fatalf("SaveDailyReport again: %v", err)
	}

	rs, err := db.DailyReports()
	if err != nil {
		t.Fatalf("DailyReports: %v", err)
	}
	if len(rs) != 1 || rs[0] != r {
		t.Fatalf("expected the replaced report %+v, got %+v", r, rs)
	}
}
