// Package persistence provides the SQLite chronicle: village events and daily
// reports written as the simulation runs. The chronicle is never read back
// into a simulation.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-village/internal/events"
)

// DB wraps a SQLite connection for the chronicle.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sim_time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		agent INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS daily_reports (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		villagers INTEGER NOT NULL,
		homeless INTEGER NOT NULL,
		trees INTEGER NOT NULL,
		stored_wood REAL NOT NULL,
		trees_cut INTEGER NOT NULL,
		deposits INTEGER NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new simulation run and stamps later rows with its id.
func (db *DB) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	db.runID = id
	slog.Info("chronicle run started", "run", id, "seed", seed)
	return id, nil
}

// RunID returns the id of the current run, empty before StartRun.
func (db *DB) RunID() string {
	return db.runID
}

// SaveEvents appends events to the current run.
func (db *DB) SaveEvents(evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, sim_time, category, description, agent)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range evs {
		if _, err := stmt.Exec(db.runID, e.Tick, e.Time, e.Category, e.Description, uint64(e.Agent)); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent events of the current run, newest first.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	var evs []events.Event
	err := db.conn.Select(&evs,
		`SELECT tick, sim_time, category, description, agent FROM events
		WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		db.runID, limit,
	)
	return evs, err
}

// DailyReport is the end-of-day summary of the village.
type DailyReport struct {
	Day        uint64  `db:"day" json:"day"`
	Tick       uint64  `db:"tick" json:"tick"`
	Villagers  int     `db:"villagers" json:"villagers"`
	Homeless   int     `db:"homeless" json:"homeless"`
	Trees      int     `db:"trees" json:"trees"`
	StoredWood float64 `db:"stored_wood" json:"stored_wood"`
	TreesCut   int     `db:"trees_cut" json:"trees_cut"`
	Deposits   int     `db:"deposits" json:"deposits"`
}

// SaveDailyReport stores the report for one day of the current run.
func (db *DB) SaveDailyReport(r DailyReport) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO daily_reports
		(run_id, day, tick, villagers, homeless, trees, stored_wood, trees_cut, deposits)
		VALUES (:run_id, :day, :tick, :villagers, :homeless, :trees, :stored_wood, :trees_cut, :deposits)`,
		struct {
			RunID string `db:"run_id"`
			DailyReport
		}{db.runID, r},
	)
	if err != nil {
		return fmt.Errorf("save report for day %d: %w", r.Day, err)
	}
	return nil
}

// DailyReports returns the reports of the current run in day order.
func (db *DB) DailyReports() ([]DailyReport, error) {
	var rs []DailyReport
	err := db.conn.Select(&rs,
		`SELECT day, tick, villagers, homeless, trees, stored_wood, trees_cut, deposits
		FROM daily_reports WHERE run_id = ? ORDER BY day`,
		db.runID,
	)
	return rs, err
}
