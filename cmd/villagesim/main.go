// Command villagesim runs the village simulation and serves it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/api"
	"github.com/talgya/mini-village/internal/config"
	"github.com/talgya/mini-village/internal/engine"
	"github.com/talgya/mini-village/internal/entropy"
	"github.com/talgya/mini-village/internal/persistence"
	"github.com/talgya/mini-village/internal/world"
)

func main() {
	configPath := flag.String("config", os.Getenv("VILLAGESIM_CONFIG"), "path to the YAML tuning file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Seed == 0 {
		cfg.Seed = entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")).Seed(ctx)
	}
	slog.Info("mini-village starting", "seed", cfg.Seed, "speed", cfg.Speed)

	// ── Chronicle ────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("failed to create data dir", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := db.StartRun(cfg.Seed); err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}

	// ── World ────────────────────────────────────────────────────────
	gen := cfg.GenConfig()
	layout := world.Generate(gen)
	slog.Info("world generated",
		"tiles", layout.Grid.TileCount(),
		"fertility", fmt.Sprintf("%.3f", world.MeanFertility(layout.Grid)),
		"trees", len(layout.Trees),
		"villagers", len(layout.Villagers),
		"houses", len(layout.Houses),
	)

	sim := engine.NewSimulation(cfg.Params(layout.Bounds), cfg.Seed)
	if err := sim.Populate(layout, agents.NewSpawner(cfg.Seed, cfg.SpawnConfig()), cfg.Village.HouseCapacity); err != nil {
		slog.Error("failed to populate village", "error", err)
		os.Exit(1)
	}

	sim.OnHour = func(tick uint64, hour int) {
		flushEvents(sim, db)
	}
	sim.OnDay = func(tick uint64, day uint64) {
		flushEvents(sim, db)
		dailyReport(sim, db, tick, day)
	}

	eng := engine.NewEngine()
	eng.Interval = cfg.Step()
	eng.SetSpeed(cfg.Speed)
	eng.OnStep = func(tick uint64, dt time.Duration) {
		sim.Step(dt)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("VILLAGESIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
		RelayKey: cfg.RelayKey,
	}
	apiServer.Start(ctx)

	fmt.Printf("\nThe village is alive: %d villagers, %d trees, %d houses.\n",
		len(layout.Villagers), len(layout.Trees), len(layout.Houses))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	flushEvents(sim, db)
	st := sim.Status()
	fmt.Printf("Simulation stopped at %s with %s wood in storage.\n",
		st.Time, humanize.FormatFloat("#,###.#", st.Stats.StoredWood))
}

// flushEvents hands pending village events to the chronicle.
func flushEvents(sim *engine.Simulation, db *persistence.DB) {
	evs := sim.TakeEvents()
	if err := db.SaveEvents(evs); err != nil {
		slog.Error("event save failed", "count", len(evs), "error", err)
	}
}

func dailyReport(sim *engine.Simulation, db *persistence.DB, tick, day uint64) {
	st := sim.Status().Stats
	r := persistence.DailyReport{
		Day:        day,
		Tick:       tick,
		Villagers:  st.Villagers,
		Homeless:   st.Homeless,
		Trees:      st.Trees,
		StoredWood: st.StoredWood,
		TreesCut:   st.TreesCut,
		Deposits:   st.Deposits,
	}
	if err := db.SaveDailyReport(r); err != nil {
		slog.Error("daily report save failed", "day", day, "error", err)
	}
	slog.Info("dawn of the "+humanize.Ordinal(int(day))+" day",
		"tick", humanize.Comma(int64(tick)),
		"villagers", st.Villagers,
		"homeless", st.Homeless,
		"trees", st.Trees,
		"trees_cut", humanize.Comma(int64(st.TreesCut)),
		"stored_wood", humanize.FormatFloat("#,###.#", st.StoredWood),
	)
}
