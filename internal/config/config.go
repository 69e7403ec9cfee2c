// Package config loads the village tuning file and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-village/internal/agents"
	"github.com/talgya/mini-village/internal/engine"
	"github.com/talgya/mini-village/internal/world"
)

// Config is everything the villagesim host needs to start.
type Config struct {
	Seed     int64   `yaml:"seed"` // 0 draws a fresh seed at startup
	DBPath   string  `yaml:"db_path"`
	Port     int     `yaml:"port"`
	Speed    float64 `yaml:"speed"`
	StepMS   int     `yaml:"step_ms"`
	LogLevel string  `yaml:"log_level"`

	AdminKey string `yaml:"-"` // Environment only
	RelayKey string `yaml:"-"`

	World   WorldConfig   `yaml:"world"`
	Village VillageConfig `yaml:"village"`
	Plants  PlantConfig   `yaml:"plants"`
}

// WorldConfig shapes world generation.
type WorldConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	HexSize   float64 `yaml:"hex_size"`
	Trees     int     `yaml:"trees"`
	Villagers int     `yaml:"villagers"`
	Houses    int     `yaml:"houses"`
	StartArea float64 `yaml:"start_area"`
}

// VillageConfig tunes villagers and the task executor.
type VillageConfig struct {
	ProximityRadius float64 `yaml:"proximity_radius"`
	MaxCascade      int     `yaml:"max_cascade"`
	RecheckMS       int     `yaml:"recheck_ms"`
	HoursPerSecond  float64 `yaml:"sim_hours_per_second"`
	ClockSpeed      float64 `yaml:"clock_speed"`
	HouseCapacity   int     `yaml:"house_capacity"`
	CarryCapacity   float64 `yaml:"carry_capacity"`
	Acceleration    float64 `yaml:"acceleration"`
	MaxSpeed        float64 `yaml:"max_speed"`
	WoodPerSize     float64 `yaml:"wood_per_size"`
}

// PlantConfig tunes tree growth.
type PlantConfig struct {
	GrowthPerSecond float64 `yaml:"growth_per_second"`
	MatureSize      float64 `yaml:"mature_size"`
	SeedsPerSecond  float64 `yaml:"seeds_per_second"`
	Survival        float64 `yaml:"survival"`
	Spread          float64 `yaml:"spread"`
	MaxTrees        int     `yaml:"max_trees"`
}

// Default returns the stock configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	params := engine.DefaultParams(world.RectFromOrigin(gen.Width, gen.Height))
	spawn := agents.DefaultSpawnConfig()
	return Config{
		DBPath:   "data/village.db",
		Port:     8080,
		Speed:    1,
		StepMS:   50,
		LogLevel: "info",
		World: WorldConfig{
			Width:     gen.Width,
			Height:    gen.Height,
			HexSize:   gen.HexSize,
			Trees:     gen.Trees,
			Villagers: gen.Villagers,
			Houses:    gen.Houses,
			StartArea: gen.StartArea,
		},
		Village: VillageConfig{
			ProximityRadius: params.ProximityRadius,
			MaxCascade:      params.MaxCascade,
			RecheckMS:       int(params.Travel.RecheckInterval / time.Millisecond),
			HoursPerSecond:  params.Travel.SimHoursPerSecond,
			ClockSpeed:      params.ClockSpeed,
			HouseCapacity:   engine.DefaultHouseCapacity,
			CarryCapacity:   spawn.CarryCapacity,
			Acceleration:    spawn.Acceleration,
			MaxSpeed:        spawn.MaxSpeed,
			WoodPerSize:     params.Foreman.WoodPerSize,
		},
		Plants: PlantConfig{
			GrowthPerSecond: params.Plants.GrowthPerSecond,
			MatureSize:      params.Plants.MatureSize,
			SeedsPerSecond:  params.Plants.SeedsPerSecond,
			Survival:        params.Plants.Survival,
			Spread:          params.Plants.Spread,
			MaxTrees:        params.Plants.MaxTrees,
		},
	}
}

// Load reads the tuning file at path over the defaults. An empty path skips
// the file. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VILLAGESIM_* environment variables.
func (c *Config) ApplyEnv() error {
	var err error
	if c.Seed, err = envInt64OrDefault("VILLAGESIM_SEED", c.Seed); err != nil {
		return err
	}
	if c.Port, err = envIntOrDefault("VILLAGESIM_PORT", c.Port); err != nil {
		return err
	}
	if c.Speed, err = envFloatOrDefault("VILLAGESIM_SPEED", c.Speed); err != nil {
		return err
	}
	c.DBPath = envOrDefault("VILLAGESIM_DB", c.DBPath)
	c.LogLevel = envOrDefault("VILLAGESIM_LOG_LEVEL", c.LogLevel)
	c.AdminKey = envOrDefault("VILLAGESIM_ADMIN_KEY", c.AdminKey)
	c.RelayKey = envOrDefault("VILLAGESIM_RELAY_KEY", c.RelayKey)
	return nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("negative speed %g", c.Speed))
	}
	if c.StepMS <= 0 {
		errs = append(errs, fmt.Errorf("step_ms must be positive, got %d", c.StepMS))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size %gx%g must be positive", c.World.Width, c.World.Height))
	}
	if c.Village.ProximityRadius <= 0 {
		errs = append(errs, fmt.Errorf("proximity_radius must be positive"))
	}
	if c.World.HexSize <= 0 {
		errs = append(errs, fmt.Errorf("hex_size must be positive, got %g", c.World.HexSize))
	}
	if c.Village.MaxCascade < 1 {
		errs = append(errs, fmt.Errorf("max_cascade must be at least 1"))
	}
	if c.Village.RecheckMS <= 0 {
		errs = append(errs, fmt.Errorf("recheck_ms must be positive, got %d", c.Village.RecheckMS))
	}
	if c.Village.HoursPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("sim_hours_per_second must be positive, got %g", c.Village.HoursPerSecond))
	}
	if c.Village.CarryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("carry_capacity must be positive, got %g", c.Village.CarryCapacity))
	}
	// A villager without either never leaves its spot.
	if c.Village.Acceleration <= 0 {
		errs = append(errs, fmt.Errorf("acceleration must be positive, got %g", c.Village.Acceleration))
	}
	if c.Village.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("max_speed must be positive, got %g", c.Village.MaxSpeed))
	}
	if c.Plants.Survival < 0 || c.Plants.Survival > 1 {
		errs = append(errs, fmt.Errorf("survival %g outside [0,1]", c.Plants.Survival))
	}
	return errors.Join(errs...)
}

// Step returns the engine step duration.
func (c *Config) Step() time.Duration {
	return time.Duration(c.StepMS) * time.Millisecond
}

// GenConfig returns the world generation settings.
func (c *Config) GenConfig() world.GenConfig {
	gen := world.DefaultGenConfig()
	gen.Seed = c.Seed
	gen.Width, gen.Height = c.World.Width, c.World.Height
	gen.HexSize = c.World.HexSize
	gen.Trees = c.World.Trees
	gen.Villagers = c.World.Villagers
	gen.Houses = c.World.Houses
	gen.StartArea = c.World.StartArea
	gen.StartPos = world.Vec2{X: c.World.Width / 2, Y: c.World.Height / 2}
	return gen
}

// Params returns the simulation tuning for bounds.
func (c *Config) Params(bounds world.Rect) engine.Params {
	p := engine.DefaultParams(bounds)
	p.ProximityRadius = c.Village.ProximityRadius
	p.MaxCascade = c.Village.MaxCascade
	p.Travel.RecheckInterval = time.Duration(c.Village.RecheckMS) * time.Millisecond
	p.Travel.SimHoursPerSecond = c.Village.HoursPerSecond
	p.ClockSpeed = c.Village.ClockSpeed
	p.Foreman.WoodPerSize = c.Village.WoodPerSize
	p.Plants.GrowthPerSecond = c.Plants.GrowthPerSecond
	p.Plants.MatureSize = c.Plants.MatureSize
	p.Plants.SeedsPerSecond = c.Plants.SeedsPerSecond
	p.Plants.Survival = c.Plants.Survival
	p.Plants.Spread = c.Plants.Spread
	p.Plants.MaxTrees = c.Plants.MaxTrees
	return p
}

// SpawnConfig returns the villager attributes.
func (c *Config) SpawnConfig() agents.SpawnConfig {
	s := agents.DefaultSpawnConfig()
	s.CarryCapacity = c.Village.CarryCapacity
	s.Acceleration = c.Village.Acceleration
	s.MaxSpeed = c.Village.MaxSpeed
	return s
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envInt64OrDefault(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloatOrDefault(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
