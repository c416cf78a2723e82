package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for the service.
type Config struct {
	Port           string        `env:"PORT" envDefault:"4000" validate:"required,numeric"`
	DataDir        string        `env:"DATA_DIR" envDefault:"data" validate:"required"`
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"1m" validate:"gt=0"`
	AdminToken     string        `env:"ADMIN_TOKEN"`

	Simulation SimulationConfig
	Precompute PrecomputeConfig
	History    HistoryConfig
	Log        LogConfig
	Metrics    MetricsConfig
}

// SimulationConfig sizes the Monte Carlo engine and the request guards in front of it.
type SimulationConfig struct {
	Workers         int           `env:"SIM_WORKERS" envDefault:"4" validate:"min=1,max=256"`
	TrialsPerWorker int           `env:"SIM_TRIALS_PER_WORKER" envDefault:"4000" validate:"min=1"`
	MaxTrials       int           `env:"SIM_MAX_TRIALS" envDefault:"200000" validate:"min=1"`
	BatchSize       int           `env:"SIM_BATCH_SIZE" envDefault:"500" validate:"min=1"`
	Seed            uint64        `env:"SIM_SEED" envDefault:"0"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"10m" validate:"gt=0"`
	RatePerSecond   float64       `env:"SIM_RATE_PER_SEC" envDefault:"2" validate:"gt=0"`
	RateBurst       int           `env:"SIM_RATE_BURST" envDefault:"4" validate:"min=1"`
}

// DefaultTrials is the trial count used when a request does not ask for one.
func (c SimulationConfig) DefaultTrials() int {
	trials := c.Workers * c.TrialsPerWorker
	if c.MaxTrials > 0 && trials > c.MaxTrials {
		return c.MaxTrials
	}
	return trials
}

// Disabled is the value that switches off an optional component.
const Disabled = "off"

// PrecomputeConfig controls the scheduled finishing-position grid.
type PrecomputeConfig struct {
	// Schedule is a cron spec or descriptor such as "@every 30m".
	Schedule string `env:"PRECOMPUTE_SCHEDULE" envDefault:"@every 30m" validate:"required,cronspec|eq=off"`
	Trials   int    `env:"PRECOMPUTE_TRIALS" envDefault:"10000" validate:"min=1"`
}

// Enabled reports whether the precompute job should be scheduled.
func (c PrecomputeConfig) Enabled() bool {
	return c.Schedule != "" && c.Schedule != Disabled
}

// HistoryConfig points at the SQLite run history.
type HistoryConfig struct {
	DBPath string `env:"HISTORY_DB_PATH" envDefault:"data/history.db" validate:"required"`
}

// Enabled reports whether simulation runs should be persisted.
func (c HistoryConfig) Enabled() bool {
	return c.DBPath != "" && c.DBPath != Disabled
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
