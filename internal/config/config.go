// Package config defines the engine configuration and its loading.
//
// Conventions:
// - New() builds a Config with defaults; Load() layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import "runtime"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StoreBackend selects the rating store: memory or postgres.
	StoreBackend string `koanf:"store_backend"`

	// DatabaseURL is the Postgres DSN, required for the postgres backend.
	DatabaseURL string `koanf:"database_url"`

	// ContestsFile points at a JSONL contest export consumed as the
	// upstream contest source.
	ContestsFile string `koanf:"contests_file"`

	// WorkerCount sets the number of parallel per-player computations
	// within one period.
	WorkerCount int `koanf:"worker_count"`

	// Tau constrains volatility change per period.
	Tau float64 `koanf:"tau"`

	// MinGames is the default leaderboard games-played filter.
	MinGames int `koanf:"min_games"`

	// MaxLeaderboardLimit caps leaderboard query sizes.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// for the duration of a run, e.g. ":9100".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		StoreBackend:        BackendMemory,
		WorkerCount:         runtime.NumCPU(),
		Tau:                 0.5,
		MinGames:            5,
		MaxLeaderboardLimit: 100,
	}
}
