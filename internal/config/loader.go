package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LADDER_CONFIG is set
//  3. env (prefix LADDER_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("LADDER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: LADDER_TAU, LADDER_WORKER_COUNT, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("LADDER_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "ladder_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres backend requires database_url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.Tau <= 0 {
		return fmt.Errorf("%w: tau must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	}
	if c.MaxLeaderboardLimit < 1 {
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	}
	return nil
}
