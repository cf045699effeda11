package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HUEHUNT_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if HUEHUNT_CONFIG is set
//  3. env (prefix HUEHUNT_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// HUEHUNT_ROUND_TIME_MS -> round_time_ms. Keys stay flat so underscores
	// match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the game cannot run without.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GridSize < 2:
		return fmt.Errorf("%w: grid_size must be >= 2", ErrInvalidConfig)
	case c.RoundTimeMS <= 0:
		return fmt.Errorf("%w: round_time_ms must be positive", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be >= 1", ErrInvalidConfig)
	}
	if _, err := challenge.ParseTier(c.DefaultTier); err != nil {
		return fmt.Errorf("%w: default_tier: %w", ErrInvalidConfig, err)
	}
	for name := range c.TierWeights {
		if _, err := challenge.ParseTier(name); err != nil {
			return fmt.Errorf("%w: tier_weights: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
