// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap this package's sentinel errors.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: auto, text, json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultTier is used when a new game does not name a tier.
	DefaultTier string `koanf:"default_tier"`
	// GridSize is the side length of the swatch grid.
	GridSize int `koanf:"grid_size"`
	// RoundTimeMS is the countdown each round starts with.
	RoundTimeMS int `koanf:"round_time_ms"`
	// TickIntervalMS is the scheduler period for session countdowns.
	TickIntervalMS int `koanf:"tick_interval_ms"`
	// SessionTTLMS is how long finished sessions stay readable.
	SessionTTLMS int `koanf:"session_ttl_ms"`
	// MaxSessions bounds concurrently held sessions.
	MaxSessions int `koanf:"max_sessions"`
	// Seed fixes the per-session random seeds; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`
	// ExposeTarget includes the target index in API snapshots (bots, debugging).
	ExposeTarget bool `koanf:"expose_target"`

	// ResultQueueSize bounds the in-memory finished-game queue.
	ResultQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of result workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the recorded-result cache.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// TierWeights multiplies cleared levels into leaderboard points.
	TierWeights map[string]float64 `koanf:"tier_weights"`
	// DefaultTierWeight is used for tiers missing from TierWeights.
	DefaultTierWeight float64 `koanf:"default_tier_weight"`

	// StringsFile optionally overlays the embedded UI strings.
	StringsFile string `koanf:"strings_file"`
}

// New creates a Config with defaults. Context is accepted to satisfy the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "auto",
		Addr:                ":9080",
		DefaultTier:         "normal",
		GridSize:            5,
		RoundTimeMS:         15_000,
		TickIntervalMS:      100,
		SessionTTLMS:        10 * 60 * 1000,
		MaxSessions:         10_000,
		ResultQueueSize:     10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		TierWeights: map[string]float64{
			"easy":   1.0,
			"normal": 2.0,
			"hard":   3.0,
		},
		DefaultTierWeight: 1.0,
	}
}
