package service

import (
	"time"

	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of result workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the result queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the recorded-result cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTierWeights sets the leaderboard multiplier per tier name.
func WithTierWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(s *Service) {
		s.tierWeights = weights
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// WithDefaultTier sets the tier used when a new game names none.
func WithDefaultTier(tier challenge.Tier) Option {
	return func(s *Service) {
		if tier.Valid() {
			s.defaultTier = tier
		}
	}
}

// WithRoundTime sets the countdown each round starts with.
func WithRoundTime(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.roundTime = d
		}
	}
}

// WithGridSize sets the side length of the swatch grid.
func WithGridSize(n int) Option {
	return func(s *Service) {
		s.gridSize = n
	}
}

// WithTickInterval sets how often the scheduler advances countdowns.
// Zero disables the background scheduler; callers then drive TickAll.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.tickInterval = d
		}
	}
}

// WithSessionTTL sets how long finished sessions stay readable.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithMaxSessions bounds the number of sessions held in memory.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSeed fixes per-session random seeds. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithExposeTarget includes the target index in every view.
func WithExposeTarget(expose bool) Option {
	return func(s *Service) {
		s.exposeTarget = expose
	}
}

// WithClock replaces time.Now for session timestamps and eviction.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
