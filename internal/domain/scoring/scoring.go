// Package scoring turns finished games into leaderboard points.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// Default scoring configuration constants.
const (
	defaultTierWeight = 1.0
)

// ErrNegativeScore is returned for inputs that cleared fewer than zero levels.
var ErrNegativeScore = errors.New("negative cleared levels")

// Option applies a configuration option to the TierScorer.
type Option func(*TierScorer)

// WithTierWeightsFromConfig sets tier weights from a configuration map keyed
// by tier name. Unknown names and non-positive weights are skipped.
func WithTierWeightsFromConfig(weights map[string]float64, defaultWeight float64) Option {
	return func(s *TierScorer) {
		s.tierWeights = make(map[challenge.Tier]float64, len(weights))
		for name, weight := range weights {
			tier, err := challenge.ParseTier(name)
			if err != nil || weight <= 0 {
				continue
			}
			s.tierWeights[tier] = weight
		}
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// Input abstracts the result fields needed for scoring.
type Input struct {
	PlayerID string
	Tier     challenge.Tier
	Cleared  int
}

// Result contains the computed points for a player.
type Result struct {
	PlayerID string
	Points   float64
}

// Scorer computes leaderboard points from an input.
type Scorer interface {
	// Score computes points, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// TierScorer multiplies cleared levels by a per-tier weight.
type TierScorer struct {
	tierWeights   map[challenge.Tier]float64
	defaultWeight float64
}

// NewTierScorer creates a scorer; without options every tier weighs 1.
func NewTierScorer(opts ...Option) *TierScorer {
	s := &TierScorer{
		tierWeights:   make(map[challenge.Tier]float64),
		defaultWeight: defaultTierWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the points for the given input.
func (s *TierScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Cleared < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrNegativeScore, in.Cleared)
	}
	return Result{
		PlayerID: in.PlayerID,
		Points:   float64(in.Cleared) * s.Weight(in.Tier),
	}, nil
}

// Weight returns the multiplier applied to tier.
func (s *TierScorer) Weight(tier challenge.Tier) float64 {
	if w, ok := s.tierWeights[tier]; ok {
		return w
	}
	return s.defaultWeight
}
