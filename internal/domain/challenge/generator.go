package challenge

import (
	"fmt"
	"math"
)

// DefaultGridSize is the side length of the swatch grid.
const DefaultGridSize = 5

// Base color draw ranges. Mid-tones keep HSL deltas roughly perceptually even.
const (
	satMin    = 40.0
	satSpan   = 40.0
	lightMin  = 30.0
	lightSpan = 40.0
	minDelta  = 1.0
	channels  = 3
	addBelow  = 0.5
)

// RandomSource yields uniform values in [0,1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Round is one level's challenge. It is a value: a new level gets a new Round.
type Round struct {
	Level        int     `json:"level"`
	Tier         Tier    `json:"tier"`
	GridSize     int     `json:"grid_size"`
	Base         HSL     `json:"base"`
	Target       HSL     `json:"target"`
	TargetIndex  int     `json:"target_index"`
	AppliedDelta float64 `json:"applied_delta"`
	Channel      Channel `json:"channel"`
}

// Cell is one swatch of the rendered grid.
type Cell struct {
	Index    int  `json:"index"`
	Color    HSL  `json:"color"`
	IsTarget bool `json:"is_target"`
}

// CellCount is GridSize squared.
func (r Round) CellCount() int {
	return r.GridSize * r.GridSize
}

// Cells expands the round into its row-major grid.
func (r Round) Cells() []Cell {
	cells := make([]Cell, r.CellCount())
	for i := range cells {
		cells[i] = Cell{Index: i, Color: r.Base}
	}
	if r.TargetIndex >= 0 && r.TargetIndex < len(cells) {
		cells[r.TargetIndex] = Cell{Index: r.TargetIndex, Color: r.Target, IsTarget: true}
	}
	return cells
}

// IsTarget reports whether index hits the odd swatch.
func (r Round) IsTarget(index int) bool {
	return index == r.TargetIndex
}

// Option tweaks a single Generate call.
type Option func(*options)

type options struct {
	gridSize int
}

// WithGridSize overrides DefaultGridSize.
func WithGridSize(size int) Option {
	return func(o *options) {
		o.gridSize = size
	}
}

// AppliedDelta returns max(1, baseDelta * decay^(level-1)) for the tier.
func AppliedDelta(level int, tier Tier) (float64, error) {
	if level < 1 {
		return 0, fmt.Errorf("%w: %w: got %d", ErrInvalidArgument, ErrInvalidLevel, level)
	}
	if !tier.Valid() {
		return 0, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrInvalidTier, int(tier))
	}
	p := tiers[tier]
	// decay^(level-1) underflows to 0 for huge levels; the floor absorbs it.
	d := p.baseDelta * math.Pow(p.decay, float64(level-1))
	if math.IsNaN(d) || d < minDelta {
		d = minDelta
	}
	return d, nil
}

// Generate builds the round for level under tier, consuming draws from rng.
//
// Draw order is fixed: hue, saturation, lightness, channel, [sign], target index.
// The sign draw only happens for saturation and lightness shifts.
func Generate(level int, tier Tier, rng RandomSource, opts ...Option) (Round, error) {
	o := options{gridSize: DefaultGridSize}
	for _, opt := range opts {
		opt(&o)
	}
	if rng == nil {
		return Round{}, fmt.Errorf("%w: %w", ErrInvalidArgument, ErrNilRandom)
	}
	if o.gridSize < 2 {
		return Round{}, fmt.Errorf("%w: %w: got %d", ErrInvalidArgument, ErrInvalidGridSize, o.gridSize)
	}
	delta, err := AppliedDelta(level, tier)
	if err != nil {
		return Round{}, err
	}

	base := HSL{
		H: wrapHue(hueCycle * rng.Float64()),
		S: satMin + satSpan*rng.Float64(),
		L: lightMin + lightSpan*rng.Float64(),
	}

	ch := Channel(bucket(rng.Float64(), channels))
	target := base
	switch ch {
	case Hue:
		target.H = wrapHue(base.H + delta)
	case Saturation:
		target.S = clampPercent(base.S + signed(rng.Float64(), delta))
	case Lightness:
		target.L = clampPercent(base.L + signed(rng.Float64(), delta))
	}

	return Round{
		Level:        level,
		Tier:         tier,
		GridSize:     o.gridSize,
		Base:         base,
		Target:       target,
		TargetIndex:  bucket(rng.Float64(), o.gridSize*o.gridSize),
		AppliedDelta: delta,
		Channel:      ch,
	}, nil
}

// bucket maps r in [0,1) to one of n equal-width buckets.
func bucket(r float64, n int) int {
	i := int(r * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func signed(r, delta float64) float64 {
	if r < addBelow {
		return delta
	}
	return -delta
}
