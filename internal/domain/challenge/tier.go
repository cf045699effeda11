// Package challenge generates the odd-swatch-out color rounds that drive the game.
//
// A round is a grid of identical base swatches with a single target swatch whose
// color is shifted along one HSL channel. The shift shrinks geometrically with the
// level, floored at one unit so base and target never coincide.
package challenge

import (
	"fmt"
	"strings"
)

// Tier is a difficulty preset selecting the initial delta and its per-level decay.
type Tier int

const (
	Easy Tier = iota
	Normal
	Hard
)

// tierParams holds the decay curve constants of a tier.
type tierParams struct {
	baseDelta float64
	decay     float64
}

var tiers = map[Tier]tierParams{
	Easy:   {baseDelta: 25, decay: 0.97},
	Normal: {baseDelta: 15, decay: 0.95},
	Hard:   {baseDelta: 12, decay: 0.92},
}

// Tiers returns every supported tier, easiest first.
func Tiers() []Tier {
	return []Tier{Easy, Normal, Hard}
}

// Valid reports whether t is a supported tier.
func (t Tier) Valid() bool {
	_, ok := tiers[t]
	return ok
}

// BaseDelta is the delta applied at level 1. Zero for unknown tiers.
func (t Tier) BaseDelta() float64 {
	return tiers[t].baseDelta
}

// Decay is the per-level geometric multiplier. Zero for unknown tiers.
func (t Tier) Decay() float64 {
	return tiers[t].decay
}

// String returns the lowercase label used in config, URLs and JSON.
func (t Tier) String() string {
	switch t {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier maps a label (case-insensitive) to its tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidTier, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrInvalidTier, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
