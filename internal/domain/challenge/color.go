package challenge

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSL channel bounds.
const (
	hueCycle    = 360.0
	percentMin  = 0.0
	percentMax  = 100.0
	percentUnit = 100.0
)

// HSL is a color in hue (degrees, circular) / saturation / lightness (percent) form.
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// Channel names the HSL component a round shifts.
type Channel int

const (
	Hue Channel = iota
	Saturation
	Lightness
)

func (c Channel) String() string {
	switch c {
	case Hue:
		return "hue"
	case Saturation:
		return "saturation"
	case Lightness:
		return "lightness"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// wrapHue maps any angle into [0,360).
func wrapHue(h float64) float64 {
	h = math.Mod(h, hueCycle)
	if h < 0 {
		h += hueCycle
	}
	// math.Mod can round a tiny negative up to exactly 360.
	if h >= hueCycle {
		h = 0
	}
	return h
}

// clampPercent pins v into [0,100].
func clampPercent(v float64) float64 {
	return math.Max(percentMin, math.Min(percentMax, v))
}

// Colorful converts to go-colorful's RGB representation.
func (c HSL) Colorful() colorful.Color {
	return colorful.Hsl(c.H, c.S/percentUnit, c.L/percentUnit).Clamped()
}

// Hex renders the color as #rrggbb.
func (c HSL) Hex() string {
	return c.Colorful().Hex()
}

// RGB255 returns 8-bit red, green and blue components.
func (c HSL) RGB255() (r, g, b uint8) {
	return c.Colorful().RGB255()
}

// CSS renders the color as a CSS hsl() expression.
func (c HSL) CSS() string {
	return fmt.Sprintf("hsl(%.2f, %.2f%%, %.2f%%)", c.H, c.S, c.L)
}

func (c HSL) String() string {
	return c.CSS()
}
