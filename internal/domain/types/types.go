// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Points   float64 `json:"points"`
	Level    int     `json:"level"`
	Tier     string  `json:"tier"`
}

// Swatch is one rendered grid cell.
type Swatch struct {
	Index int    `json:"index"`
	Hex   string `json:"hex"`
	CSS   string `json:"css"`
}

// Game is the client view of a session. TargetIndex is only set once the
// game is over, or always when the server exposes targets for bots.
type Game struct {
	ID           string   `json:"id"`
	Player       string   `json:"player"`
	State        string   `json:"state"`
	Tier         string   `json:"tier"`
	Level        int      `json:"level"`
	Score        int      `json:"score"`
	RemainingMS  int64    `json:"remaining_ms"`
	RoundTimeMS  int64    `json:"round_time_ms"`
	Reason       string   `json:"reason,omitempty"`
	GridSize     int      `json:"grid_size"`
	Cells        []Swatch `json:"cells"`
	TargetIndex  *int     `json:"target_index,omitempty"`
	AppliedDelta *float64 `json:"applied_delta,omitempty"`
	Channel      string   `json:"channel,omitempty"`
}

// ClickResult is returned for every accepted click.
type ClickResult struct {
	Outcome string `json:"outcome"`
	Game    Game   `json:"game"`
}

// Tier describes a difficulty tier.
type Tier struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	BaseDelta float64 `json:"base_delta"`
	Decay     float64 `json:"decay"`
}
