// Package repository defines the leaderboard store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// Best is a player's best finished game as offered to the store.
type Best struct {
	PlayerID string
	Points   float64
	Level    int
	Tier     challenge.Tier
	GameID   string
	At       time.Time
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank     int
	PlayerID string
	Points   float64
	Level    int
	Tier     challenge.Tier
	GameID   string
	At       time.Time
}

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest keeps b if it beats the player's current best points.
	// Returns true if the store changed.
	UpdateBest(ctx context.Context, b Best) (bool, error)

	// Rank returns the current rank and best for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries ordered by points desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players tracked in the leaderboard.
	Count(ctx context.Context) int
}
