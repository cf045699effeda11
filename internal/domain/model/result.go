// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// Result is the record of a finished game handed to the leaderboard pipeline.
type Result struct {
	GameID   string         // session id, used for idempotency
	PlayerID string         // display name the game was started for
	Tier     challenge.Tier // difficulty the game was played on
	Level    int            // level the game ended on
	Score    int            // levels cleared, Level-1
	Reason   string         // why the game ended: wrong_click or timeout
	EndedAt  time.Time
}

// PlayerScore captures a player's best points used for ranking.
type PlayerScore struct {
	PlayerID string
	Points   float64
	Level    int
	Tier     challenge.Tier
}
