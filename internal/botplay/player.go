package botplay

import (
	"context"
	"errors"
	"math/rand"
	"net/http"

	"github.com/google/uuid"
)

// playerName returns a fresh bot name within the server's 32-rune limit.
func playerName() string {
	return "bot-" + uuid.NewString()[:8]
}

// playGame plays one game to the end and reports how it went.
func playGame(ctx context.Context, c *Client, cfg *Config, rng *rand.Rand) (Played, error) {
	g, err := c.NewGame(ctx, playerName(), cfg.Tier)
	if err != nil {
		return Played{}, err
	}
	p := Played{Player: g.Player, GameID: g.ID, Tier: g.Tier}

	for g.State == "playing" {
		if err := ctx.Err(); err != nil {
			return p, err
		}
		if g.TargetIndex == nil {
			return p, ErrTargetHidden
		}
		index := *g.TargetIndex
		miss := rng.Float64() >= cfg.Accuracy || (cfg.MaxLevel > 0 && g.Level >= cfg.MaxLevel)
		if miss {
			index = (index + 1 + rng.Intn(len(g.Cells)-1)) % len(g.Cells)
		}
		res, err := c.Click(ctx, g.ID, index)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			// The countdown ended the game before the click landed.
			if g, err = c.Game(ctx, g.ID); err != nil {
				return p, err
			}
			continue
		}
		if err != nil {
			return p, err
		}
		p.Clicks++
		g = res.Game
	}

	p.Level = g.Level
	p.Score = g.Score
	p.Reason = g.Reason
	return p, nil
}
