package botplay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/okian/huehunt/internal/domain/types"
)

// Entry is a leaderboard row as returned by the API.
type Entry = types.Entry

const pointsTolerance = 1e-6

// verifyPlayers waits until every bot player is ranked and checks each
// one's best against the game it played.
func verifyPlayers(ctx context.Context, client *Client, cfg *Config, played []Played, stats *Stats) error {
	deadline := time.Now().Add(cfg.Settle)
	for _, p := range played {
		e, err := waitForRank(ctx, client, p.Player, deadline)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrVerification, p.Player, err)
		}
		if e.Level != p.Level {
			return fmt.Errorf("%w: %s: level %d, played %d", ErrVerification, p.Player, e.Level, p.Level)
		}
		if cfg.Weight > 0 {
			want := float64(p.Score) * cfg.Weight
			if math.Abs(e.Points-want) > pointsTolerance {
				return fmt.Errorf("%w: %s: points %.3f, want %.3f", ErrVerification, p.Player, e.Points, want)
			}
		}
		stats.PlayersVerified++
	}
	return nil
}

// waitForRank polls until the player appears or the deadline passes.
func waitForRank(ctx context.Context, client *Client, player string, deadline time.Time) (Entry, error) {
	for {
		e, err := client.Rank(ctx, player)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			return e, err
		}
		if time.Now().After(deadline) {
			return e, err
		}
		select {
		case <-ctx.Done():
			return e, ctx.Err()
		case <-time.After(rankPollInterval):
		}
	}
}

// verifyLeaderboard checks descending points and competition ranks.
func verifyLeaderboard(board []Entry) error {
	for i, e := range board {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := board[i-1]
		switch {
		case e.Points > prev.Points:
			return fmt.Errorf("%w: entry %d has more points than entry %d", ErrVerification, i, i-1)
		case e.Points == prev.Points && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrVerification, i-1, i, prev.Rank, e.Rank)
		case e.Points < prev.Points && e.Rank != i+1:
			return fmt.Errorf("%w: entry %d has rank %d, want %d", ErrVerification, i, e.Rank, i+1)
		}
	}
	return nil
}
