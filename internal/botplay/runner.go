package botplay

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/huehunt/pkg/logger"
)

// Runner configuration constants.
const (
	rankPollInterval     = 50 * time.Millisecond
	PercentageMultiplier = 100
)

// Run plays the configured games and verifies the leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting huehunt bot",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("games", cfg.Games),
		logger.Int("workers", cfg.Workers),
		logger.String("tier", cfg.Tier),
		logger.Float64("accuracy", cfg.Accuracy),
		logger.Int("maxLevel", cfg.MaxLevel),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check server health
	if err := client.Healthy(ctx); err != nil {
		return stats, fmt.Errorf("server health check failed: %w", err)
	}

	// Step 2: Play games concurrently
	played, err := playAll(ctx, client, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("playing failed: %w", err)
	}

	// Step 3: Check every player's best
	if err := verifyPlayers(ctx, client, cfg, played, stats); err != nil {
		return stats, err
	}

	// Step 4: Check leaderboard order and ranks
	top := cfg.TopN
	if top < 1 {
		top = len(played)
	}
	board, err := client.Leaderboard(ctx, top)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)
	if err := verifyLeaderboard(board); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, board)
	return stats, nil
}

// playAll fans games out over cfg.Workers players.
func playAll(ctx context.Context, client *Client, cfg *Config, stats *Stats) ([]Played, error) {
	jobs := make(chan int, cfg.Workers)
	var (
		mu       sync.Mutex
		played   []Played
		firstErr error
		wg       sync.WaitGroup
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(w))) //nolint:gosec // click decisions
			for range jobs {
				p, err := playGame(ctx, client, cfg, rng)

				mu.Lock()
				stats.GamesStarted++
				stats.Clicks += p.Clicks
				if err != nil {
					stats.GamesFailed++
					if firstErr == nil {
						firstErr = err
					}
				} else {
					stats.GamesFinished++
					played = append(played, p)
				}
				mu.Unlock()

				if err != nil {
					logger.Get().Warn(ctx, "game failed", logger.String("player", p.Player), logger.Error(err))
				} else if cfg.Verbose {
					logger.Get().Info(ctx, "game finished",
						logger.String("player", p.Player),
						logger.String("tier", p.Tier),
						logger.Int("score", p.Score),
						logger.String("reason", p.Reason),
					)
				}
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Games; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	if len(played) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return played, ctx.Err()
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats, board []Entry) {
	var successRate float64
	if stats.GamesStarted > 0 {
		successRate = float64(stats.GamesFinished) / float64(stats.GamesStarted) * PercentageMultiplier
	}

	log := logger.Get()
	log.Info(ctx, "final statistics",
		logger.Int("gamesStarted", stats.GamesStarted),
		logger.Int("gamesFinished", stats.GamesFinished),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("clicks", stats.Clicks),
		logger.Int("playersVerified", stats.PlayersVerified),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
	)
	for i, e := range board {
		if i == 10 {
			break
		}
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player", e.PlayerID),
			logger.Float64("points", e.Points),
			logger.Int("level", e.Level),
		)
	}
}
