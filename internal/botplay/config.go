package botplay

import (
	"errors"
	"time"
)

// Config holds configuration for a bot run.
type Config struct {
	BaseURL  string        // Base URL of the server
	Games    int           // Number of games to play
	Workers  int           // Number of concurrent players
	Tier     string        // Tier for every game; empty uses the server default
	Accuracy float64       // Probability of clicking the target each round
	MaxLevel int           // Miss on purpose once this level is reached; 0 = never
	Weight   float64       // Expected points per cleared level; 0 skips the check
	TopN     int           // Number of top entries to fetch from the leaderboard
	Timeout  time.Duration // HTTP request timeout
	Settle   time.Duration // How long to wait for results to reach the leaderboard
	Seed     int64         // Seed for click decisions; 0 seeds from the clock
	LogFile  string        // Log file for run output
	Verbose  bool          // Log every finished game
}

// Sentinel kinds for bot failures.
var (
	ErrInvalidConfig = errors.New("invalid bot config")
	ErrTargetHidden  = errors.New("server does not expose target_index; run it with expose_target")
	ErrVerification  = errors.New("leaderboard verification failed")
)

// Validate checks the run parameters.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("empty base url"))
	case c.Games < 1:
		return errors.Join(ErrInvalidConfig, errors.New("games must be >= 1"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be >= 1"))
	case c.Accuracy < 0 || c.Accuracy > 1:
		return errors.Join(ErrInvalidConfig, errors.New("accuracy must be in [0,1]"))
	case c.MaxLevel < 0:
		return errors.Join(ErrInvalidConfig, errors.New("max level must be >= 0"))
	}
	return nil
}

// Played is the outcome of one bot game.
type Played struct {
	Player string
	GameID string
	Tier   string
	Level  int
	Score  int
	Reason string
	Clicks int
}

// Stats holds run statistics.
type Stats struct {
	GamesStarted       int
	GamesFinished      int
	GamesFailed        int
	Clicks             int
	PlayersVerified    int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
