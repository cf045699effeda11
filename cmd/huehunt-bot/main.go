package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/huehunt/internal/botplay"
	"github.com/okian/huehunt/pkg/logger"
)

// Default configuration constants.
const (
	defaultGames      = 200
	defaultTopN       = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultAccuracy   = 0.9
	defaultMaxLevel   = 20
	defaultTimeout    = 10 * time.Second
	defaultSettle     = 5 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the server")
		games    = flag.Int("games", defaultGames, "Number of games to play")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent players")
		tier     = flag.String("tier", "", "Tier for every game; empty uses the server default")
		accuracy = flag.Float64("accuracy", defaultAccuracy, "Probability of clicking the target each round")
		maxLevel = flag.Int("max-level", defaultMaxLevel, "Miss on purpose once this level is reached; 0 = never")
		weight   = flag.Float64("weight", 0, "Expected points per cleared level; 0 skips the check")
		topN     = flag.Int("top", defaultTopN, "Number of top entries to fetch from the leaderboard")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "How long to wait for results to reach the leaderboard")
		seed     = flag.Int64("seed", 0, "Seed for click decisions; 0 seeds from the clock")
		logFile  = flag.String("log", "", "Log file for run output (default: bot_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every finished game")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		botplay.ShowHelp()
		return
	}

	closer, err := botplay.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &botplay.Config{
		BaseURL:  *baseURL,
		Games:    *games,
		Workers:  *workers,
		Tier:     *tier,
		Accuracy: *accuracy,
		MaxLevel: *maxLevel,
		Weight:   *weight,
		TopN:     *topN,
		Timeout:  *timeout,
		Settle:   *settle,
		Seed:     *seed,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	if _, err := botplay.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "bot run failed", logger.Error(err))
		_ = closer.Close()
		cancel()
		os.Exit(1)
	}
	logger.Get().Info(ctx, "bot run completed")
}
