package botplay

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/huehunt/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging logs to stdout and to logFile as JSON. If logFile is empty, a
// timestamped filename is generated. The returned closer flushes the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "bot_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), logger.FormatJSON); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the bot.
func ShowHelp() {
	os.Stdout.WriteString(`Hue Hunt Bot
============

Plays games against a running server and checks the leaderboard.
The server must run with expose_target enabled (HUEHUNT_EXPOSE_TARGET=true).

Usage:
  go run ./cmd/huehunt-bot [options]

Options:
  -url string
        Base URL of the server (default "http://localhost:9080")
  -games int
        Number of games to play (default 200)
  -workers int
        Number of concurrent players (default CPU cores * 2)
  -tier string
        Tier for every game; empty uses the server default
  -accuracy float
        Probability of clicking the target each round (default 0.9)
  -max-level int
        Miss on purpose once this level is reached; 0 = never (default 20)
  -weight float
        Expected points per cleared level; 0 skips the check
  -top int
        Number of top entries to fetch from the leaderboard (default 50)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for results to reach the leaderboard (default 5s)
  -seed int
        Seed for click decisions; 0 seeds from the clock
  -log string
        Log file for run output (default: bot_log_TIMESTAMP.log)
  -verbose
        Log every finished game
  -help
        Show this help message

Examples:
  # Play with default settings
  go run ./cmd/huehunt-bot

  # Hard tier, perfect play up to level 30, server weight 3
  go run ./cmd/huehunt-bot -tier hard -accuracy 1 -max-level 30 -weight 3
`)
}
