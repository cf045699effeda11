package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/huehunt/internal/config"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/i18n"
	"github.com/okian/huehunt/internal/tui"
	"github.com/okian/huehunt/pkg/logger"
)

func main() {
	var (
		tier    = flag.String("tier", "", "Difficulty: easy, normal or hard; empty uses default_tier")
		lang    = flag.String("lang", "", "UI language, e.g. en or zh-CN; empty reads $LANG")
		seed    = flag.Int64("seed", 0, "Seed for swatch generation; 0 seeds from the clock")
		logFile = flag.String("log", "", "Write logs to this file; the terminal is owned by the game")
		mute    = flag.Bool("mute", false, "Disable sound")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *tier, *lang, *seed, *logFile, *mute); err != nil {
		os.Stderr.WriteString("huehunt-tui: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, tierName, lang string, seed int64, logFile string, mute bool) error {
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithWriter(out, logger.FormatJSON); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if tierName == "" {
		tierName = cfg.DefaultTier
	}
	tier, err := challenge.ParseTier(tierName)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = cfg.Seed
	}

	catalog, err := i18n.Load(ctx, i18n.WithOverlayFile(cfg.StringsFile))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	var sound tui.Sound = tui.Silent{}
	if !mute {
		if sp, err := tui.NewSpeaker(); err != nil {
			logger.Get().Warn(ctx, "audio unavailable", logger.Error(err))
		} else {
			sound = sp
		}
	}
	defer sound.Close()

	game, err := tui.New(screen, sound, catalog, tui.Options{
		Tier:      tier,
		GridSize:  cfg.GridSize,
		RoundTime: time.Duration(cfg.RoundTimeMS) * time.Millisecond,
		Seed:      seed,
		Lang:      catalog.Match(preferredLanguage(lang)),
	})
	if err != nil {
		return err
	}
	return game.Run(ctx)
}

// preferredLanguage turns a POSIX locale like zh_CN.UTF-8 into a BCP 47 tag.
func preferredLanguage(flagValue string) string {
	v := flagValue
	if v == "" {
		v = os.Getenv("LANG")
	}
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return strings.ReplaceAll(v, "_", "-")
}
