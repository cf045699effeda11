package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/huehunt/internal/adapters/http/api"
	"github.com/okian/huehunt/internal/adapters/http/site"
	"github.com/okian/huehunt/internal/adapters/http/swagger"
	app "github.com/okian/huehunt/internal/app"
	"github.com/okian/huehunt/internal/config"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/i18n"
	"github.com/okian/huehunt/pkg/logger"
	"github.com/okian/huehunt/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "huehunt exited", logger.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	catalog, err := i18n.Load(ctx, i18n.WithOverlayFile(cfg.StringsFile))
	if err != nil {
		return err
	}

	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(log.Named("service")))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go every(ctx, systemMetricsInterval, updateSystemMetrics)
	go every(ctx, serviceMetricsInterval, func() { updateServiceMetrics(svc) })

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, catalog, cfg.MaxLeaderboardLimit),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// serviceOptions translates configuration into service options.
func serviceOptions(cfg *config.Config) ([]app.Option, error) {
	tier, err := challenge.ParseTier(cfg.DefaultTier)
	if err != nil {
		return nil, err
	}
	return []app.Option{
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.ResultQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTierWeights(cfg.TierWeights, cfg.DefaultTierWeight),
		app.WithDefaultTier(tier),
		app.WithGridSize(cfg.GridSize),
		app.WithRoundTime(time.Duration(cfg.RoundTimeMS) * time.Millisecond),
		app.WithTickInterval(time.Duration(cfg.TickIntervalMS) * time.Millisecond),
		app.WithSessionTTL(time.Duration(cfg.SessionTTLMS) * time.Millisecond),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithSeed(cfg.Seed),
		app.WithExposeTarget(cfg.ExposeTarget),
	}, nil
}

// newHandler mounts the API, the docs and the browser game on one router.
func newHandler(ctx context.Context, svc *app.Service, catalog *i18n.Catalog, maxLimit int) http.Handler {
	r := api.NewRouter()
	api.NewServer(svc, catalog, maxLimit).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

// every runs fn on each tick of interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes the
// queue, player and session gauges itself.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
