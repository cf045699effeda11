// Package worker applies finished games to the leaderboard in the background.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/huehunt/internal/adapters/repository"
	"github.com/okian/huehunt/internal/domain/model"
	"github.com/okian/huehunt/internal/domain/scoring"
	"github.com/okian/huehunt/pkg/logger"
	"github.com/okian/huehunt/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Result abstracts what workers read off the queue.
type Result = model.Result

// Updater keeps each player's best.
type Updater interface {
	UpdateBest(ctx context.Context, b repository.Best) (bool, error)
}

// Scorer turns a result into leaderboard points.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) (scoring.Result, error)
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Result
}

// Worker processes results and writes leaderboard updates.
type Worker interface {
	// Run consumes results until the queue is drained and closed or ctx is canceled.
	Run(ctx context.Context)
	// Wait blocks until Run has returned or ctx is done.
	Wait(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	scorer     Scorer
	updater    Updater
	name       string
	onRecorded func(r Result, improved bool)
	done       chan struct{}
	logger     logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   queue,
		scorer:  scorer,
		updater: updater,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	results := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing result",
					logger.String("worker", w.name),
					logger.String("game_id", r.GameID),
					logger.Error(err),
				)
			}
		}
	}
}

// Wait blocks until the worker loop exits.
func (w *InMemoryWorker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s: %w", w.name, ctx.Err())
	}
}

// process scores one finished game and offers it to the leaderboard.
func (w *InMemoryWorker) process(ctx context.Context, r Result) error { //nolint:gocritic // hugeParam: Result is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	scored, err := w.scorer.Score(ctx, scoring.Input{PlayerID: r.PlayerID, Tier: r.Tier, Cleared: r.Score})
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return fmt.Errorf("score game %s: %w", r.GameID, err)
	}

	improved, err := w.updater.UpdateBest(ctx, repository.Best{
		PlayerID: r.PlayerID,
		Points:   scored.Points,
		Level:    r.Level,
		Tier:     r.Tier,
		GameID:   r.GameID,
		At:       r.EndedAt,
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "leaderboard_error")
		return fmt.Errorf("leaderboard update for game %s: %w", r.GameID, err)
	}

	metrics.RecordResultRecorded()
	if improved {
		metrics.RecordLeaderboardUpdate()
		w.logger.Debug(ctx, "new personal best",
			logger.String("player", r.PlayerID),
			logger.Float64("points", scored.Points),
			logger.Int("level", r.Level),
		)
	}
	if w.onRecorded != nil {
		w.onRecorded(r, improved)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, scorer, updater, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Wait(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", err)
		}
	}
	return nil
}
