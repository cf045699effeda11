// Package service provides the game session service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	resultqueue "github.com/okian/huehunt/internal/adapters/mq/queue"
	workerpool "github.com/okian/huehunt/internal/adapters/mq/worker"
	repository "github.com/okian/huehunt/internal/adapters/repository"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/dedupe"
	"github.com/okian/huehunt/internal/domain/game"
	"github.com/okian/huehunt/internal/domain/model"
	"github.com/okian/huehunt/internal/domain/scoring"
	"github.com/okian/huehunt/internal/domain/types"
	"github.com/okian/huehunt/pkg/logger"
	"github.com/okian/huehunt/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize    = 10_000
	defaultDedupeSize   = 100_000
	defaultTickInterval = 100 * time.Millisecond
	defaultSessionTTL   = 10 * time.Minute
	defaultMaxSessions  = 10_000
	defaultTierWeight   = 1.0
	evictInterval       = time.Second
	stopTimeout         = 10 * time.Second
	maxPlayerNameRunes  = 32
)

// session is one player's seat: a game that can be replayed after game over.
type session struct {
	mu      sync.Mutex
	id      string
	player  string
	game    *game.Game
	run     int            // plays started in this session, used in game ids
	pending []model.Result // finished games not yet accepted by the queue
	updated time.Time
}

// Service implements the API dependencies for the game.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// Core components
	leaderboard repository.Store
	deduper     dedupe.Deduper
	resultQueue *resultqueue.InMemoryQueue
	scorer      *scoring.TierScorer
	workerPool  *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	tierWeights   map[string]float64
	defaultWeight float64
	defaultTier   challenge.Tier
	roundTime     time.Duration
	gridSize      int
	tickInterval  time.Duration
	sessionTTL    time.Duration
	maxSessions   int
	seed          int64
	exposeTarget  bool
	now           func() time.Time

	seq atomic.Int64

	// State
	started bool
	cancel  context.CancelFunc
	loops   sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:      make(map[string]*session),
		workerCount:   0, // worker pool picks runtime.NumCPU()
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		defaultWeight: defaultTierWeight,
		defaultTier:   challenge.Normal,
		roundTime:     game.DefaultRoundTime,
		gridSize:      challenge.DefaultGridSize,
		tickInterval:  defaultTickInterval,
		sessionTTL:    defaultSessionTTL,
		maxSessions:   defaultMaxSessions,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	// Reject a bad grid or round time before any session exists.
	probe, err := game.New(s.defaultTier, rand.New(rand.NewSource(1)), s.gameOptions()...) //nolint:gosec // probe only
	if err == nil {
		err = probe.Start()
	}
	if err != nil {
		return fmt.Errorf("invalid game settings: %w", err)
	}

	s.logger.Info(ctx, "starting game service...")

	s.leaderboard = repository.NewTreapStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.resultQueue = resultqueue.NewInMemoryQueue(resultqueue.WithCapacity(s.queueSize))
	s.scorer = scoring.NewTierScorer(scoring.WithTierWeightsFromConfig(s.tierWeights, s.defaultWeight))

	// Workers outlive the caller's context so Stop can drain the queue.
	bg := context.WithoutCancel(ctx)
	s.workerPool = workerpool.NewPool(s.workerCount, s.resultQueue, s.scorer, s.leaderboard,
		workerpool.WithLogger(s.logger.Named("worker")))
	s.workerPool.Start(bg)

	loopCtx, cancel := context.WithCancel(bg)
	s.cancel = cancel
	if s.tickInterval > 0 {
		s.loops.Add(1)
		go s.runScheduler(loopCtx)
	}

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("grid_size", s.gridSize),
		logger.Duration("round_time", s.roundTime),
		logger.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop halts the scheduler, hands any finished games to the queue and
// waits for the workers to drain it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	ctx, done := context.WithTimeout(context.Background(), stopTimeout)
	defer done()

	s.logger.Info(ctx, "stopping game service...")
	cancel()
	s.loops.Wait()

	for _, sess := range s.snapshotSessions() {
		sess.mu.Lock()
		s.flushLocked(ctx, sess)
		sess.mu.Unlock()
	}
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.logger.Info(ctx, "game service stopped")
}

// DefaultTier is the tier used when a new game names none.
func (s *Service) DefaultTier() challenge.Tier {
	return s.defaultTier
}

// NewGame opens a session for player and starts its first game.
func (s *Service) NewGame(ctx context.Context, player string, tier challenge.Tier) (types.Game, error) {
	if !s.isStarted() {
		return types.Game{}, ErrNotStarted
	}
	player, err := normalizePlayer(player)
	if err != nil {
		return types.Game{}, err
	}
	if !tier.Valid() {
		return types.Game{}, fmt.Errorf("%w: %w: %d", challenge.ErrInvalidArgument, challenge.ErrInvalidTier, int(tier))
	}

	g, err := game.New(tier, s.newRand(), s.gameOptions()...)
	if err != nil {
		return types.Game{}, err
	}
	if err := g.Start(); err != nil {
		return types.Game{}, err
	}

	sess := &session{
		id:      uuid.NewString(),
		player:  player,
		game:    g,
		run:     1,
		updated: s.now(),
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.evictLocked(ctx, s.now())
	}
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		metrics.RecordSessionRejected()
		return types.Game{}, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(active)
	s.recordStart(g)
	s.logger.Debug(ctx, "game started",
		logger.String("game_id", sess.id),
		logger.String("player", player),
		logger.String("tier", tier.String()),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// Game returns the current view of a session.
func (s *Service) Game(_ context.Context, id string) (types.Game, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return types.Game{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// Click submits a guess for the cell at index.
func (s *Service) Click(ctx context.Context, id string, index int) (types.ClickResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return types.ClickResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	outcome, err := sess.game.Click(index)
	if err != nil {
		metrics.RecordClick("rejected")
		return types.ClickResult{}, err
	}
	metrics.RecordClick(string(outcome))
	sess.updated = s.now()

	switch outcome {
	case game.OutcomeCorrect:
		s.recordRound(sess.game)
	case game.OutcomeWrong:
		s.finishLocked(ctx, sess)
	}
	return types.ClickResult{Outcome: string(outcome), Game: s.view(sess)}, nil
}

// Restart starts a new game in a finished session, keeping player and tier.
func (s *Service) Restart(ctx context.Context, id string) (types.Game, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return types.Game{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.game.Start(); err != nil {
		return types.Game{}, err
	}
	sess.run++
	sess.updated = s.now()
	s.recordStart(sess.game)
	s.logger.Debug(ctx, "game restarted", logger.String("game_id", sess.id), logger.Int("run", sess.run))
	return s.view(sess), nil
}

// TickAll advances every running countdown by elapsed and returns how many
// games it ended.
func (s *Service) TickAll(ctx context.Context, elapsed time.Duration) int {
	expired := 0
	for _, sess := range s.snapshotSessions() {
		sess.mu.Lock()
		if sess.game.Tick(elapsed) {
			sess.updated = s.now()
			s.finishLocked(ctx, sess)
			expired++
		} else if len(sess.pending) > 0 {
			s.flushLocked(ctx, sess)
		}
		sess.mu.Unlock()
	}
	return expired
}

// EvictExpired drops finished sessions idle for longer than the session TTL.
func (s *Service) EvictExpired(ctx context.Context) int {
	s.mu.Lock()
	n := s.evictLocked(ctx, s.now())
	active := len(s.sessions)
	s.mu.Unlock()

	if n > 0 {
		metrics.RecordSessionsEvicted(n)
	}
	metrics.UpdateActiveSessions(active)
	return n
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	entries, err := s.leaderboard.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the rank and best for a player.
func (s *Service) Rank(ctx context.Context, player string) (types.Entry, error) {
	if !s.isStarted() {
		return types.Entry{}, ErrNotStarted
	}
	e, err := s.leaderboard.Rank(ctx, player)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"activeSessions": len(s.sessions),
		"maxSessions":    s.maxSessions,
		"gridSize":       s.gridSize,
		"roundTimeMs":    s.roundTime.Milliseconds(),
	}
	if s.workerPool == nil {
		return stats
	}

	playing := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.game.State() == game.StatePlaying {
			playing++
		}
		sess.mu.Unlock()
	}
	queueLen := s.resultQueue.Len(ctx)
	totalPlayers := s.leaderboard.Count(ctx)

	stats["playing"] = playing
	stats["workerCount"] = s.workerPool.Size()
	stats["queueLength"] = queueLen
	stats["totalPlayers"] = totalPlayers
	stats["recordedResults"] = s.deduper.Size()

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateTotalPlayers(totalPlayers)
	metrics.UpdateActiveSessions(len(s.sessions))
	return stats
}

// runScheduler drives countdowns from wall-clock time and evicts stale sessions.
func (s *Service) runScheduler(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	evict := time.NewTicker(evictInterval)
	defer evict.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.TickAll(ctx, now.Sub(last))
			last = now
		case <-evict.C:
			if n := s.EvictExpired(ctx); n > 0 {
				s.logger.Debug(ctx, "evicted sessions", logger.Int("count", n))
			}
		}
	}
}

// finishLocked turns the session's finished game into a pending result and
// tries to queue it. Callers hold sess.mu.
func (s *Service) finishLocked(ctx context.Context, sess *session) {
	snap := sess.game.Snapshot()
	metrics.RecordGameFinished(snap.Tier.String(), string(snap.Reason), snap.Level)

	sess.pending = append(sess.pending, model.Result{
		GameID:   fmt.Sprintf("%s-%d", sess.id, sess.run),
		PlayerID: sess.player,
		Tier:     snap.Tier,
		Level:    snap.Level,
		Score:    snap.Score,
		Reason:   string(snap.Reason),
		EndedAt:  s.now(),
	})
	s.logger.Info(ctx, "game over",
		logger.String("game_id", sess.id),
		logger.String("player", sess.player),
		logger.String("tier", snap.Tier.String()),
		logger.Int("score", snap.Score),
		logger.String("reason", string(snap.Reason)),
	)
	s.flushLocked(ctx, sess)
}

// flushLocked offers pending results to the queue in order. A result the
// queue refuses stays pending and is retried on the next tick.
func (s *Service) flushLocked(ctx context.Context, sess *session) {
	kept := sess.pending[:0]
	for i, r := range sess.pending {
		if s.deduper.SeenAndRecord(ctx, r.GameID) {
			metrics.RecordResultDuplicate()
			continue
		}
		if err := s.resultQueue.Enqueue(ctx, r); err != nil {
			s.deduper.Unrecord(ctx, r.GameID)
			s.logger.Warn(ctx, "result queue refused game; will retry",
				logger.String("game_id", r.GameID), logger.Error(err))
			kept = append(kept, sess.pending[i:]...)
			break
		}
	}
	sess.pending = kept
}

// evictLocked must be called with s.mu held.
func (s *Service) evictLocked(_ context.Context, now time.Time) int {
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.game.State() == game.StateGameOver &&
			len(sess.pending) == 0 &&
			now.Sub(sess.updated) >= s.sessionTTL
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// view renders the client shape of a session. Callers hold sess.mu.
func (s *Service) view(sess *session) types.Game {
	snap := sess.game.Snapshot()
	v := types.Game{
		ID:          sess.id,
		Player:      sess.player,
		State:       snap.State.String(),
		Tier:        snap.Tier.String(),
		Level:       snap.Level,
		Score:       snap.Score,
		RemainingMS: snap.Remaining.Milliseconds(),
		RoundTimeMS: snap.RoundTime.Milliseconds(),
		Reason:      string(snap.Reason),
	}
	if snap.Round == nil {
		return v
	}

	r := snap.Round
	v.GridSize = r.GridSize
	cells := r.Cells()
	v.Cells = make([]types.Swatch, len(cells))
	for i, c := range cells {
		v.Cells[i] = types.Swatch{Index: c.Index, Hex: c.Color.Hex(), CSS: c.Color.CSS()}
	}
	if s.exposeTarget || snap.State == game.StateGameOver {
		idx, delta := r.TargetIndex, r.AppliedDelta
		v.TargetIndex = &idx
		v.AppliedDelta = &delta
		v.Channel = r.Channel.String()
	}
	return v
}

func (s *Service) recordStart(g *game.Game) {
	metrics.RecordGameStarted(g.Tier().String())
	s.recordRound(g)
}

func (s *Service) recordRound(g *game.Game) {
	if r, ok := g.Round(); ok {
		metrics.RecordRoundGenerated(r.Tier.String(), r.Channel.String(), r.AppliedDelta)
	}
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return sess, nil
}

func (s *Service) snapshotSessions() []*session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) gameOptions() []game.Option {
	return []game.Option{game.WithRoundTime(s.roundTime), game.WithGridSize(s.gridSize)}
}

// newRand gives each session its own source. With a fixed seed, the k-th
// session is seeded seed+k so runs are reproducible.
func (s *Service) newRand() *rand.Rand {
	n := s.seq.Add(1)
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed + n)) //nolint:gosec // gameplay randomness
}

func normalizePlayer(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPlayer)
	}
	if utf8.RuneCountInString(name) > maxPlayerNameRunes {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidPlayer, maxPlayerNameRunes)
	}
	return name, nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:     e.Rank,
		PlayerID: e.PlayerID,
		Points:   e.Points,
		Level:    e.Level,
		Tier:     e.Tier.String(),
	}
}
