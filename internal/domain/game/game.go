package game

import (
	"fmt"
	"time"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// DefaultRoundTime is the countdown each round starts with.
const DefaultRoundTime = 15 * time.Second

// EndReason records why a game reached GAMEOVER.
type EndReason string

const (
	ReasonNone       EndReason = ""
	ReasonWrongClick EndReason = "wrong_click"
	ReasonTimeout    EndReason = "timeout"
)

// Outcome is the result of a click.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// Option applies a configuration option to a Game.
type Option func(*Game)

// WithRoundTime sets the countdown per round.
func WithRoundTime(d time.Duration) Option {
	return func(g *Game) {
		g.roundTime = d
	}
}

// WithGridSize sets the grid side length passed to the generator.
func WithGridSize(size int) Option {
	return func(g *Game) {
		if size > 0 {
			g.gridSize = size
		}
	}
}

// Game is one player's session. It is not safe for concurrent use; callers
// serialize access.
type Game struct {
	tier      challenge.Tier
	rng       challenge.RandomSource
	roundTime time.Duration
	gridSize  int

	state     State
	level     int
	round     challenge.Round
	remaining time.Duration
	played    time.Duration
	reason    EndReason
}

// Snapshot is a read-only view of a Game.
type Snapshot struct {
	State     State            `json:"state"`
	Tier      challenge.Tier   `json:"tier"`
	Level     int              `json:"level"`
	Score     int              `json:"score"`
	Remaining time.Duration    `json:"-"`
	RoundTime time.Duration    `json:"-"`
	Played    time.Duration    `json:"-"`
	Reason    EndReason        `json:"reason,omitempty"`
	Round     *challenge.Round `json:"round,omitempty"`
}

// New builds a game in the START state. The tier is fixed for the session.
func New(tier challenge.Tier, rng challenge.RandomSource, opts ...Option) (*Game, error) {
	g := &Game{
		tier:      tier,
		rng:       rng,
		roundTime: DefaultRoundTime,
		gridSize:  challenge.DefaultGridSize,
		state:     StateStart,
	}
	for _, opt := range opts {
		opt(g)
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", challenge.ErrInvalidArgument, challenge.ErrInvalidTier, int(tier))
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: %w", challenge.ErrInvalidArgument, challenge.ErrNilRandom)
	}
	if g.roundTime <= 0 {
		return nil, fmt.Errorf("%w: %w", challenge.ErrInvalidArgument, ErrInvalidRoundTime)
	}
	return g, nil
}

// Start begins (or restarts) play at level 1.
func (g *Game) Start() error {
	to, err := Next(g.state, EventStartGame)
	if err != nil {
		return err
	}
	round, err := g.generate(1)
	if err != nil {
		return err
	}
	g.state = to
	g.level = 1
	g.round = round
	g.remaining = g.roundTime
	g.played = 0
	g.reason = ReasonNone
	return nil
}

// Click submits a guess for the cell at index.
func (g *Game) Click(index int) (Outcome, error) {
	if g.state != StatePlaying {
		_, err := Next(g.state, EventCorrectClick)
		return "", err
	}
	if index < 0 || index >= g.round.CellCount() {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidCell, index, g.round.CellCount())
	}

	if !g.round.IsTarget(index) {
		to, err := Next(g.state, EventWrongClick)
		if err != nil {
			return "", err
		}
		g.state = to
		g.reason = ReasonWrongClick
		return OutcomeWrong, nil
	}

	to, err := Next(g.state, EventCorrectClick)
	if err != nil {
		return "", err
	}
	round, err := g.generate(g.level + 1)
	if err != nil {
		return "", err
	}
	g.state = to
	g.level++
	g.round = round
	g.remaining = g.roundTime
	return OutcomeCorrect, nil
}

// Tick advances the countdown by elapsed. It reports true when this tick
// expired the timer and ended the game.
func (g *Game) Tick(elapsed time.Duration) bool {
	if g.state != StatePlaying || elapsed <= 0 {
		return false
	}
	g.played += elapsed
	g.remaining -= elapsed
	if g.remaining > 0 {
		return false
	}
	to, err := Next(g.state, EventTimerExpire)
	if err != nil {
		return false
	}
	g.state = to
	g.remaining = 0
	g.reason = ReasonTimeout
	return true
}

// State returns the current machine state.
func (g *Game) State() State { return g.state }

// Tier returns the session tier.
func (g *Game) Tier() challenge.Tier { return g.tier }

// Level returns the current level (0 before the first start).
func (g *Game) Level() int { return g.level }

// Score is the number of cleared levels.
func (g *Game) Score() int {
	if g.level < 1 {
		return 0
	}
	return g.level - 1
}

// Round returns the active round and whether one exists.
func (g *Game) Round() (challenge.Round, bool) {
	return g.round, g.state != StateStart
}

// Snapshot captures the current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		State:     g.state,
		Tier:      g.tier,
		Level:     g.level,
		Score:     g.Score(),
		Remaining: g.remaining,
		RoundTime: g.roundTime,
		Played:    g.played,
		Reason:    g.reason,
	}
	if r, ok := g.Round(); ok {
		s.Round = &r
	}
	return s
}

func (g *Game) generate(level int) (challenge.Round, error) {
	return challenge.Generate(level, g.tier, g.rng, challenge.WithGridSize(g.gridSize))
}
