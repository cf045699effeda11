// Package tui plays the game in a terminal: a true-color swatch grid driven
// by the same game machine the server uses.
package tui

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"

	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/game"
	"github.com/okian/huehunt/internal/i18n"
	"github.com/okian/huehunt/pkg/logger"
)

// Layout constants, in terminal cells.
const (
	cellWidth    = 6
	cellHeight   = 3
	cellGap      = 1
	gridTop      = 3
	gridLeft     = 2
	tickInterval = 50 * time.Millisecond
)

// Options configures an App.
type Options struct {
	Tier      challenge.Tier
	GridSize  int
	RoundTime time.Duration
	Seed      int64
	Lang      language.Tag
}

// App is one terminal session.
type App struct {
	screen  tcell.Screen
	sound   Sound
	catalog *i18n.Catalog
	lang    language.Tag
	opts    Options

	game   *game.Game
	cursor int
	best   int
	last   time.Time
}

// New builds an App on an initialized screen.
func New(screen tcell.Screen, sound Sound, catalog *i18n.Catalog, opts Options) (*App, error) {
	if sound == nil {
		sound = Silent{}
	}
	if opts.GridSize == 0 {
		opts.GridSize = challenge.DefaultGridSize
	}
	if opts.RoundTime == 0 {
		opts.RoundTime = game.DefaultRoundTime
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g, err := game.New(opts.Tier, rand.New(rand.NewSource(seed)), //nolint:gosec // gameplay randomness
		game.WithGridSize(opts.GridSize), game.WithRoundTime(opts.RoundTime))
	if err != nil {
		return nil, err
	}
	return &App{
		screen:  screen,
		sound:   sound,
		catalog: catalog,
		lang:    opts.Lang,
		opts:    opts,
		game:    g,
	}, nil
}

// Run draws and handles input until the player quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(events)
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	a.last = time.Now()
	a.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !a.Handle(ctx, ev) {
				return nil
			}
			a.draw()
		case now := <-ticker.C:
			a.Advance(ctx, now.Sub(a.last))
			a.last = now
			a.draw()
		}
	}
}

// Snapshot returns the current game view.
func (a *App) Snapshot() game.Snapshot { return a.game.Snapshot() }

// Cursor returns the selected grid index.
func (a *App) Cursor() int { return a.cursor }

// Best returns the best score of this session.
func (a *App) Best() int { return a.best }

// Draw renders the current state to the screen.
func (a *App) Draw() { a.draw() }

// Advance moves the countdown forward by elapsed.
func (a *App) Advance(ctx context.Context, elapsed time.Duration) {
	if a.game.Tick(elapsed) {
		a.sound.Wrong()
		a.finished(ctx)
	}
}

// Handle applies one input event. It returns false when the player quits.
func (a *App) Handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ctx, ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			if idx, ok := a.cellAt(x, y); ok {
				a.cursor = idx
				a.pick(ctx)
			}
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	n := a.opts.GridSize
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		a.move(0, -1)
	case tcell.KeyDown:
		a.move(0, 1)
	case tcell.KeyLeft:
		a.move(-1, 0)
	case tcell.KeyRight:
		a.move(1, 0)
	case tcell.KeyEnter:
		a.pick(ctx)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'k':
			a.move(0, -1)
		case 'j':
			a.move(0, 1)
		case 'h':
			a.move(-1, 0)
		case 'l':
			a.move(1, 0)
		case ' ':
			a.pick(ctx)
		case 's', 'r':
			a.start(ctx)
		}
	}
	if a.cursor >= n*n {
		a.cursor = n*n - 1
	}
	return true
}

func (a *App) move(dx, dy int) {
	n := a.opts.GridSize
	x := (a.cursor%n + dx + n) % n
	y := (a.cursor/n + dy + n) % n
	a.cursor = y*n + x
}

func (a *App) start(ctx context.Context) {
	if err := a.game.Start(); err != nil {
		return
	}
	a.last = time.Now()
	logger.Get().Debug(ctx, "game started", logger.String("tier", a.opts.Tier.String()))
}

func (a *App) pick(ctx context.Context) {
	if a.game.State() != game.StatePlaying {
		a.start(ctx)
		return
	}
	outcome, err := a.game.Click(a.cursor)
	if err != nil {
		return
	}
	if outcome == game.OutcomeCorrect {
		a.sound.Correct()
		return
	}
	a.sound.Wrong()
	a.finished(ctx)
}

func (a *App) finished(ctx context.Context) {
	snap := a.game.Snapshot()
	if snap.Score > a.best {
		a.best = snap.Score
	}
	logger.Get().Info(ctx, "game over",
		logger.String("tier", snap.Tier.String()),
		logger.Int("score", snap.Score),
		logger.String("reason", string(snap.Reason)),
	)
}

// cellAt maps screen coordinates to a grid index.
func (a *App) cellAt(x, y int) (int, bool) {
	x -= gridLeft
	y -= gridTop
	if x < 0 || y < 0 {
		return 0, false
	}
	col, row := x/(cellWidth+cellGap), y/(cellHeight+cellGap)
	if x%(cellWidth+cellGap) >= cellWidth || y%(cellHeight+cellGap) >= cellHeight {
		return 0, false
	}
	n := a.opts.GridSize
	if col >= n || row >= n {
		return 0, false
	}
	return row*n + col, true
}

func (a *App) text(key string) string {
	return a.catalog.Text(a.lang, key)
}

func (a *App) draw() {
	s := a.screen
	s.Clear()
	plain := tcell.StyleDefault
	bold := plain.Bold(true)

	snap := a.game.Snapshot()
	title := fmt.Sprintf("%s  [%s]", a.text("title"), a.text("tier."+a.opts.Tier.String()))
	a.puts(gridLeft, 0, bold, title)

	switch snap.State {
	case game.StateStart:
		a.puts(gridLeft, 1, plain, a.text("tagline"))
		a.puts(gridLeft, 2, plain, fmt.Sprintf("%s: s / space   q: quit", a.text("start")))
		s.Show()
		return
	case game.StatePlaying:
		hud := fmt.Sprintf("%s %d   %s %d   %s %.1fs", a.text("level"), snap.Level,
			a.text("score"), snap.Score, a.text("time"), snap.Remaining.Seconds())
		a.puts(gridLeft, 1, plain, hud)
	case game.StateGameOver:
		over := fmt.Sprintf("%s: %s  %s", a.text("gameover.title"),
			a.text("gameover."+string(snap.Reason)), fmt.Sprintf(a.text("gameover.summary"), snap.Score))
		a.puts(gridLeft, 1, bold, over)
		a.puts(gridLeft, 2, plain, fmt.Sprintf("%s: r   best %d", a.text("restart"), a.best))
	}

	if snap.Round != nil {
		for _, c := range snap.Round.Cells() {
			a.drawCell(c, snap.State == game.StateGameOver)
		}
	}
	s.Show()
}

func (a *App) drawCell(c challenge.Cell, reveal bool) {
	n := a.opts.GridSize
	x0 := gridLeft + (c.Index%n)*(cellWidth+cellGap)
	y0 := gridTop + (c.Index/n)*(cellHeight+cellGap)
	// Hex rounds to 8-bit RGB; at a one-point delta the target can match the base.
	style := tcell.StyleDefault.Background(tcell.GetColor(c.Color.Hex()))

	mark := ' '
	switch {
	case reveal && c.IsTarget:
		mark = '*'
	case c.Index == a.cursor:
		mark = '+'
	}
	for dy := 0; dy < cellHeight; dy++ {
		for dx := 0; dx < cellWidth; dx++ {
			r := ' '
			if dx == cellWidth/2 && dy == cellHeight/2 {
				r = mark
			}
			a.screen.SetContent(x0+dx, y0+dy, r, nil, style)
		}
	}
}

func (a *App) puts(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
