package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/game"
	"github.com/okian/huehunt/internal/i18n"
	"github.com/okian/huehunt/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type countingSound struct {
	correct, wrong int
}

func (s *countingSound) Correct() { s.correct++ }
func (s *countingSound) Wrong()   { s.wrong++ }
func (s *countingSound) Close()   {}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func newTestApp(lang string) (*App, tcell.SimulationScreen, *countingSound) {
	catalog, err := i18n.Load(context.Background())
	So(err, ShouldBeNil)
	screen := tcell.NewSimulationScreen("UTF-8")
	So(screen.Init(), ShouldBeNil)
	screen.SetSize(80, 40)
	sound := &countingSound{}
	app, err := New(screen, sound, catalog, Options{
		Tier:      challenge.Normal,
		GridSize:  3,
		RoundTime: time.Second,
		Seed:      7,
		Lang:      catalog.Match(lang),
	})
	So(err, ShouldBeNil)
	return app, screen, sound
}

func screenText(s tcell.SimulationScreen) string {
	w, h := s.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, width := s.GetContent(x, y)
			b.WriteRune(r)
			if width == 2 {
				x++
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func targetOf(a *App) int {
	return a.Snapshot().Round.TargetIndex
}

func TestApp(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh terminal app", t, func() {
		app, screen, sound := newTestApp("en")
		defer screen.Fini()

		Convey("The start screen shows the title and no grid", func() {
			app.Draw()
			text := screenText(screen)
			So(text, ShouldContainSubstring, "Hue Hunt")
			So(text, ShouldContainSubstring, "Normal")
			So(app.Snapshot().State, ShouldEqual, game.StateStart)
		})

		Convey("Pressing s starts level 1", func() {
			So(app.Handle(ctx, char('s')), ShouldBeTrue)
			snap := app.Snapshot()
			So(snap.State, ShouldEqual, game.StatePlaying)
			So(snap.Level, ShouldEqual, 1)
			So(snap.Round.GridSize, ShouldEqual, 3)

			Convey("Picking the target advances the level and beeps", func() {
				app.cursor = targetOf(app)
				So(app.Handle(ctx, key(tcell.KeyEnter)), ShouldBeTrue)
				So(app.Snapshot().Level, ShouldEqual, 2)
				So(sound.correct, ShouldEqual, 1)
				So(sound.wrong, ShouldEqual, 0)
			})

			Convey("Picking another swatch ends the game", func() {
				app.cursor = targetOf(app)
				app.Handle(ctx, char(' '))
				app.cursor = (targetOf(app) + 1) % 9
				app.Handle(ctx, key(tcell.KeyEnter))

				snap := app.Snapshot()
				So(snap.State, ShouldEqual, game.StateGameOver)
				So(snap.Reason, ShouldEqual, game.ReasonWrongClick)
				So(app.Best(), ShouldEqual, 1)
				So(sound.wrong, ShouldEqual, 1)

				app.Draw()
				So(screenText(screen), ShouldContainSubstring, "Game over")

				Convey("And r restarts at level 1", func() {
					app.Handle(ctx, char('r'))
					So(app.Snapshot().State, ShouldEqual, game.StatePlaying)
					So(app.Snapshot().Level, ShouldEqual, 1)
					So(app.Best(), ShouldEqual, 1)
				})
			})

			Convey("The countdown expires into a timeout", func() {
				app.Advance(ctx, 400*time.Millisecond)
				So(app.Snapshot().State, ShouldEqual, game.StatePlaying)
				app.Advance(ctx, 700*time.Millisecond)
				So(app.Snapshot().State, ShouldEqual, game.StateGameOver)
				So(app.Snapshot().Reason, ShouldEqual, game.ReasonTimeout)
				So(sound.wrong, ShouldEqual, 1)
			})

			Convey("The HUD shows level and remaining time", func() {
				app.Draw()
				text := screenText(screen)
				So(text, ShouldContainSubstring, "Level 1")
				So(text, ShouldContainSubstring, "1.0s")
			})
		})

		Convey("Movement keys wrap around the grid", func() {
			app.Handle(ctx, char('s'))
			So(app.Cursor(), ShouldEqual, 0)
			app.Handle(ctx, key(tcell.KeyLeft))
			So(app.Cursor(), ShouldEqual, 2)
			app.Handle(ctx, char('j'))
			So(app.Cursor(), ShouldEqual, 5)
			app.Handle(ctx, key(tcell.KeyUp))
			app.Handle(ctx, char('k'))
			So(app.Cursor(), ShouldEqual, 8)
			app.Handle(ctx, char('l'))
			So(app.Cursor(), ShouldEqual, 6)
			app.Handle(ctx, char('h'))
			app.Handle(ctx, key(tcell.KeyRight))
			app.Handle(ctx, key(tcell.KeyDown))
			So(app.Cursor(), ShouldEqual, 0)
		})

		Convey("A mouse click picks the swatch under the pointer", func() {
			app.Handle(ctx, char('s'))
			target := targetOf(app)
			x := gridLeft + (target%3)*(cellWidth+cellGap) + 1
			y := gridTop + (target/3)*(cellHeight+cellGap) + 1
			app.Handle(ctx, tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
			So(app.Snapshot().Level, ShouldEqual, 2)
			So(sound.correct, ShouldEqual, 1)
		})

		Convey("Clicks in the gaps are ignored", func() {
			_, ok := app.cellAt(gridLeft+cellWidth, gridTop)
			So(ok, ShouldBeFalse)
			_, ok = app.cellAt(0, 0)
			So(ok, ShouldBeFalse)
			_, ok = app.cellAt(gridLeft+3*(cellWidth+cellGap), gridTop)
			So(ok, ShouldBeFalse)
			idx, ok := app.cellAt(gridLeft+cellWidth+cellGap, gridTop+cellHeight+cellGap)
			So(ok, ShouldBeTrue)
			So(idx, ShouldEqual, 4)
		})

		Convey("Swatches are painted in their own colors", func() {
			app.Handle(ctx, char('s'))
			app.Draw()
			round := app.Snapshot().Round
			for _, c := range round.Cells() {
				x := gridLeft + (c.Index%3)*(cellWidth+cellGap)
				y := gridTop + (c.Index/3)*(cellHeight+cellGap)
				_, _, style, _ := screen.GetContent(x, y)
				_, bg, _ := style.Decompose()
				So(bg, ShouldEqual, tcell.GetColor(c.Color.Hex()))
			}
		})

		Convey("q and Escape quit", func() {
			So(app.Handle(ctx, char('q')), ShouldBeFalse)
			So(app.Handle(ctx, key(tcell.KeyEscape)), ShouldBeFalse)
		})
	})

	Convey("Given the app in Chinese", t, func() {
		app, screen, _ := newTestApp("zh-CN")
		defer screen.Fini()

		app.Draw()
		So(screenText(screen), ShouldContainSubstring, "看你有多色")
		So(screenText(screen), ShouldContainSubstring, "普通")
	})

	Convey("Given an invalid tier", t, func() {
		catalog, err := i18n.Load(context.Background())
		So(err, ShouldBeNil)
		_, err = New(tcell.NewSimulationScreen("UTF-8"), nil, catalog, Options{Tier: challenge.Tier(42)})
		So(err, ShouldNotBeNil)
	})
}

func TestRunQuits(t *testing.T) {
	Convey("Given a running app", t, func() {
		app, screen, _ := newTestApp("en")
		defer screen.Fini()

		done := make(chan error, 1)
		go func() { done <- app.Run(context.Background()) }()
		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(2 * time.Second):
			t.Fatal("run did not return after q")
		}
	})
}

func TestSilent(t *testing.T) {
	Convey("Silent never fails", t, func() {
		var s Sound = Silent{}
		So(func() { s.Correct(); s.Wrong(); s.Close() }, ShouldNotPanic)
	})
}
