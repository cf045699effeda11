package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/huehunt/internal/app"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/game"
	"github.com/okian/huehunt/internal/domain/types"
	"github.com/okian/huehunt/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// newStarted returns a started service whose countdowns only move when the
// test calls TickAll.
func newStarted(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithTickInterval(0),
		service.WithSeed(42),
		service.WithExposeTarget(true),
		service.WithWorkerCount(2),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func wrongCell(g types.Game) int {
	return (*g.TargetIndex + 1) % len(g.Cells)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.DefaultTier(), ShouldEqual, challenge.Normal)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["gridSize"], ShouldEqual, challenge.DefaultGridSize)
			So(stats["roundTimeMs"], ShouldEqual, game.DefaultRoundTime.Milliseconds())
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithDefaultTier(challenge.Hard),
			service.WithGridSize(4),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.DefaultTier(), ShouldEqual, challenge.Hard)
			stats := svc.GetStats()
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
			So(stats["gridSize"], ShouldEqual, 4)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(3))

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 3)
				So(stats["activeSessions"], ShouldEqual, 0)
			})

			Convey("And a second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping it twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a service with a grid that cannot hold a target", t, func() {
		svc := service.New(service.WithGridSize(1))

		Convey("Then Start rejects the settings", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, challenge.ErrInvalidGridSize), ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then game and leaderboard calls report it", func() {
			_, err := svc.NewGame(ctx, "ada", challenge.Easy)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.TopN(ctx, 5)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Rank(ctx, "ada")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_NewGame(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a player starts a game", func() {
			g, err := svc.NewGame(ctx, "  ada  ", challenge.Easy)
			So(err, ShouldBeNil)

			Convey("Then the first round is playing at level 1", func() {
				So(g.ID, ShouldNotBeEmpty)
				So(g.Player, ShouldEqual, "ada")
				So(g.State, ShouldEqual, "playing")
				So(g.Tier, ShouldEqual, "easy")
				So(g.Level, ShouldEqual, 1)
				So(g.Score, ShouldEqual, 0)
				So(g.GridSize, ShouldEqual, challenge.DefaultGridSize)
				So(len(g.Cells), ShouldEqual, challenge.DefaultGridSize*challenge.DefaultGridSize)
				So(g.RemainingMS, ShouldEqual, game.DefaultRoundTime.Milliseconds())
				So(*g.AppliedDelta, ShouldEqual, 25.0)
			})

			Convey("And it can be read back by id", func() {
				got, err := svc.Game(ctx, g.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, g.ID)
				So(got.Level, ShouldEqual, 1)
			})
		})

		Convey("When the player name is blank or too long", func() {
			_, err := svc.NewGame(ctx, "   ", challenge.Easy)
			So(errors.Is(err, service.ErrInvalidPlayer), ShouldBeTrue)
			_, err = svc.NewGame(ctx, "abcdefghijklmnopqrstuvwxyz0123456", challenge.Easy)
			So(errors.Is(err, service.ErrInvalidPlayer), ShouldBeTrue)
		})

		Convey("When the tier is unknown", func() {
			_, err := svc.NewGame(ctx, "ada", challenge.Tier(9))

			Convey("Then both the argument and tier kinds match", func() {
				So(errors.Is(err, challenge.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(err, challenge.ErrInvalidTier), ShouldBeTrue)
			})
		})

		Convey("When the game id is unknown", func() {
			_, err := svc.Game(ctx, "missing")
			So(errors.Is(err, service.ErrGameNotFound), ShouldBeTrue)
			_, err = svc.Click(ctx, "missing", 0)
			So(errors.Is(err, service.ErrGameNotFound), ShouldBeTrue)
			_, err = svc.Restart(ctx, "missing")
			So(errors.Is(err, service.ErrGameNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a service without target exposure", t, func() {
		svc := newStarted(service.WithExposeTarget(false))
		defer svc.Stop()

		Convey("Then the target is hidden while playing", func() {
			g, err := svc.NewGame(context.Background(), "ada", challenge.Normal)
			So(err, ShouldBeNil)
			So(g.TargetIndex, ShouldBeNil)
			So(g.AppliedDelta, ShouldBeNil)
			So(g.Channel, ShouldBeEmpty)
		})
	})
}

func TestService_Click(t *testing.T) {
	Convey("Given a playing game", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()
		g, err := svc.NewGame(ctx, "ada", challenge.Normal)
		So(err, ShouldBeNil)

		Convey("When the target is clicked", func() {
			res, err := svc.Click(ctx, g.ID, *g.TargetIndex)
			So(err, ShouldBeNil)

			Convey("Then the level advances and the countdown resets", func() {
				So(res.Outcome, ShouldEqual, "correct")
				So(res.Game.Level, ShouldEqual, 2)
				So(res.Game.Score, ShouldEqual, 1)
				So(res.Game.State, ShouldEqual, "playing")
				So(*res.Game.AppliedDelta, ShouldAlmostEqual, 15*0.95, 1e-9)
			})
		})

		Convey("When a base swatch is clicked", func() {
			res, err := svc.Click(ctx, g.ID, wrongCell(g))
			So(err, ShouldBeNil)

			Convey("Then the game is over with the wrong-click reason", func() {
				So(res.Outcome, ShouldEqual, "wrong")
				So(res.Game.State, ShouldEqual, "gameover")
				So(res.Game.Reason, ShouldEqual, "wrong_click")
				So(res.Game.TargetIndex, ShouldNotBeNil)
			})

			Convey("And further clicks are invalid transitions", func() {
				_, err := svc.Click(ctx, g.ID, 0)
				So(errors.Is(err, game.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When the index is outside the grid", func() {
			_, err := svc.Click(ctx, g.ID, len(g.Cells))

			Convey("Then the click is rejected and the game keeps playing", func() {
				So(errors.Is(err, game.ErrInvalidCell), ShouldBeTrue)
				got, _ := svc.Game(ctx, g.ID)
				So(got.State, ShouldEqual, "playing")
			})
		})
	})
}

func TestService_TickAndRestart(t *testing.T) {
	Convey("Given a playing game with a one second round", t, func() {
		svc := newStarted(service.WithRoundTime(time.Second))
		defer svc.Stop()
		ctx := context.Background()
		g, err := svc.NewGame(ctx, "ada", challenge.Hard)
		So(err, ShouldBeNil)

		Convey("When less than the round time passes", func() {
			So(svc.TickAll(ctx, 400*time.Millisecond), ShouldEqual, 0)

			Convey("Then the countdown shrinks", func() {
				got, _ := svc.Game(ctx, g.ID)
				So(got.RemainingMS, ShouldEqual, int64(600))
				So(got.State, ShouldEqual, "playing")
			})
		})

		Convey("When the countdown runs out", func() {
			So(svc.TickAll(ctx, 1500*time.Millisecond), ShouldEqual, 1)

			Convey("Then the game ends on timeout", func() {
				got, _ := svc.Game(ctx, g.ID)
				So(got.State, ShouldEqual, "gameover")
				So(got.Reason, ShouldEqual, "timeout")
				So(got.RemainingMS, ShouldEqual, int64(0))
			})

			Convey("And finished games are not ticked again", func() {
				So(svc.TickAll(ctx, time.Second), ShouldEqual, 0)
			})

			Convey("And the session can be restarted at level 1", func() {
				again, err := svc.Restart(ctx, g.ID)
				So(err, ShouldBeNil)
				So(again.ID, ShouldEqual, g.ID)
				So(again.State, ShouldEqual, "playing")
				So(again.Level, ShouldEqual, 1)
				So(again.Tier, ShouldEqual, "hard")
				So(again.Reason, ShouldBeEmpty)
			})
		})

		Convey("When a playing game is restarted", func() {
			_, err := svc.Restart(ctx, g.ID)
			So(errors.Is(err, game.ErrInvalidTransition), ShouldBeTrue)
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a service holding a single session", t, func() {
		now := time.Unix(1_700_000_000, 0)
		svc := newStarted(
			service.WithMaxSessions(1),
			service.WithSessionTTL(time.Minute),
			service.WithClock(func() time.Time { return now }),
		)
		defer svc.Stop()
		ctx := context.Background()

		g, err := svc.NewGame(ctx, "ada", challenge.Easy)
		So(err, ShouldBeNil)

		Convey("When another player joins while it is playing", func() {
			_, err := svc.NewGame(ctx, "bob", challenge.Easy)
			So(errors.Is(err, service.ErrTooManySessions), ShouldBeTrue)
		})

		Convey("When the game is over but still fresh", func() {
			_, err := svc.Click(ctx, g.ID, wrongCell(g))
			So(err, ShouldBeNil)
			now = now.Add(30 * time.Second)

			Convey("Then it is not evicted", func() {
				So(svc.EvictExpired(ctx), ShouldEqual, 0)
				_, err := svc.Game(ctx, g.ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the finished game outlives the TTL", func() {
			_, err := svc.Click(ctx, g.ID, wrongCell(g))
			So(err, ShouldBeNil)
			now = now.Add(2 * time.Minute)

			Convey("Then a new player takes the freed seat", func() {
				other, err := svc.NewGame(ctx, "bob", challenge.Easy)
				So(err, ShouldBeNil)
				So(other.Player, ShouldEqual, "bob")
				_, err = svc.Game(ctx, g.ID)
				So(errors.Is(err, service.ErrGameNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an idle playing session past the TTL", t, func() {
		now := time.Unix(1_700_000_000, 0)
		svc := newStarted(
			service.WithSessionTTL(time.Minute),
			service.WithClock(func() time.Time { return now }),
		)
		defer svc.Stop()
		ctx := context.Background()
		_, err := svc.NewGame(ctx, "ada", challenge.Easy)
		So(err, ShouldBeNil)
		now = now.Add(time.Hour)

		Convey("Then it is kept until its game ends", func() {
			So(svc.EvictExpired(ctx), ShouldEqual, 0)
			So(svc.GetStats()["activeSessions"], ShouldEqual, 1)
		})
	})
}
