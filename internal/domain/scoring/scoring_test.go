package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/huehunt/internal/domain/challenge"
	scoring "github.com/okian/huehunt/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTierScorer_Score(t *testing.T) {
	Convey("Given a scorer with configured tier weights", t, func() {
		scorer := scoring.NewTierScorer(
			scoring.WithTierWeightsFromConfig(map[string]float64{
				"easy":   1,
				"Normal": 2,
				"hard":   3,
				"brutal": 9,
			}, 0.5),
		)
		ctx := context.Background()

		Convey("When scoring a hard game", func() {
			res, err := scorer.Score(ctx, scoring.Input{PlayerID: "ada", Tier: challenge.Hard, Cleared: 7})

			Convey("Then points are cleared levels times the weight", func() {
				So(err, ShouldBeNil)
				So(res.PlayerID, ShouldEqual, "ada")
				So(res.Points, ShouldEqual, 21.0)
			})
		})

		Convey("When tier names differ in case", func() {
			So(scorer.Weight(challenge.Normal), ShouldEqual, 2.0)
		})

		Convey("When a game cleared nothing", func() {
			res, err := scorer.Score(ctx, scoring.Input{PlayerID: "bob", Tier: challenge.Easy})
			So(err, ShouldBeNil)
			So(res.Points, ShouldEqual, 0.0)
		})

		Convey("When the cleared count is negative", func() {
			_, err := scorer.Score(ctx, scoring.Input{PlayerID: "bob", Tier: challenge.Easy, Cleared: -1})
			So(errors.Is(err, scoring.ErrNegativeScore), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.Score(cctx, scoring.Input{PlayerID: "bob", Tier: challenge.Easy, Cleared: 2})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a scorer without weights", t, func() {
		scorer := scoring.NewTierScorer()

		Convey("Then every tier falls back to the default weight", func() {
			for _, tier := range challenge.Tiers() {
				So(scorer.Weight(tier), ShouldEqual, 1.0)
			}
		})
	})

	Convey("Given a partial weight map", t, func() {
		scorer := scoring.NewTierScorer(scoring.WithTierWeightsFromConfig(map[string]float64{"hard": 4, "easy": -1}, 0.5))

		Convey("Then missing and invalid tiers use the default", func() {
			So(scorer.Weight(challenge.Hard), ShouldEqual, 4.0)
			So(scorer.Weight(challenge.Easy), ShouldEqual, 0.5)
			So(scorer.Weight(challenge.Normal), ShouldEqual, 0.5)
		})
	})
}
