package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/huehunt/internal/adapters/http/api"
	repository "github.com/okian/huehunt/internal/adapters/repository"
	service "github.com/okian/huehunt/internal/app"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/game"
	"github.com/okian/huehunt/internal/domain/types"
	"github.com/okian/huehunt/internal/i18n"
	"github.com/okian/huehunt/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies records calls and returns canned results.
type mockDependencies struct {
	game      types.Game
	click     types.ClickResult
	err       error
	lastTier  challenge.Tier
	lastIndex int
	topN      []types.Entry
	lastLimit int
	rank      types.Entry
	stats     map[string]interface{}
}

func (m *mockDependencies) DefaultTier() challenge.Tier { return challenge.Normal }

func (m *mockDependencies) NewGame(_ context.Context, player string, tier challenge.Tier) (types.Game, error) {
	m.lastTier = tier
	g := m.game
	g.Player = player
	return g, m.err
}

func (m *mockDependencies) Game(context.Context, string) (types.Game, error) {
	return m.game, m.err
}

func (m *mockDependencies) Click(_ context.Context, _ string, index int) (types.ClickResult, error) {
	m.lastIndex = index
	return m.click, m.err
}

func (m *mockDependencies) Restart(context.Context, string) (types.Game, error) {
	return m.game, m.err
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]types.Entry, error) {
	m.lastLimit = n
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Rank(context.Context, string) (types.Entry, error) {
	return m.rank, m.err
}

func (m *mockDependencies) GetStats() map[string]interface{} { return m.stats }

func newTestRouter(deps api.Dependencies) http.Handler {
	cat, err := i18n.Load(context.Background())
	if err != nil {
		panic(err)
	}
	r := api.NewRouter()
	api.NewServer(deps, cat, 50).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestGamesRoutes(t *testing.T) {
	Convey("Given an API over mock dependencies", t, func() {
		deps := &mockDependencies{
			game:  types.Game{ID: "g-1", State: "playing", Tier: "easy", Level: 1, GridSize: 2, Cells: make([]types.Swatch, 4)},
			click: types.ClickResult{Outcome: "correct", Game: types.Game{ID: "g-1", Level: 2}},
		}
		h := newTestRouter(deps)

		Convey("When a game is created with a tier", func() {
			w := do(h, "POST", "/api/games", `{"player":"ada","tier":"Hard"}`)

			Convey("Then it returns 201 with the game", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/api/games/g-1")
				var g types.Game
				So(json.Unmarshal(w.Body.Bytes(), &g), ShouldBeNil)
				So(g.ID, ShouldEqual, "g-1")
				So(g.Player, ShouldEqual, "ada")
				So(deps.lastTier, ShouldEqual, challenge.Hard)
			})
		})

		Convey("When a game is created without a tier", func() {
			w := do(h, "POST", "/api/games", `{"player":"ada"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.lastTier, ShouldEqual, challenge.Normal)
		})

		Convey("When the request is malformed", func() {
			cases := []struct {
				name string
				body string
			}{
				{"unknown tier", `{"player":"ada","tier":"nightmare"}`},
				{"bad json", `{"player":`},
				{"unknown field", `{"player":"ada","speed":3}`},
			}
			for _, c := range cases {
				w := do(h, "POST", "/api/games", c.body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When a game is read", func() {
			w := do(h, "GET", "/api/games/g-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
		})

		Convey("When a click is posted", func() {
			w := do(h, "POST", "/api/games/g-1/clicks", `{"index":3}`)

			Convey("Then the outcome is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res types.ClickResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Outcome, ShouldEqual, "correct")
				So(res.Game.Level, ShouldEqual, 2)
				So(deps.lastIndex, ShouldEqual, 3)
			})
		})

		Convey("When a click omits the index", func() {
			w := do(h, "POST", "/api/games/g-1/clicks", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldContainSubstring, "missing index")
		})

		Convey("When a restart is posted", func() {
			w := do(h, "POST", "/api/games/g-1/restart", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the wrong method is used", func() {
			w := do(h, "DELETE", "/api/games/g-1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given service errors", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("wrap: %w", service.ErrGameNotFound), http.StatusNotFound, "not_found"},
			{repository.ErrNotFound, http.StatusNotFound, "not_found"},
			{game.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
			{game.ErrInvalidCell, http.StatusBadRequest, "bad_request"},
			{service.ErrInvalidPlayer, http.StatusBadRequest, "bad_request"},
			{challenge.ErrInvalidArgument, http.StatusBadRequest, "bad_request"},
			{service.ErrTooManySessions, http.StatusTooManyRequests, "too_many_sessions"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error"},
		}

		for _, c := range cases {
			Convey(fmt.Sprintf("Then %v maps to %d", c.err, c.status), func() {
				h := newTestRouter(&mockDependencies{err: c.err})
				w := do(h, "POST", "/api/games/g-1/clicks", `{"index":0}`)
				So(w.Code, ShouldEqual, c.status)
				So(decodeError(w)["code"], ShouldEqual, c.code)
			})
		}
	})
}

func TestLeaderboardRoutes(t *testing.T) {
	Convey("Given a leaderboard with entries", t, func() {
		deps := &mockDependencies{
			topN: []types.Entry{
				{Rank: 1, PlayerID: "ada", Points: 12},
				{Rank: 1, PlayerID: "bob", Points: 12},
				{Rank: 3, PlayerID: "cy", Points: 4},
			},
			rank: types.Entry{Rank: 3, PlayerID: "cy", Points: 4},
		}
		h := newTestRouter(deps)

		Convey("When the limit is given", func() {
			w := do(h, "GET", "/api/leaderboard?limit=2", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(len(entries), ShouldEqual, 2)
			So(entries[1].Rank, ShouldEqual, 1)
		})

		Convey("When the limit is omitted", func() {
			w := do(h, "GET", "/api/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 10)
		})

		Convey("When the limit is invalid or too large", func() {
			for _, q := range []string{"0", "-1", "abc"} {
				w := do(h, "GET", "/api/leaderboard?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
			w := do(h, "GET", "/api/leaderboard?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When a rank is requested", func() {
			w := do(h, "GET", "/api/rank/cy", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var e types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
			So(e.Rank, ShouldEqual, 3)
		})
	})
}

func TestCatalogRoutes(t *testing.T) {
	Convey("Given the API with the embedded catalog", t, func() {
		h := newTestRouter(&mockDependencies{})

		Convey("When tiers are listed in Chinese", func() {
			w := do(h, "GET", "/api/tiers?lang=zh-CN", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var tiers []types.Tier
			So(json.Unmarshal(w.Body.Bytes(), &tiers), ShouldBeNil)

			Convey("Then every tier carries its curve and localized label", func() {
				So(len(tiers), ShouldEqual, 3)
				So(tiers[0].Name, ShouldEqual, "easy")
				So(tiers[0].Label, ShouldEqual, "简单")
				So(tiers[0].BaseDelta, ShouldEqual, 25.0)
				So(tiers[2].Decay, ShouldEqual, 0.92)
			})
		})

		Convey("When strings are requested via Accept-Language", func() {
			req := httptest.NewRequest("GET", "/api/strings", http.NoBody)
			req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.5")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			var body struct {
				Lang    string            `json:"lang"`
				Strings map[string]string `json:"strings"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Lang, ShouldEqual, "zh")
			So(body.Strings["leaderboard"], ShouldEqual, "排行榜")
		})

		Convey("When an unsupported language is requested", func() {
			w := do(h, "GET", "/api/strings?lang=fr", "")
			So(w.Body.String(), ShouldContainSubstring, `"lang":"en"`)
			So(w.Body.String(), ShouldContainSubstring, "Hue Hunt")
		})
	})
}

func TestServiceRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newTestRouter(&mockDependencies{stats: map[string]interface{}{"started": true}})

		Convey("Then /healthz exposes Prometheus metrics", func() {
			_ = do(h, "GET", "/api/tiers", "")
			w := do(h, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "huehunt_")
		})

		Convey("And /stats returns the provider's map", func() {
			w := do(h, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And requests carry a request id", func() {
			w := do(h, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		svc := service.New(service.WithTickInterval(0), service.WithExposeTarget(true), service.WithSeed(5))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		h := newTestRouter(svc)

		w := do(h, "POST", "/api/games", `{"player":"ada","tier":"easy"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var g types.Game
		So(json.Unmarshal(w.Body.Bytes(), &g), ShouldBeNil)

		Convey("When the target and then a base swatch are clicked", func() {
			w = do(h, "POST", "/api/games/"+g.ID+"/clicks", fmt.Sprintf(`{"index":%d}`, *g.TargetIndex))
			So(w.Code, ShouldEqual, http.StatusOK)
			var res types.ClickResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Outcome, ShouldEqual, "correct")

			wrong := (*res.Game.TargetIndex + 1) % len(res.Game.Cells)
			w = do(h, "POST", "/api/games/"+g.ID+"/clicks", fmt.Sprintf(`{"index":%d}`, wrong))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)

			Convey("Then the game is over and further clicks conflict", func() {
				So(res.Outcome, ShouldEqual, "wrong")
				So(res.Game.State, ShouldEqual, "gameover")
				So(res.Game.Score, ShouldEqual, 1)

				w = do(h, "POST", "/api/games/"+g.ID+"/clicks", `{"index":0}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("And the session can be restarted", func() {
				w = do(h, "POST", "/api/games/"+g.ID+"/restart", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"level":1`)
			})
		})

		Convey("When a click is out of range", func() {
			w = do(h, "POST", "/api/games/"+g.ID+"/clicks", `{"index":999}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown game is read", func() {
			w = do(h, "GET", "/api/games/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
