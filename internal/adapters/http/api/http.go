// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/types"
)

const (
	maxBodyBytes   = 1 << 14
	requestTimeout = 30 * time.Second
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// GameService drives play sessions.
type GameService interface {
	DefaultTier() challenge.Tier
	NewGame(ctx context.Context, player string, tier challenge.Tier) (types.Game, error)
	Game(ctx context.Context, id string) (types.Game, error)
	Click(ctx context.Context, id string, index int) (types.ClickResult, error)
	Restart(ctx context.Context, id string) (types.Game, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	GameService
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Localizer resolves UI strings for a language preference.
type Localizer interface {
	Match(prefs ...string) language.Tag
	Text(tag language.Tag, key string) string
	Bundle(tag language.Tag) map[string]string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	catalogHandler     *CatalogHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, loc Localizer, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
		catalogHandler:     NewCatalogHandler(loc),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// NewRouter returns a chi router with the shared middleware stack installed.
func NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/tiers", s.catalogHandler.HandleTiers)
		r.Get("/strings", s.catalogHandler.HandleStrings)
		r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
		r.Get("/rank/{player}", s.rankHandler.HandleGetRank)

		r.Route("/games", func(r chi.Router) {
			r.Post("/", s.gamesHandler.HandleCreate)
			r.Get("/{id}", s.gamesHandler.HandleGet)
			r.Post("/{id}/clicks", s.gamesHandler.HandleClick)
			r.Post("/{id}/restart", s.gamesHandler.HandleRestart)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes it.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
