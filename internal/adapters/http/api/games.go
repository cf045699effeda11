package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/huehunt/internal/domain/challenge"
)

// GamesHandler handles the play endpoints.
type GamesHandler struct {
	deps GameService
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameService) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// newGameRequest mirrors the OpenAPI schema for POST /api/games.
type newGameRequest struct {
	Player string `json:"player"`
	Tier   string `json:"tier"`
}

func (g newGameRequest) tier(fallback challenge.Tier) (challenge.Tier, error) {
	if strings.TrimSpace(g.Tier) == "" {
		return fallback, nil
	}
	return challenge.ParseTier(g.Tier)
}

// clickRequest mirrors the OpenAPI schema for POST /api/games/{id}/clicks.
type clickRequest struct {
	Index *int `json:"index"`
}

// HandleCreate handles POST /api/games.
func (h *GamesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game"
	var req newGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	tier, err := req.tier(h.deps.DefaultTier())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	g, err := h.deps.NewGame(r.Context(), req.Player, tier)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	w.Header().Set("Location", "/api/games/"+g.ID)
	writeJSON(w, http.StatusCreated, g)
}

// HandleGet handles GET /api/games/{id}.
func (h *GamesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Game(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, "api.get_game", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleClick handles POST /api/games/{id}/clicks.
func (h *GamesHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.click"
	var req clickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	if req.Index == nil {
		writeFailure(w, op, fmt.Errorf("%w: missing index", ErrBadRequest))
		return
	}
	res, err := h.deps.Click(r.Context(), chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRestart handles POST /api/games/{id}/restart.
func (h *GamesHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, "api.restart_game", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
