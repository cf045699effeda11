// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

const defaultLeaderboardLimit = 10

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /api/leaderboard?limit=N requests.
// A missing limit means the default page size.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := min(defaultLeaderboardLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeFailure(w, op, fmt.Errorf("%w: limit %q", ErrBadRequest, limitStr))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeFailure(w, op, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, h.maxLimit))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
