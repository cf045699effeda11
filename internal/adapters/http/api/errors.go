package api

import (
	"errors"
	"net/http"

	"github.com/okian/huehunt/internal/adapters/repository"
	service "github.com/okian/huehunt/internal/app"
	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/game"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// statusFor maps a handler error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, challenge.ErrInvalidArgument),
		errors.Is(err, game.ErrInvalidCell),
		errors.Is(err, service.ErrInvalidPlayer),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
