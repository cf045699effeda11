package service

import "errors"

// Sentinel kinds for session errors.
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrInvalidPlayer   = errors.New("invalid player name")
	ErrNotStarted      = errors.New("service not started")
)
