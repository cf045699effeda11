package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidPoints = errors.New("invalid points")
	ErrInvalidPlayer = errors.New("invalid player id")
)
