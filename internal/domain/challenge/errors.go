package challenge

import "errors"

// Sentinel kinds for precondition failures. Every specific kind is reported
// together with ErrInvalidArgument so callers can match either.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidLevel    = errors.New("level must be >= 1")
	ErrInvalidTier     = errors.New("unknown difficulty tier")
	ErrNilRandom       = errors.New("random source is nil")
	ErrInvalidGridSize = errors.New("grid size must be >= 2")
)
