package worker

import (
	"github.com/okian/huehunt/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnRecorded registers a hook called after every processed result,
// with whether it improved the player's best.
func WithOnRecorded(fn func(r Result, improved bool)) Option {
	return func(w *InMemoryWorker) {
		w.onRecorded = fn
	}
}
