// Package site serves the embedded browser game.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

// Register attaches the browser game to r at the root path. API routes
// registered on the same router take precedence.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Handle("/*", NewRootHandler())
}

// RootHandler serves the embedded game files.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP serves index.html at / and static assets below it.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
