// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/huehunt/pkg/logger"
	"github.com/okian/huehunt/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusConflict        = 409
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// MetricsMiddleware records Prometheus metrics per matched route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := routePattern(r)
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		statusCodeStr := strconv.Itoa(status)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if status >= statusBadRequest {
			metrics.RecordErrorByComponent("http", getErrorType(status))
		}
	})
}

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []logger.Field{
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= statusInternalError {
			logger.Get().Warn(r.Context(), "request failed", fields...)
			return
		}
		logger.Get().Debug(r.Context(), "request completed", fields...)
	})
}

// routePattern keeps label cardinality bounded: /api/games/{id}, not the id.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusConflict:
		return "conflict"
	case statusCode == statusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}
