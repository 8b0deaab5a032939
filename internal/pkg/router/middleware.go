package router

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
)

// Middleware wraps an http.Handler with cross-cutting behavior.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws to h so that the first middleware is the outermost one.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}

// middlewareRateLimit caps requests per client IP. A non-positive limit
// disables it.
func middlewareRateLimit(cfg config.Config) Middleware {
	if cfg == nil {
		return nil
	}

	requests := cfg.GetInt("app.server.rate_limit.requests")
	window := cfg.GetSecond("app.server.rate_limit.window_seconds")
	if requests <= 0 || window <= 0 {
		return nil
	}

	return RateLimit(requests, window)
}

// RateLimit returns a per-client-IP limiter answering 429 in the service envelope.
func RateLimit(requests int, window time.Duration) Middleware {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
		}),
	)
}
