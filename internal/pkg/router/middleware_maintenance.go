package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/trafficai/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints. Entries are a route path ("/send-otp"), a method
// and path ("POST /send-otp"), or "*" for every
// application route. The built-in / and /health routes are never blocked.
func middlewareMaintenance(cfg config.Config) Middleware {
	all := false
	endpoints := make(map[string]struct{})
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			endpoint = strings.TrimSpace(endpoint)
			switch endpoint {
			case "":
			case "*":
				all = true
			default:
				endpoints[endpoint] = struct{}{}
			}
		}
	}

	blocked := func(r *http.Request) bool {
		route := matchedRoutePath(r)
		if all {
			return true
		}
		if _, ok := endpoints[route]; ok {
			return true
		}
		_, ok := endpoints[r.Method+" "+route]
		return ok
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if blocked(r) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
