package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/trafficai/internal/pkg/stacktrace"
)

//nolint:errcheck,gosec,contextcheck // ignore error
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // this must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", stacktrace.Summary(debug.Stack()))

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Message: "Internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}
