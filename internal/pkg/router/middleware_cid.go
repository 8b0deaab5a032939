package router

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative header name used by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCIDLen = 128
)

// normalizeCID drops values that would corrupt log lines or response headers.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.IndexFunc(v, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		return ""
	}
	if len(v) > maxCIDLen {
		v = v[:maxCIDLen]
	}
	return v
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cid string
			for _, h := range []string{HeaderCorrelationID, HeaderRequestID} {
				if cid = normalizeCID(r.Header.Get(h)); cid != "" {
					break
				}
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
