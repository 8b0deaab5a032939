package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/trafficai/internal/pkg/config"
)

// proxyHeaders are consulted in order when the service runs behind a proxy.
var proxyHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the bare client address so the per-IP
// rate limit keys on the caller. Forwarding headers are honored only when
// app.server.trust_proxy_headers is set; otherwise any client could pick its
// own rate limit bucket.
func middlewareIP(cfg config.Config) Middleware {
	trust := cfg != nil && cfg.GetBool("app.server.trust_proxy_headers")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip, ok := clientIP(r, trust); ok {
				r.RemoteAddr = ip.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustHeaders bool) (netip.Addr, bool) {
	if trustHeaders {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if ip, err := netip.ParseAddr(strings.TrimSpace(v)); err == nil {
				return ip.Unmap(), true
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}
