package middleware

import (
	"net/http"
	"time"

	"github.com/templui/stash/internal/metrics"
)

// Metrics records request counts and latencies. Paths are labelled with the
// matched route pattern from mux so ids in URLs do not explode cardinality.
func Metrics(m *metrics.Metrics, mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			_, pattern := mux.Handler(r)
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveRequest(pattern, r.Method, rw.statusCode, time.Since(start))

			if rw.statusCode == http.StatusUnauthorized {
				m.AuthRejected("401_unauthorized")
			}
		})
	}
}
