package middleware

import (
	"net/http"
	"time"

	"github.com/mcoot/squidgame/internal/metrics"
)

// Metrics records request durations for a surface ("web" or "api")
func Metrics(m *metrics.Metrics, surface string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &ResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			m.ObserveRequest(surface, r.Method, wrapped.status, time.Since(start))
		})
	}
}
