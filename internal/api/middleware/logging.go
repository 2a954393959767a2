package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/middleware"
)

const surface = "api"

// Logging creates logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger, surface)
}

// Metrics records API request durations
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return middleware.Metrics(m, surface)
}
