package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/squidgame/internal/api/apierr"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/middleware"
)

// Recovery answers a panicking API request with INTERNAL_ERROR
func Recovery(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, m, surface, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
