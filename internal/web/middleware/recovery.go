package middleware

import (
	"html"
	"log/slog"
	"net/http"

	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/middleware"
	"github.com/mcoot/squidgame/internal/model"
)

// Recovery answers a panicking page with an error page. htmx requests get
// the message alone and leave the current page in place.
func Recovery(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, m, surface, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	msg := html.EscapeString(model.MsgSomethingWrong)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(msg))
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Error | Squid Game</title></head>
<body>
<h1>` + msg + `</h1>
<p><a href="/">Back to home</a></p>
</body>
</html>`))
}
