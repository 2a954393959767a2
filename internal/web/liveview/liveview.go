// Package liveview streams a game's roster to a browser over server-sent
// events. Each connection owns its own roster store and change-feed
// consumer, released when the client goes away.
package liveview

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// EventName is the SSE event carrying roster fragments
	EventName = "roster-update"
)

// RenderFunc renders the fragments for the current roster and outcome.
// Fragments are usually OOB swaps.
type RenderFunc func(players []model.Player, outcome roster.Outcome) templ.Component

// Config describes one live view connection
type Config struct {
	Subscriber feed.Subscriber
	GameID     model.GameID
	// Seed loads the initial roster once the feed is open
	Seed   roster.SeedFunc
	Render RenderFunc
	// Kind labels the live-view gauge
	Kind    string
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// PingPeriod overrides the keepalive interval
	PingPeriod time.Duration
}

// Serve handles the SSE connection until the client disconnects or the
// change feed drops. Errors before the stream starts are written as plain
// HTTP errors.
func Serve(w http.ResponseWriter, r *http.Request, cfg Config) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	logger := cfg.Logger.With(
		slog.String("component", "liveview"),
		slog.String("game_id", string(cfg.GameID)),
		slog.String("kind", cfg.Kind))

	store := roster.NewStore()
	changed := make(chan struct{}, 1)
	consumer := roster.NewConsumer(cfg.Subscriber, store, logger, roster.WithOnApply(func(model.ChangeEvent) {
		// Coalesce: one pending re-render covers any number of events
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	if err := consumer.Subscribe(r.Context(), cfg.GameID, cfg.Seed); err != nil {
		logger.Warn("live view not started", slog.Any("error", err))
		if errors.Is(err, model.ErrGameNotFound) {
			http.Error(w, model.MsgGameNotFound, http.StatusNotFound)
			return
		}
		http.Error(w, model.MsgLoadFailed, http.StatusInternalServerError)
		return
	}
	defer consumer.Close()

	closeView := cfg.Metrics.ViewOpened(cfg.Kind)
	defer closeView()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Send initial connection event
	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	send := func() bool {
		msg, err := renderMessage(r.Context(), store, cfg.Render)
		if err != nil {
			logger.Error("live view render failed", slog.Any("error", err))
			return false
		}
		if _, err := w.Write(msg); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// The page may have been rendered before writes that the seed picked up
	if !send() {
		return
	}

	period := cfg.PingPeriod
	if period <= 0 {
		period = pingPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	done := consumer.Done()
	for {
		select {
		case <-changed:
			if !send() {
				return
			}

		case <-done:
			// Feed dropped; the client reconnects and reloads
			return

		case <-ticker.C:
			// Send keepalive comment
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

func renderMessage(ctx context.Context, store *roster.Store, render RenderFunc) ([]byte, error) {
	players := store.Players()
	var buf bytes.Buffer
	if err := render(players, roster.Evaluate(players)).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return FormatMessage(EventName, buf.String()), nil
}

// FormatMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func FormatMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	// SSE requires each line of data to be prefixed with "data: "
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
