package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

// FeedHandler streams a game's change events over a WebSocket
type FeedHandler struct {
	gameController *game.Controller
	subscriber     feed.Subscriber
	upgrader       websocket.Upgrader
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewFeedHandler creates a new feed handler. Browsers may only connect
// from this host or one of allowedOrigins.
func NewFeedHandler(gameController *game.Controller, subscriber feed.Subscriber, allowedOrigins []string, m *metrics.Metrics, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		gameController: gameController,
		subscriber:     subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		metrics:        m,
		logger:         logger.With(slog.String("component", "api_feed")),
	}
}

// Stream handles GET /api/v1/games/{id}/feed. Each change event is sent as
// one JSON text message; the stream carries no initial snapshot.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	if _, err := h.gameController.GetGame(r.Context(), gameID); err != nil {
		WriteError(w, err)
		return
	}

	// Subscribe before upgrading so nothing committed after the client's
	// snapshot read is missed
	sub, err := h.subscriber.Subscribe(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer func() { _ = sub.Close() }()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	closeView := h.metrics.ViewOpened(metrics.ViewFeed)
	defer closeView()

	logger := h.logger.With(slog.String("game_id", string(gameID)))
	logger.Debug("feed client connected", slog.String("remote", r.RemoteAddr))

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Feed dropped; the client decides whether to reconnect
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("feed write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			logger.Debug("feed client disconnected")
			return

		case <-r.Context().Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// readPump discards client messages and closes done when the connection
// ends
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// checkOrigin admits requests without an Origin header, such as the CLI,
// pages served from the request's own host, and the allowed origins.
// Everything else is refused before the upgrade.
func checkOrigin(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
