package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/model"
)

// wsFeed subscribes to a game's change feed over the API's websocket
type wsFeed struct {
	baseURL string
	token   func() string
	dialer  *websocket.Dialer
}

func newWSFeed(baseURL string, token func() string) *wsFeed {
	return &wsFeed{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (f *wsFeed) feedURL(gameID model.GameID) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + gamePath(gameID, "/feed")
	return u.String(), nil
}

// Subscribe opens the feed. The handshake fails if the game is unknown.
func (f *wsFeed) Subscribe(ctx context.Context, gameID model.GameID) (feed.Subscription, error) {
	target, err := f.feedURL(gameID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token := f.token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := f.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, model.ErrGameNotFound
		}
		return nil, fmt.Errorf("connect to feed: %w", err)
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan model.ChangeEvent, 16),
		closed: make(chan struct{}),
	}
	go sub.readPump()
	return sub, nil
}

type wsSubscription struct {
	conn   *websocket.Conn
	events chan model.ChangeEvent

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *wsSubscription) Events() <-chan model.ChangeEvent {
	return s.events
}

// readPump decodes events until the connection drops or Close is called
func (s *wsSubscription) readPump() {
	defer close(s.events)
	for {
		var event model.ChangeEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			return
		}
		select {
		case s.events <- event:
		case <-s.closed:
			return
		}
	}
}

func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
