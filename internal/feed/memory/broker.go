// Package memory is an in-process change feed with one hub per game.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/model"
)

const (
	// Buffer size for each subscriber's event channel
	subscriberBufferSize = 256

	// Buffer size for a hub's inbound events
	hubBufferSize = 256
)

// subscription is a single subscriber registered with a hub
type subscription struct {
	hub       *Hub
	broker    *Broker
	events    chan model.ChangeEvent
	closeOnce sync.Once
}

func (s *subscription) Events() <-chan model.ChangeEvent {
	return s.events
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.broker.release(s.hub, s)
	})
	return nil
}

// Hub fans change events for a single game out to its subscribers
type Hub struct {
	gameID model.GameID
	subs   map[*subscription]bool
	mu     sync.RWMutex
	logger *slog.Logger

	broadcast chan model.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameID model.GameID, logger *slog.Logger) *Hub {
	return &Hub{
		gameID:    gameID,
		subs:      make(map[*subscription]bool),
		logger:    logger.With(slog.String("game_id", string(gameID))),
		broadcast: make(chan model.ChangeEvent, hubBufferSize),
		done:      make(chan struct{}),
	}
}

// Run delivers events in the order they were published until the hub is closed
func (h *Hub) Run() {
	h.logger.Debug("feed hub started")
	for {
		select {
		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.done:
			h.mu.Lock()
			count := len(h.subs)
			for sub := range h.subs {
				close(sub.events)
				delete(h.subs, sub)
			}
			h.mu.Unlock()
			h.logger.Debug("feed hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

// deliver sends event to every subscriber. A subscriber whose buffer is
// full is disconnected rather than skipped, so nobody sees a gap.
func (h *Hub) deliver(event model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.events <- event:
		default:
			close(sub.events)
			delete(h.subs, sub)
			h.logger.Warn("feed subscriber disconnected - buffer full",
				slog.String("player_id", string(event.PlayerID())))
		}
	}
}

func (h *Hub) add(sub *subscription) {
	h.mu.Lock()
	h.subs[sub] = true
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("feed subscriber registered", slog.Int("total_subscribers", count))
}

// remove unregisters sub and returns the number of subscribers left
func (h *Hub) remove(sub *subscription) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.events)
	}
	return len(h.subs)
}

func (h *Hub) publish(ctx context.Context, event model.ChangeEvent) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the hub and disconnects its subscribers
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broker manages hubs for all games
type Broker struct {
	hubs   map[model.GameID]*Hub
	mu     sync.Mutex
	logger *slog.Logger
	closed bool
}

// New creates an in-memory feed broker
func New(logger *slog.Logger) *Broker {
	return &Broker{
		hubs:   make(map[model.GameID]*Hub),
		logger: logger.With(slog.String("component", "feed")),
	}
}

var _ feed.Broker = (*Broker)(nil)

// Publish hands event to the game's hub. Games nobody watches are skipped.
func (b *Broker) Publish(ctx context.Context, event model.ChangeEvent) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return feed.ErrClosed
	}
	hub := b.hubs[event.GameID]
	b.mu.Unlock()

	if hub == nil {
		return nil
	}
	return hub.publish(ctx, event)
}

// Subscribe registers a new subscriber on the game's hub, creating it if needed
func (b *Broker) Subscribe(_ context.Context, gameID model.GameID) (feed.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, feed.ErrClosed
	}

	hub, ok := b.hubs[gameID]
	if !ok {
		hub = NewHub(gameID, b.logger)
		b.hubs[gameID] = hub
		go hub.Run()
	}

	sub := &subscription{
		hub:    hub,
		broker: b,
		events: make(chan model.ChangeEvent, subscriberBufferSize),
	}
	hub.add(sub)
	return sub, nil
}

// release removes sub and drops the hub once it has no subscribers left
func (b *Broker) release(hub *Hub, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if hub.remove(sub) > 0 {
		return
	}
	if b.hubs[hub.gameID] == hub {
		delete(b.hubs, hub.gameID)
	}
	hub.Close()
}

// HubCount returns the number of games with live subscribers
func (b *Broker) HubCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hubs)
}

// Close shuts down every hub
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, hub := range b.hubs {
		hub.Close()
		delete(b.hubs, id)
	}
	return nil
}
