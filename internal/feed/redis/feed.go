// Package redis is a change feed on Redis Pub/Sub, one channel per game.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/model"
)

const (
	channelPrefix = "sqgame:feed:game"

	// Buffer size for each subscriber's event channel
	subscriberBufferSize = 256
)

func channelName(gameID model.GameID) string {
	return fmt.Sprintf("%s:%s", channelPrefix, gameID)
}

// Feed publishes and subscribes to player changes over Redis Pub/Sub.
// Redis delivers messages on a channel in publish order.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Redis-backed feed using an existing client
func New(client *redis.Client, logger *slog.Logger) *Feed {
	return &Feed{
		client: client,
		logger: logger.With(slog.String("component", "feed-redis")),
	}
}

var _ feed.Broker = (*Feed)(nil)

// Publish sends event on the game's channel
func (f *Feed) Publish(ctx context.Context, event model.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return f.client.Publish(ctx, channelName(event.GameID), data).Err()
}

// Subscribe opens the game's channel and waits for Redis to confirm it
func (f *Feed) Subscribe(ctx context.Context, gameID model.GameID) (feed.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channelName(gameID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to game %s: %w", gameID, err)
	}

	sub := &subscription{
		pubsub: pubsub,
		events: make(chan model.ChangeEvent, subscriberBufferSize),
		done:   make(chan struct{}),
		logger: f.logger.With(slog.String("game_id", string(gameID))),
	}
	go sub.run()
	return sub, nil
}

type subscription struct {
	pubsub    *redis.PubSub
	events    chan model.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func (s *subscription) run() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var event model.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			s.logger.Warn("skipping malformed change event", slog.Any("error", err))
			continue
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
	s.logger.Debug("redis feed channel closed")
}

func (s *subscription) Events() <-chan model.ChangeEvent {
	return s.events
}

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
