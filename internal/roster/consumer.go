package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/model"
)

// State is the subscription state of a Consumer
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribed
)

func (s State) String() string {
	if s == StateSubscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// SeedFunc loads the initial roster once the subscription is open
type SeedFunc func(ctx context.Context) ([]model.Player, error)

// Consumer applies a game's change feed to a Store, one event at a time in
// delivery order. A dropped channel is not reconnected; the owner must
// Close and Subscribe again.
type Consumer struct {
	subscriber feed.Subscriber
	store      *Store
	logger     *slog.Logger
	onApply    func(model.ChangeEvent)

	mu     sync.Mutex
	state  State
	gameID model.GameID
	sub    feed.Subscription
	stop   chan struct{}
	done   chan struct{}
}

// Option configures a Consumer
type Option func(*Consumer)

// WithOnApply registers fn to run after each event that changed the store.
// fn runs on the consumer's goroutine and must not call Close.
func WithOnApply(fn func(model.ChangeEvent)) Option {
	return func(c *Consumer) {
		c.onApply = fn
	}
}

// NewConsumer creates an unsubscribed consumer feeding store
func NewConsumer(subscriber feed.Subscriber, store *Store, logger *slog.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		subscriber: subscriber,
		store:      store,
		logger:     logger.With(slog.String("component", "roster-consumer")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe opens the change feed for gameID. A subscription to another
// game is torn down first; subscribing again to the same game is a no-op.
//
// seed, if set, runs after the feed is open and before any event is
// applied, so writes committed while the initial load is in flight are
// applied on top of it rather than lost.
func (c *Consumer) Subscribe(ctx context.Context, gameID model.GameID, seed SeedFunc) error {
	if gameID == "" {
		return model.ErrMissingGameID
	}

	c.mu.Lock()
	if c.state == StateSubscribed && c.gameID == gameID {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.Close()

	sub, err := c.subscriber.Subscribe(ctx, gameID)
	if err != nil {
		return fmt.Errorf("subscribe to change feed: %w", err)
	}

	if seed != nil {
		players, err := seed(ctx)
		if err != nil {
			_ = sub.Close()
			return err
		}
		c.store.Reset(players)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	c.state = StateSubscribed
	c.gameID = gameID
	c.sub = sub
	c.stop = stop
	c.done = done
	c.mu.Unlock()

	c.logger.Debug("change feed subscribed", slog.String("game_id", string(gameID)))
	go c.run(gameID, sub, stop, done)
	return nil
}

// Close releases the subscription and returns to Unsubscribed. It waits for
// the apply loop to exit, so no event is applied after Close returns.
func (c *Consumer) Close() {
	c.mu.Lock()
	if c.state == StateUnsubscribed {
		c.mu.Unlock()
		return
	}
	sub, stop, done, gameID := c.sub, c.stop, c.done, c.gameID
	c.state = StateUnsubscribed
	c.gameID = ""
	c.sub = nil
	c.mu.Unlock()

	close(stop)
	if err := sub.Close(); err != nil {
		c.logger.Warn("closing change feed", slog.String("game_id", string(gameID)), slog.Any("error", err))
	}
	<-done
	c.logger.Debug("change feed unsubscribed", slog.String("game_id", string(gameID)))
}

// State returns the current subscription state
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GameID returns the subscribed game, or "" when unsubscribed
func (c *Consumer) GameID() model.GameID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Done is closed when the current subscription's apply loop exits, either
// because the feed dropped or because Close was called. It is nil when
// unsubscribed.
func (c *Consumer) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnsubscribed {
		return nil
	}
	return c.done
}

func (c *Consumer) run(gameID model.GameID, sub feed.Subscription, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				c.logger.Warn("change feed dropped", slog.String("game_id", string(gameID)))
				return
			}
			if c.apply(gameID, event) && c.onApply != nil {
				c.onApply(event)
			}
		case <-stop:
			return
		}
	}
}

// apply reconciles one event into the store, reporting whether it changed
// anything. Updates and deletes for absent ids are ignored.
func (c *Consumer) apply(gameID model.GameID, event model.ChangeEvent) bool {
	if event.GameID != "" && event.GameID != gameID {
		return false
	}

	switch event.Type {
	case model.ChangePlayerInserted:
		if event.Record == nil {
			c.logger.Warn("insert event without record", slog.String("game_id", string(gameID)))
			return false
		}
		c.store.Insert(model.TransformPlayer(*event.Record))
		return true
	case model.ChangePlayerUpdated:
		if event.Record == nil {
			c.logger.Warn("update event without record", slog.String("game_id", string(gameID)))
			return false
		}
		return c.store.Update(model.TransformPlayer(*event.Record))
	case model.ChangePlayerDeleted:
		return c.store.Remove(event.PlayerID())
	default:
		c.logger.Warn("unknown change event", slog.String("type", string(event.Type)))
		return false
	}
}
