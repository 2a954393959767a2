// Package feed carries row-level player change events from the service
// layer to live views.
package feed

import (
	"context"
	"errors"

	"github.com/mcoot/squidgame/internal/model"
)

// ErrClosed is returned when publishing to or subscribing on a closed feed
var ErrClosed = errors.New("feed closed")

// Publisher emits committed player changes
type Publisher interface {
	Publish(ctx context.Context, event model.ChangeEvent) error
}

// Subscription is one consumer's view of a game's change stream.
// Events is closed when the subscription ends for any reason.
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}

// Subscriber opens per-game change streams
type Subscriber interface {
	Subscribe(ctx context.Context, gameID model.GameID) (Subscription, error)
}

// Broker is both ends of a feed
type Broker interface {
	Publisher
	Subscriber
}
