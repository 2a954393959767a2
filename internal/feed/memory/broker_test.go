package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/testutil"
)

type BrokerSuite struct {
	suite.Suite
	broker *Broker
	ctx    context.Context
	now    time.Time
}

func TestBrokerSuite(t *testing.T) {
	suite.Run(t, new(BrokerSuite))
}

func (s *BrokerSuite) SetupTest() {
	s.broker = New(testutil.NopLogger())
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *BrokerSuite) TearDownTest() {
	_ = s.broker.Close()
}

func (s *BrokerSuite) record(id string, number int) model.PlayerRecord {
	return model.PlayerRecord{ID: model.PlayerID(id), Name: id, Number: number, Status: model.PlayerStatusAlive, GameID: "g1"}
}

func (s *BrokerSuite) receive(sub feed.Subscription) model.ChangeEvent {
	select {
	case evt, ok := <-sub.Events():
		s.Require().True(ok, "subscription closed unexpectedly")
		return evt
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for event")
	}
	return model.ChangeEvent{}
}

func (s *BrokerSuite) TestDeliversInPublishOrder() {
	sub, err := s.broker.Subscribe(s.ctx, "g1")
	s.Require().NoError(err)
	defer func() { _ = sub.Close() }()

	s.Require().NoError(s.broker.Publish(s.ctx, model.PlayerInserted(s.record("p1", 1), s.now)))
	s.Require().NoError(s.broker.Publish(s.ctx, model.PlayerUpdated(s.record("p1", 2), s.now)))
	s.Require().NoError(s.broker.Publish(s.ctx, model.PlayerDeleted("g1", "p1", s.now)))

	s.Equal(model.ChangePlayerInserted, s.receive(sub).Type)
	updated := s.receive(sub)
	s.Equal(model.ChangePlayerUpdated, updated.Type)
	s.Equal(2, updated.Record.Number)
	deleted := s.receive(sub)
	s.Equal(model.ChangePlayerDeleted, deleted.Type)
	s.Equal(model.PlayerID("p1"), deleted.PlayerID())
}

func (s *BrokerSuite) TestFansOutToAllSubscribersOfGame() {
	a, err := s.broker.Subscribe(s.ctx, "g1")
	s.Require().NoError(err)
	b, err := s.broker.Subscribe(s.ctx, "g1")
	s.Require().NoError(err)
	other, err := s.broker.Subscribe(s.ctx, "g2")
	s.Require().NoError(err)

	s.Require().NoError(s.broker.Publish(s.ctx, model.PlayerInserted(s.record("p1", 1), s.now)))

	s.Equal(model.PlayerID("p1"), s.receive(a).PlayerID())
	s.Equal(model.PlayerID("p1"), s.receive(b).PlayerID())
	select {
	case evt := <-other.Events():
		s.Failf("unexpected event on other game", "%+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *BrokerSuite) TestPublishWithoutSubscribersIsNoop() {
	s.NoError(s.broker.Publish(s.ctx, model.PlayerInserted(s.record("p1", 1), s.now)))
	s.Equal(0, s.broker.HubCount())
}

func (s *BrokerSuite) TestCloseSubscriptionClosesChannelAndDropsHub() {
	sub, err := s.broker.Subscribe(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(1, s.broker.HubCount())

	s.Require().NoError(sub.Close())
	s.Require().NoError(sub.Close())

	_, ok := <-sub.Events()
	s.False(ok)
	s.Equal(0, s.broker.HubCount())
}

func (s *BrokerSuite) TestSlowSubscriberIsDisconnected() {
	sub, err := s.broker.Subscribe(s.ctx, "g1")
	s.Require().NoError(err)

	for i := 0; i < subscriberBufferSize+10; i++ {
		s.Require().NoError(s.broker.Publish(s.ctx, model.PlayerUpdated(s.record("p1", i%456+1), s.now)))
	}

	s.broker.mu.Lock()
	hub := s.broker.hubs["g1"]
	s.broker.mu.Unlock()
	s.Require().NotNil(hub)

	s.Eventually(func() bool {
		return hub.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	received := 0
	for range sub.Events() {
		received++
	}
	s.Equal(subscriberBufferSize, received)
}

func (s *BrokerSuite) TestClosedBrokerRejects() {
	s.Require().NoError(s.broker.Close())

	_, err := s.broker.Subscribe(s.ctx, "g1")
	s.ErrorIs(err, feed.ErrClosed)
	s.ErrorIs(s.broker.Publish(s.ctx, model.PlayerDeleted("g1", "p1", s.now)), feed.ErrClosed)
}
