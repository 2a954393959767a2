package players

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/dependencies/mocks"
	"github.com/mcoot/squidgame/internal/feed"
	feedmemory "github.com/mcoot/squidgame/internal/feed/memory"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/photos"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/storage/memory"
	"github.com/mcoot/squidgame/internal/testutil"
)

var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// heldPublisher blocks the first update event it sees until released
type heldPublisher struct {
	feed.Publisher
	once    sync.Once
	held    chan struct{}
	release chan struct{}
}

func newHeldPublisher(p feed.Publisher) *heldPublisher {
	return &heldPublisher{Publisher: p, held: make(chan struct{}), release: make(chan struct{})}
}

func (h *heldPublisher) Publish(ctx context.Context, event model.ChangeEvent) error {
	if event.Type == model.ChangePlayerUpdated {
		first := false
		h.once.Do(func() { first = true })
		if first {
			close(h.held)
			<-h.release
		}
	}
	return h.Publisher.Publish(ctx, event)
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	broker  *feedmemory.Broker
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	ids     *mocks.MockIDs
	games   *game.Controller
	service *Service
	ctx     context.Context

	host  *model.Host
	other *model.Host
	game  *model.Game
	feed  feed.Subscription
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.broker = feedmemory.New(testutil.NopLogger())
	s.clock = mocks.NewMockClock(time.Date(2024, 9, 17, 10, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ids = mocks.NewMockIDs("player")

	s.games = game.NewController(s.storage, s.clock, mocks.NewMockIDs("game"), testutil.NopLogger())
	store := photos.NewStore(afero.NewMemMapFs(), "/photos", 1024, testutil.NopLogger())
	s.service = New(s.storage, s.games, s.broker, store, s.clock, s.random, s.ids, metrics.New(), testutil.NopLogger())

	s.host = &model.Host{ID: "host-1", Email: "frontman@example.com"}
	s.other = &model.Host{ID: "host-2", Email: "recruiter@example.com"}

	var err error
	s.game, err = s.games.CreateGame(s.ctx, s.host, "Season 1")
	s.Require().NoError(err)
	_, err = s.games.SetJoinPassword(s.ctx, s.host, s.game.ID, "abc123")
	s.Require().NoError(err)

	s.feed, err = s.broker.Subscribe(s.ctx, s.game.ID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.broker.Close()
}

func (s *ServiceSuite) nextEvent() model.ChangeEvent {
	select {
	case ev, ok := <-s.feed.Events():
		s.Require().True(ok, "feed closed")
		return ev
	case <-time.After(2 * time.Second):
		s.FailNow("no change event published")
	}
	return model.ChangeEvent{}
}

func (s *ServiceSuite) assertNoEvent() {
	select {
	case ev := <-s.feed.Events():
		s.Failf("unexpected change event", "%s for %s", ev.Type, ev.PlayerID())
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *ServiceSuite) addPlayer(name string, number int) model.Player {
	s.random.QueuePlayerNumber(number)
	created, err := s.service.Add(s.ctx, s.host, s.game.ID, AddInput{Name: name})
	s.Require().NoError(err)
	s.nextEvent()
	return created.Player
}

// Join tests

func (s *ServiceSuite) TestJoinWithCorrectPassword() {
	s.ids.Queue("p-001")
	s.random.QueuePlayerNumber(67)

	created, err := s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "  Kang Sae-byeok  ", Password: "abc123"})
	s.Require().NoError(err)
	s.NoError(created.PhotoErr)

	p := created.Player
	s.Equal(model.PlayerID("p-001"), p.ID)
	s.Equal("Kang Sae-byeok", p.Name)
	s.Equal(67, p.Number)
	s.Equal(model.PlayerStatusAlive, p.Status)
	s.Equal(0, p.Losses)
	s.Empty(p.PhotoURL)
	s.Equal(s.game.ID, p.GameID)
	s.Equal([]int{456}, s.random.Calls())

	ev := s.nextEvent()
	s.Equal(model.ChangePlayerInserted, ev.Type)
	s.Equal(model.PlayerID("p-001"), ev.PlayerID())
	s.Equal(s.clock.Now(), ev.CommittedAt)

	stored, err := s.storage.ListPlayers(s.ctx, s.game.ID)
	s.Require().NoError(err)
	s.Len(stored, 1)
}

func (s *ServiceSuite) TestJoinWithWrongPasswordChangesNothing() {
	_, err := s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "Cho Sang-woo", Password: "wrong"})
	s.ErrorIs(err, model.ErrIncorrectPassword)

	stored, err := s.storage.ListPlayers(s.ctx, s.game.ID)
	s.Require().NoError(err)
	s.Empty(stored)
	s.Empty(s.random.Calls())
	s.assertNoEvent()
}

func (s *ServiceSuite) TestJoinPasswordIsCompareVerbatim() {
	for _, pw := range []string{"ABC123", " abc123", "abc123 ", "abc12", ""} {
		_, err := s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "Ali", Password: pw})
		s.ErrorIs(err, model.ErrIncorrectPassword, "password %q", pw)
	}
}

func (s *ServiceSuite) TestJoinWithoutGamePasswordOnlyAcceptsEmpty() {
	_, err := s.games.SetJoinPassword(s.ctx, s.host, s.game.ID, "")
	s.Require().NoError(err)

	_, err = s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "Ali", Password: "anything"})
	s.ErrorIs(err, model.ErrIncorrectPassword)

	created, err := s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "Ali"})
	s.Require().NoError(err)
	s.Equal("Ali", created.Player.Name)
}

func (s *ServiceSuite) TestJoinValidation() {
	_, err := s.service.Join(s.ctx, "", JoinInput{Name: "Ali", Password: "abc123"})
	s.ErrorIs(err, model.ErrMissingGameID)

	_, err = s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "   ", Password: "abc123"})
	s.ErrorIs(err, model.ErrInvalidPlayerName)

	_, err = s.service.Join(s.ctx, "missing", JoinInput{Name: "Ali", Password: "abc123"})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ServiceSuite) TestJoinWithPhoto() {
	s.ids.Queue("p-001")

	created, err := s.service.Join(s.ctx, s.game.ID, JoinInput{
		Name:     "Oh Il-nam",
		Password: "abc123",
		Photo:    bytes.NewReader(pngPixel),
	})
	s.Require().NoError(err)
	s.NoError(created.PhotoErr)
	s.Equal("/photos/p-001-1726567200000.png", created.Player.PhotoURL)

	s.Equal(model.ChangePlayerInserted, s.nextEvent().Type)
	ev := s.nextEvent()
	s.Equal(model.ChangePlayerUpdated, ev.Type)
	s.Require().NotNil(ev.Record.PhotoURL)
	s.Equal(created.Player.PhotoURL, *ev.Record.PhotoURL)
}

func (s *ServiceSuite) TestJoinKeepsPlayerWhenPhotoFails() {
	created, err := s.service.Join(s.ctx, s.game.ID, JoinInput{
		Name:     "Oh Il-nam",
		Password: "abc123",
		Photo:    strings.NewReader("not an image"),
	})
	s.Require().NoError(err)
	s.ErrorIs(created.PhotoErr, model.ErrPhotoNotImage)
	s.Empty(created.Player.PhotoURL)

	stored, err := s.storage.GetPlayer(s.ctx, created.Player.ID)
	s.Require().NoError(err)
	s.Nil(stored.PhotoURL)
}

// Add tests

func (s *ServiceSuite) TestAddRequiresOwner() {
	_, err := s.service.Add(s.ctx, s.other, s.game.ID, AddInput{Name: "Ali"})
	s.ErrorIs(err, model.ErrNotOwner)

	_, err = s.service.Add(s.ctx, nil, s.game.ID, AddInput{Name: "Ali"})
	s.ErrorIs(err, model.ErrUnauthenticated)

	_, err = s.service.Add(s.ctx, s.host, s.game.ID, AddInput{Name: ""})
	s.ErrorIs(err, model.ErrInvalidPlayerName)

	s.assertNoEvent()
}

func (s *ServiceSuite) TestAddIgnoresJoinPassword() {
	s.random.QueuePlayerNumber(456)
	created, err := s.service.Add(s.ctx, s.host, s.game.ID, AddInput{Name: "Seong Gi-hun"})
	s.Require().NoError(err)
	s.Equal(456, created.Player.Number)
	s.Equal(model.ChangePlayerInserted, s.nextEvent().Type)
}

// Edit tests

func (s *ServiceSuite) TestEditWritesAllFieldsTogether() {
	p := s.addPlayer("Seong Gi-hun", 456)

	updated, err := s.service.Edit(s.ctx, s.host, p.ID, EditInput{
		Name:   " Gi-hun ",
		Number: 12,
		Status: model.PlayerStatusEliminated,
		Losses: 2,
	})
	s.Require().NoError(err)
	s.Equal("Gi-hun", updated.Name)
	s.Equal(12, updated.Number)
	s.Equal(model.PlayerStatusEliminated, updated.Status)
	s.Equal(2, updated.Losses)

	ev := s.nextEvent()
	s.Equal(model.ChangePlayerUpdated, ev.Type)
	s.Equal(12, ev.Record.Number)
}

func (s *ServiceSuite) TestEditRejectsInvalidInputWithoutWriting() {
	p := s.addPlayer("Seong Gi-hun", 456)

	cases := []struct {
		name string
		in   EditInput
		err  error
	}{
		{"number too high", EditInput{Name: "x", Number: 500, Status: model.PlayerStatusAlive}, model.ErrInvalidPlayerNumber},
		{"number zero", EditInput{Name: "x", Number: 0, Status: model.PlayerStatusAlive}, model.ErrInvalidPlayerNumber},
		{"blank name", EditInput{Name: " ", Number: 1, Status: model.PlayerStatusAlive}, model.ErrInvalidPlayerName},
		{"bad status", EditInput{Name: "x", Number: 1, Status: "dead"}, model.ErrInvalidPlayerStatus},
		{"negative losses", EditInput{Name: "x", Number: 1, Status: model.PlayerStatusAlive, Losses: -1}, model.ErrInvalidLosses},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Edit(s.ctx, s.host, p.ID, tc.in)
			s.ErrorIs(err, tc.err)
		})
	}

	stored, err := s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(456, stored.Number)
	s.Equal("Seong Gi-hun", stored.Name)
	s.assertNoEvent()
}

func (s *ServiceSuite) TestEditRequiresOwner() {
	p := s.addPlayer("Seong Gi-hun", 456)

	_, err := s.service.Edit(s.ctx, s.other, p.ID, EditInput{Name: "x", Number: 1, Status: model.PlayerStatusAlive})
	s.ErrorIs(err, model.ErrNotOwner)

	_, err = s.service.Edit(s.ctx, s.host, "missing", EditInput{Name: "x", Number: 1, Status: model.PlayerStatusAlive})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Delete tests

func (s *ServiceSuite) TestDelete() {
	p := s.addPlayer("Seong Gi-hun", 456)

	deleted, err := s.service.Delete(s.ctx, s.host, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, deleted.ID)

	ev := s.nextEvent()
	s.Equal(model.ChangePlayerDeleted, ev.Type)
	s.Equal(p.ID, ev.OldID)
	s.Nil(ev.Record)

	_, err = s.storage.GetPlayer(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.service.Delete(s.ctx, s.host, p.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestDeleteRequiresOwner() {
	p := s.addPlayer("Seong Gi-hun", 456)

	_, err := s.service.Delete(s.ctx, s.other, p.ID)
	s.ErrorIs(err, model.ErrNotOwner)

	_, err = s.storage.GetPlayer(s.ctx, p.ID)
	s.NoError(err)
}

// UploadPhoto tests

func (s *ServiceSuite) TestUploadPhotoReplacesURL() {
	p := s.addPlayer("Seong Gi-hun", 456)

	first, err := s.service.UploadPhoto(s.ctx, s.host, p.ID, bytes.NewReader(pngPixel))
	s.Require().NoError(err)
	s.nextEvent()

	s.clock.Advance(time.Second)
	second, err := s.service.UploadPhoto(s.ctx, s.host, p.ID, bytes.NewReader(pngPixel))
	s.Require().NoError(err)
	s.NotEqual(first.PhotoURL, second.PhotoURL)

	ev := s.nextEvent()
	s.Equal(model.ChangePlayerUpdated, ev.Type)
	s.Equal(second.PhotoURL, *ev.Record.PhotoURL)
}

func (s *ServiceSuite) TestUploadPhotoRejected() {
	p := s.addPlayer("Seong Gi-hun", 456)

	_, err := s.service.UploadPhoto(s.ctx, s.host, p.ID, bytes.NewReader(nil))
	s.ErrorIs(err, model.ErrPhotoEmpty)

	_, err = s.service.UploadPhoto(s.ctx, s.host, p.ID, bytes.NewReader(make([]byte, 2048)))
	s.ErrorIs(err, model.ErrPhotoTooLarge)

	_, err = s.service.UploadPhoto(s.ctx, s.other, p.ID, bytes.NewReader(pngPixel))
	s.ErrorIs(err, model.ErrNotOwner)

	s.assertNoEvent()
}

// List tests

func (s *ServiceSuite) TestListOrdersByNumber() {
	s.addPlayer("b", 200)
	s.addPlayer("a", 7)

	recs, err := s.service.List(s.ctx, s.game.ID)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(7, recs[0].Number)
	s.Equal(200, recs[1].Number)

	_, err = s.service.List(s.ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailWrite() {
	s.broker.Close()

	created, err := s.service.Join(s.ctx, s.game.ID, JoinInput{Name: "Ali", Password: "abc123"})
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, created.Player.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestConcurrentEditsPublishInCommitOrder() {
	p := s.addPlayer("Oh Il-nam", 1)

	publisher := newHeldPublisher(s.broker)
	store := photos.NewStore(afero.NewMemMapFs(), "/photos", 1024, testutil.NopLogger())
	service := New(s.storage, s.games, publisher, store, s.clock, s.random, s.ids, metrics.New(), testutil.NopLogger())

	edit := func(name string) <-chan error {
		done := make(chan error, 1)
		go func() {
			_, err := service.Edit(s.ctx, s.host, p.ID, EditInput{Name: name, Number: 1, Status: model.PlayerStatusAlive})
			done <- err
		}()
		return done
	}

	firstDone := edit("first")
	select {
	case <-publisher.held:
	case <-time.After(2 * time.Second):
		s.FailNow("first edit never reached publish")
	}

	secondDone := edit("second")
	// the second edit must not commit while the first is still publishing
	time.Sleep(50 * time.Millisecond)
	rec, err := s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("first", rec.Name)

	close(publisher.release)
	s.Require().NoError(<-firstDone)
	s.Require().NoError(<-secondDone)

	replica := roster.NewStore()
	replica.Insert(p)
	for _, want := range []string{"first", "second"} {
		ev := s.nextEvent()
		s.Require().Equal(model.ChangePlayerUpdated, ev.Type)
		s.Equal(want, ev.Record.Name)
		replica.Update(model.TransformPlayer(*ev.Record))
	}

	rec, err = s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	got, ok := replica.Get(p.ID)
	s.Require().True(ok)
	s.Equal(rec.Name, got.Name)
	s.Zero(service.writes.held())
}
