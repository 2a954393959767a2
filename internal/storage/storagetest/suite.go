// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// Suite runs the shared storage contract against a backend.
// Embed it and set New before SetupTest runs.
type Suite struct {
	suite.Suite

	// New returns an empty store for each test
	New func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.New, "storage factory not set")
	s.Storage = s.New()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 9, 17, 10, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// SeedHost stores a host so games can reference it
func (s *Suite) SeedHost(id model.HostID, email string) {
	s.Require().NoError(s.Storage.SaveHost(s.Ctx, &model.Host{ID: id, Email: email, CreatedAt: s.Now}))
}

// SeedGame stores a game owned by owner, created offset after Now
func (s *Suite) SeedGame(id model.GameID, owner model.HostID, offset time.Duration) *model.GameRecord {
	g := &model.GameRecord{
		ID:        id,
		Name:      "Game " + string(id),
		CreatedAt: s.Now.Add(offset),
		OwnerID:   owner,
		Status:    model.GameStatusPending,
	}
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, g))
	return g
}

// SeedPlayer stores a live player in gameID
func (s *Suite) SeedPlayer(id model.PlayerID, gameID model.GameID, number int) *model.PlayerRecord {
	p := &model.PlayerRecord{
		ID:     id,
		Name:   "Player " + string(id),
		Number: number,
		Status: model.PlayerStatusAlive,
		Losses: intPtr(0),
		GameID: gameID,
	}
	s.Require().NoError(s.Storage.InsertPlayer(s.Ctx, p))
	return p
}

// Host tests

func (s *Suite) TestSaveAndGetHost() {
	s.SeedHost("h1", "host@example.com")

	host, err := s.Storage.GetHost(s.Ctx, "h1")
	s.Require().NoError(err)
	s.Equal("host@example.com", host.Email)
	s.True(host.CreatedAt.Equal(s.Now))
}

func (s *Suite) TestGetHostNotFound() {
	_, err := s.Storage.GetHost(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrHostNotFound)
}

func (s *Suite) TestHostCredentialsByEmail() {
	s.SeedHost("h1", "host@example.com")
	creds := &model.HostCredentials{
		HostID:       "h1",
		Email:        "host@example.com",
		PasswordHash: "hash",
		CreatedAt:    s.Now,
		UpdatedAt:    s.Now,
	}
	s.Require().NoError(s.Storage.SaveHostCredentials(s.Ctx, creds))

	got, err := s.Storage.GetHostCredentialsByEmail(s.Ctx, "host@example.com")
	s.Require().NoError(err)
	s.Equal(model.HostID("h1"), got.HostID)
	s.Equal("hash", got.PasswordHash)

	_, err = s.Storage.GetHostCredentialsByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrHostNotFound)
}

// Game tests

func (s *Suite) TestInsertAndGetGame() {
	s.SeedHost("h1", "host@example.com")
	want := s.SeedGame("g1", "h1", 0)

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Equal(want.Name, got.Name)
	s.Equal(want.OwnerID, got.OwnerID)
	s.Equal(model.GameStatusPending, got.Status)
	s.Nil(got.JoinPassword)
	s.True(want.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListGamesByOwnerNewestFirst() {
	s.SeedHost("h1", "one@example.com")
	s.SeedHost("h2", "two@example.com")
	s.SeedGame("old", "h1", 0)
	s.SeedGame("new", "h1", time.Hour)
	s.SeedGame("other", "h2", 2*time.Hour)

	games, err := s.Storage.ListGamesByOwner(s.Ctx, "h1")
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(model.GameID("new"), games[0].ID)
	s.Equal(model.GameID("old"), games[1].ID)

	none, err := s.Storage.ListGamesByOwner(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestUpdateGame() {
	s.SeedHost("h1", "host@example.com")
	g := s.SeedGame("g1", "h1", 0)

	g.JoinPassword = strPtr("abc123")
	g.Status = model.GameStatusInProgress
	s.Require().NoError(s.Storage.UpdateGame(s.Ctx, g))

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().NotNil(got.JoinPassword)
	s.Equal("abc123", *got.JoinPassword)
	s.Equal(model.GameStatusInProgress, got.Status)
}

func (s *Suite) TestUpdateMissingGame() {
	err := s.Storage.UpdateGame(s.Ctx, &model.GameRecord{ID: "missing", Name: "x", Status: model.GameStatusPending})
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Player tests

func (s *Suite) TestInsertAndGetPlayer() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	want := s.SeedPlayer("p1", "g1", 456)

	got, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(*want, *got)
}

func (s *Suite) TestInsertPlayerWithoutLossesOrPhoto() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	rec := &model.PlayerRecord{ID: "p1", Name: "Ji-yeong", Number: 240, Status: model.PlayerStatusAlive, GameID: "g1"}
	s.Require().NoError(s.Storage.InsertPlayer(s.Ctx, rec))

	got, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	p := model.TransformPlayer(*got)
	s.Equal(0, p.Losses)
	s.Empty(p.PhotoURL)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestListPlayersOrderedByNumber() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedGame("g2", "h1", 0)
	s.SeedPlayer("p456", "g1", 456)
	s.SeedPlayer("p1", "g1", 1)
	s.SeedPlayer("p218", "g1", 218)
	s.SeedPlayer("elsewhere", "g2", 2)

	players, err := s.Storage.ListPlayers(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal(model.PlayerID("p1"), players[0].ID)
	s.Equal(model.PlayerID("p218"), players[1].ID)
	s.Equal(model.PlayerID("p456"), players[2].ID)
}

func (s *Suite) TestListPlayersEmptyGame() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)

	players, err := s.Storage.ListPlayers(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *Suite) TestUpdatePlayerAppliesPatch() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("p1", "g1", 67)

	name := "Kang Sae-byeok"
	number := 12
	status := model.PlayerStatusEliminated
	updated, err := s.Storage.UpdatePlayer(s.Ctx, "p1", model.PlayerPatch{
		Name:   &name,
		Number: &number,
		Status: &status,
		Losses: intPtr(2),
	})
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.Equal(12, updated.Number)
	s.Equal(status, updated.Status)
	s.Require().NotNil(updated.Losses)
	s.Equal(2, *updated.Losses)

	got, err := s.Storage.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(*updated, *got)
}

func (s *Suite) TestUpdatePlayerPhotoOnly() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	before := s.SeedPlayer("p1", "g1", 67)

	updated, err := s.Storage.UpdatePlayer(s.Ctx, "p1", model.PlayerPatch{PhotoURL: strPtr("/photos/p1-1.png")})
	s.Require().NoError(err)
	s.Require().NotNil(updated.PhotoURL)
	s.Equal("/photos/p1-1.png", *updated.PhotoURL)
	s.Equal(before.Name, updated.Name)
	s.Equal(before.Number, updated.Number)
}

func (s *Suite) TestUpdateMissingPlayer() {
	name := "x"
	_, err := s.Storage.UpdatePlayer(s.Ctx, "missing", model.PlayerPatch{Name: &name})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("p1", "g1", 1)
	s.SeedPlayer("p2", "g1", 2)

	deleted, err := s.Storage.DeletePlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), deleted.ID)
	s.Equal(model.GameID("g1"), deleted.GameID)

	_, err = s.Storage.GetPlayer(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, err := s.Storage.ListPlayers(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.PlayerID("p2"), players[0].ID)

	_, err = s.Storage.DeletePlayer(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
