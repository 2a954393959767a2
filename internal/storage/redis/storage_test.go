package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
	"github.com/mcoot/squidgame/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.New = func() storage.Storage {
		s.mini = miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
		return NewWithClient(client, DefaultConfig())
	}
	suite.Run(t, s)
}

func (s *StorageSuite) backend() *Storage {
	return s.Storage.(*Storage)
}

func (s *StorageSuite) TestKeysUsePrefix() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("p1", "g1", 1)

	s.True(s.mini.Exists("sqgame:host:h1"))
	s.True(s.mini.Exists("sqgame:game:g1"))
	s.True(s.mini.Exists("sqgame:player:p1"))
	s.True(s.mini.Exists("sqgame:idx:game_players:g1"))
	s.True(s.mini.Exists("sqgame:idx:owner_games:h1"))
}

func (s *StorageSuite) TestInsertPlayerRequiresGame() {
	err := s.Storage.InsertPlayer(s.Ctx, &model.PlayerRecord{ID: "p1", Name: "x", Number: 1, GameID: "missing"})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestNumberChangeReordersIndex() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("a", "g1", 10)
	s.SeedPlayer("b", "g1", 20)

	number := 30
	_, err := s.Storage.UpdatePlayer(s.Ctx, "a", model.PlayerPatch{Number: &number})
	s.Require().NoError(err)

	players, err := s.Storage.ListPlayers(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(model.PlayerID("b"), players[0].ID)
	s.Equal(model.PlayerID("a"), players[1].ID)

	score, err := s.mini.ZScore("sqgame:idx:game_players:g1", "a")
	s.Require().NoError(err)
	s.Equal(float64(30), score)
}

func (s *StorageSuite) TestListSkipsDanglingIndexEntries() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("p1", "g1", 1)
	s.SeedPlayer("p2", "g1", 2)

	s.mini.Del("sqgame:player:p1")

	players, err := s.Storage.ListPlayers(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.PlayerID("p2"), players[0].ID)
}

func (s *StorageSuite) TestDeleteRemovesIndexEntry() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)
	s.SeedPlayer("p1", "g1", 1)

	_, err := s.Storage.DeletePlayer(s.Ctx, "p1")
	s.Require().NoError(err)

	members, err := s.backend().Client().ZRange(s.Ctx, "sqgame:idx:game_players:g1", 0, -1).Result()
	s.Require().NoError(err)
	s.Empty(members)
}
