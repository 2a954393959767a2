package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
	"github.com/mcoot/squidgame/internal/storage/storagetest"
)

// Set to a disposable database to run these tests; its tables are truncated
const testDatabaseEnv = "SQGAME_TEST_DATABASE_URL"

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	cfg := DefaultConfig()
	cfg.DSN = dsn
	setup, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	s := new(StorageSuite)
	s.New = func() storage.Storage {
		db := sqlx.MustConnect("postgres", dsn)
		db.MustExec(`TRUNCATE players, games, host_credentials, hosts`)
		return NewWithDB(db)
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestInsertPlayerRequiresGame() {
	err := s.Storage.InsertPlayer(s.Ctx, &model.PlayerRecord{ID: "p1", Name: "x", Number: 1, Status: model.PlayerStatusAlive, GameID: "missing"})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestMigrateIsIdempotent() {
	s.NoError(Migrate(s.Storage.(*Storage).DB()))
}

func (s *StorageSuite) TestNumberOutOfRangeRejectedBySchema() {
	s.SeedHost("h1", "host@example.com")
	s.SeedGame("g1", "h1", 0)

	err := s.Storage.InsertPlayer(s.Ctx, &model.PlayerRecord{ID: "p1", Name: "x", Number: 500, Status: model.PlayerStatusAlive, GameID: "g1"})
	s.Error(err)
}
