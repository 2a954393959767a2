package storage

import (
	"context"

	"github.com/mcoot/squidgame/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Host operations
	SaveHost(ctx context.Context, host *model.Host) error
	GetHost(ctx context.Context, id model.HostID) (*model.Host, error)
	SaveHostCredentials(ctx context.Context, creds *model.HostCredentials) error
	GetHostCredentialsByEmail(ctx context.Context, email string) (*model.HostCredentials, error)

	// Game operations
	InsertGame(ctx context.Context, game *model.GameRecord) error
	GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error)
	// ListGamesByOwner returns the host's games, newest first
	ListGamesByOwner(ctx context.Context, owner model.HostID) ([]*model.GameRecord, error)
	UpdateGame(ctx context.Context, game *model.GameRecord) error

	// Player operations
	InsertPlayer(ctx context.Context, player *model.PlayerRecord) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	// ListPlayers returns a game's players ordered by ascending number
	ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error)
	UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error)
	// DeletePlayer removes the player and returns the record as it was
	DeletePlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)

	Close() error
}
