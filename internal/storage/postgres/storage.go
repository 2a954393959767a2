// Package postgres is a PostgreSQL-backed storage using sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// SQLSTATE foreign_key_violation
const fkViolation = "23503"

const playerColumns = `id, name, number, status, losses, photo_url, game_id`

const gameColumns = `id, name, created_at, owner_id, status, join_password`

// Storage is a PostgreSQL implementation of the storage interface
type Storage struct {
	db *sqlx.DB
}

// New connects to PostgreSQL and applies migrations if configured
func New(ctx context.Context, cfg Config) (*Storage, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing connection pool
func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// DB returns the underlying pool
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// Host operations

func (s *Storage) SaveHost(ctx context.Context, host *model.Host) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO hosts (id, email, created_at)
		VALUES (:id, :email, :created_at)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`, host)
	return err
}

func (s *Storage) GetHost(ctx context.Context, id model.HostID) (*model.Host, error) {
	var host model.Host
	err := s.db.GetContext(ctx, &host, `SELECT id, email, created_at FROM hosts WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, model.ErrHostNotFound)
	}
	return &host, nil
}

func (s *Storage) SaveHostCredentials(ctx context.Context, creds *model.HostCredentials) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO host_credentials (host_id, email, password_hash, created_at, updated_at)
		VALUES (:host_id, :email, :password_hash, :created_at, :updated_at)
		ON CONFLICT (host_id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at`, creds)
	return err
}

func (s *Storage) GetHostCredentialsByEmail(ctx context.Context, email string) (*model.HostCredentials, error) {
	var creds model.HostCredentials
	err := s.db.GetContext(ctx, &creds, `
		SELECT host_id, email, password_hash, created_at, updated_at
		FROM host_credentials WHERE email = $1`, email)
	if err != nil {
		return nil, notFound(err, model.ErrHostNotFound)
	}
	return &creds, nil
}

// Game operations

func (s *Storage) InsertGame(ctx context.Context, game *model.GameRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO games (id, name, created_at, owner_id, status, join_password)
		VALUES (:id, :name, :created_at, :owner_id, :status, :join_password)`, game)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	var game model.GameRecord
	err := s.db.GetContext(ctx, &game, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, model.ErrGameNotFound)
	}
	return &game, nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, owner model.HostID) ([]*model.GameRecord, error) {
	games := []*model.GameRecord{}
	err := s.db.SelectContext(ctx, &games, `
		SELECT `+gameColumns+` FROM games
		WHERE owner_id = $1
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.GameRecord) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE games SET name = :name, status = :status, join_password = :join_password
		WHERE id = :id`, game)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrGameNotFound
	}
	return nil
}

// Player operations

func (s *Storage) InsertPlayer(ctx context.Context, player *model.PlayerRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO players (id, name, number, status, losses, photo_url, game_id)
		VALUES (:id, :name, :number, :status, :losses, :photo_url, :game_id)`, player)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
		return model.ErrGameNotFound
	}
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	err := s.db.GetContext(ctx, &player, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error) {
	players := []*model.PlayerRecord{}
	err := s.db.SelectContext(ctx, &players, `
		SELECT `+playerColumns+` FROM players
		WHERE game_id = $1
		ORDER BY number ASC, seq ASC`, gameID)
	if err != nil {
		return nil, err
	}
	return players, nil
}

// UpdatePlayer writes the patch in a single statement; NULL parameters
// keep the current column value.
func (s *Storage) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	err := s.db.GetContext(ctx, &player, `
		UPDATE players SET
			name = COALESCE($2, name),
			number = COALESCE($3, number),
			status = COALESCE($4, status),
			losses = COALESCE($5, losses),
			photo_url = COALESCE($6, photo_url)
		WHERE id = $1
		RETURNING `+playerColumns,
		id, patch.Name, patch.Number, patch.Status, patch.Losses, patch.PhotoURL)
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	err := s.db.GetContext(ctx, &player, `DELETE FROM players WHERE id = $1 RETURNING `+playerColumns, id)
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return &player, nil
}
