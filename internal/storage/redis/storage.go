package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// Attempts at an optimistic read-modify-write before giving up
const maxTxRetries = 3

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client so the change feed can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON loads key into v, mapping a missing key to notFound
func (s *Storage) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// Host operations

func (s *Storage) SaveHost(ctx context.Context, host *model.Host) error {
	data, err := json.Marshal(host)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, hostKey(host.ID), data, 0).Err()
}

func (s *Storage) GetHost(ctx context.Context, id model.HostID) (*model.Host, error) {
	var host model.Host
	if err := s.getJSON(ctx, hostKey(id), &host, model.ErrHostNotFound); err != nil {
		return nil, err
	}
	return &host, nil
}

func (s *Storage) SaveHostCredentials(ctx context.Context, creds *model.HostCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, hostCredentialsKey(creds.HostID), data, 0)
	pipe.Set(ctx, emailIndexKey(creds.Email), string(creds.HostID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetHostCredentialsByEmail(ctx context.Context, email string) (*model.HostCredentials, error) {
	hostID, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHostNotFound
		}
		return nil, err
	}

	var creds model.HostCredentials
	if err := s.getJSON(ctx, hostCredentialsKey(model.HostID(hostID)), &creds, model.ErrHostNotFound); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Game operations

func (s *Storage) InsertGame(ctx context.Context, game *model.GameRecord) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.ZAdd(ctx, ownerGamesIndexKey(game.OwnerID), redis.Z{
		Score:  float64(game.CreatedAt.UnixMilli()),
		Member: string(game.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	var game model.GameRecord
	if err := s.getJSON(ctx, gameKey(id), &game, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, owner model.HostID) ([]*model.GameRecord, error) {
	ids, err := s.client.ZRevRange(ctx, ownerGamesIndexKey(owner), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	games := make([]*model.GameRecord, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(model.GameID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		var game model.GameRecord
		if err := json.Unmarshal([]byte(raw), &game); err != nil {
			continue // Skip invalid data
		}
		games = append(games, &game)
	}
	return games, nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.GameRecord) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	// XX only overwrites an existing key
	ok, err := s.client.SetXX(ctx, gameKey(game.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrGameNotFound
	}
	return nil
}

// Player operations

func (s *Storage) InsertPlayer(ctx context.Context, player *model.PlayerRecord) error {
	exists, err := s.client.Exists(ctx, gameKey(player.GameID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrGameNotFound
	}

	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(player.ID), data, 0)
	pipe.ZAdd(ctx, gamePlayersIndexKey(player.GameID), redis.Z{
		Score:  float64(player.Number),
		Member: string(player.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	if err := s.getJSON(ctx, playerKey(id), &player, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error) {
	ids, err := s.client.ZRange(ctx, gamePlayersIndexKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	players := make([]*model.PlayerRecord, 0, len(ids))
	if len(ids) == 0 {
		return players, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(model.PlayerID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue // Deleted between the two reads
		}
		var player model.PlayerRecord
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			continue
		}
		players = append(players, &player)
	}
	return players, nil
}

// UpdatePlayer applies patch under WATCH so concurrent edits to the same
// player do not interleave. The index score follows the badge number.
func (s *Storage) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	key := playerKey(id)
	var updated model.PlayerRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}
		var rec model.PlayerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		patch.Apply(&rec)
		out, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			pipe.ZAdd(ctx, gamePlayersIndexKey(rec.GameID), redis.Z{
				Score:  float64(rec.Number),
				Member: string(rec.ID),
			})
			return nil
		})
		if err == nil {
			updated = rec
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, redis.TxFailedErr
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	rec, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, playerKey(id))
	pipe.ZRem(ctx, gamePlayersIndexKey(rec.GameID), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	// Lost a race with another delete
	if del.Val() == 0 {
		return nil, model.ErrPlayerNotFound
	}
	return rec, nil
}
