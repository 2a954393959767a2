package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/squidgame/internal/dependencies/clock"
	"github.com/mcoot/squidgame/internal/dependencies/ids"
	"github.com/mcoot/squidgame/internal/dependencies/random"
	"github.com/mcoot/squidgame/internal/feed"
	feedmemory "github.com/mcoot/squidgame/internal/feed/memory"
	feedredis "github.com/mcoot/squidgame/internal/feed/redis"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/photos"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/services/loader"
	"github.com/mcoot/squidgame/internal/services/players"
	"github.com/mcoot/squidgame/internal/storage"
	"github.com/mcoot/squidgame/internal/storage/memory"
	pgstorage "github.com/mcoot/squidgame/internal/storage/postgres"
	redisstorage "github.com/mcoot/squidgame/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// Feed type constants
const (
	FeedTypeMemory = "memory"
	FeedTypeRedis  = "redis"
)

// PhotoURLPrefix is where photo objects are served
const PhotoURLPrefix = "/photos"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Feed    feed.Broker
	Photos  *photos.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Services
	AuthService    *auth.Service
	GameController *game.Controller
	PlayerService  *players.Service
	Loader         *loader.Loader

	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required for redis storage or feed)
	RedisConfig *redisstorage.Config
	// PostgresConfig is required if StorageType is "postgres"
	PostgresConfig *pgstorage.Config
	// FeedType selects the change feed ("memory" or "redis"), default "memory"
	FeedType string
	// PhotoDir is where photos are written; empty keeps them in memory
	PhotoDir string
	// PhotoMaxBytes caps an upload, default photos.DefaultMaxBytes
	PhotoMaxBytes int64
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// Create storage based on type
	var store storage.Storage
	var redisClient *redis.Client
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pgStore, err := pgstorage.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
	closers = append(closers, store.Close)

	// Create change feed
	var broker feed.Broker
	switch cfg.FeedType {
	case "", FeedTypeMemory:
		mem := feedmemory.New(logger)
		broker = mem
		closers = append(closers, mem.Close)
	case FeedTypeRedis:
		if redisClient == nil {
			if cfg.RedisConfig == nil {
				return fail(errors.New("RedisConfig required when FeedType is redis"))
			}
			opts, err := redis.ParseURL(cfg.RedisConfig.URL)
			if err != nil {
				return fail(fmt.Errorf("parse redis url: %w", err))
			}
			redisClient = redis.NewClient(opts)
			closers = append(closers, redisClient.Close)
		}
		broker = feedredis.New(redisClient, logger)
	default:
		return fail(errors.New("invalid FeedType: must be 'memory' or 'redis'"))
	}

	fs, err := photos.NewFs(cfg.PhotoDir)
	if err != nil {
		return fail(fmt.Errorf("open photo dir: %w", err))
	}
	maxBytes := cfg.PhotoMaxBytes
	if maxBytes <= 0 {
		maxBytes = photos.DefaultMaxBytes
	}
	photoStore := photos.NewStore(fs, PhotoURLPrefix, maxBytes, logger)

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(deps{
		store:   store,
		broker:  broker,
		photos:  photoStore,
		clock:   clock.New(),
		random:  random.New(),
		ids:     ids.New(),
		metrics: metrics.New(),
		authCfg: authCfg,
		logger:  logger,
	})
	app.closers = closers
	return app, nil
}

type deps struct {
	store   storage.Storage
	broker  feed.Broker
	photos  *photos.Store
	clock   clock.Clock
	random  random.Random
	ids     ids.Generator
	metrics *metrics.Metrics
	authCfg auth.Config
	logger  *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d deps) *App {
	gameController := game.NewController(d.store, d.clock, d.ids, d.logger)
	playerService := players.New(d.store, gameController, d.broker, d.photos, d.clock, d.random, d.ids, d.metrics, d.logger)
	authService := auth.New(d.store, d.clock, d.ids, d.authCfg, d.logger)

	return &App{
		Storage:        d.store,
		Feed:           d.broker,
		Photos:         d.photos,
		Clock:          d.clock,
		Random:         d.random,
		IDs:            d.ids,
		Metrics:        d.metrics,
		Logger:         d.logger,
		AuthService:    authService,
		GameController: gameController,
		PlayerService:  playerService,
		Loader:         loader.New(d.store, d.logger),
	}
}

// Close releases the feed and storage connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
