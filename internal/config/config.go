// Package config loads server settings from flags, SQGAME_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "SQGAME"

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Feed backends
const (
	FeedMemory = "memory"
	FeedRedis  = "redis"
)

// Config holds server settings
type Config struct {
	Host string
	Port int

	StorageType   string
	RedisURL      string
	PostgresDSN   string
	RunMigrations bool
	FeedType      string

	// PhotoDir is where photos are written; empty keeps them in memory
	PhotoDir string
	// PublicURL is the externally reachable base URL, used for join QR codes
	PublicURL string
	// FeedOrigins are extra browser origins allowed to open the WebSocket
	// feed. Clients without an Origin header and same-host pages are
	// always allowed.
	FeedOrigins []string

	SessionDuration time.Duration
	LogLevel        string
	EnvFile         string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		StorageType:     StorageMemory,
		RedisURL:        "redis://localhost:6379",
		RunMigrations:   true,
		FeedType:        FeedMemory,
		SessionDuration: 24 * time.Hour,
		LogLevel:        "info",
		EnvFile:         ".env",
	}
}

// RegisterFlags defines a flag for every setting on fs, defaulting to cfg
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.Host, "host", cfg.Host, "address to bind to (env: SQGAME_HOST)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: SQGAME_PORT)")
	fs.StringVar(&cfg.StorageType, "storage", cfg.StorageType, "storage backend: memory, redis or postgres (env: SQGAME_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis connection url (env: SQGAME_REDIS_URL)")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "postgres connection string (env: SQGAME_POSTGRES_DSN)")
	fs.BoolVar(&cfg.RunMigrations, "migrate", cfg.RunMigrations, "apply postgres migrations on startup (env: SQGAME_MIGRATE)")
	fs.StringVar(&cfg.FeedType, "feed", cfg.FeedType, "change feed backend: memory or redis (env: SQGAME_FEED)")
	fs.StringVar(&cfg.PhotoDir, "photo-dir", cfg.PhotoDir, "directory for player photos, in-memory if empty (env: SQGAME_PHOTO_DIR)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "public base url for join links (env: SQGAME_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.FeedOrigins, "feed-origins", cfg.FeedOrigins, "extra origins allowed to open the websocket feed (env: SQGAME_FEED_ORIGINS)")
	fs.DurationVar(&cfg.SessionDuration, "session-duration", cfg.SessionDuration, "host session lifetime (env: SQGAME_SESSION_DURATION)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env: SQGAME_LOG_LEVEL)")
	fs.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "dotenv file to load, ignored if missing")
}

// Load fills in settings not given as flags: first the env file is loaded
// into the environment (existing variables win), then SQGAME_* variables
// override defaults. fs must already be parsed.
func Load(fs *pflag.FlagSet, cfg *Config) error {
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", cfg.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
			}
		}
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}

	return cfg.Validate()
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required for redis storage")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return errors.New("--postgres-dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage %q: must be memory, redis or postgres", c.StorageType)
	}
	switch c.FeedType {
	case FeedMemory:
	case FeedRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required for the redis feed")
		}
	default:
		return fmt.Errorf("invalid feed %q: must be memory or redis", c.FeedType)
	}
	if c.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BaseURL is PublicURL, or one derived from the listen address
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/")
	}
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
