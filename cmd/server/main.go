package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/api"
	"github.com/mcoot/squidgame/internal/config"
	"github.com/mcoot/squidgame/internal/factory"
	pgstorage "github.com/mcoot/squidgame/internal/storage/postgres"
	redisstorage "github.com/mcoot/squidgame/internal/storage/redis"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/web"
)

// sessionSweepInterval is how often expired host sessions are dropped
const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the Squid Game party roster",
		Long: `Serve the host web UI, the TV view, the JSON API and /metrics.

Every flag can also be set with an SQGAME_* environment variable or in a
.env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cmd.Flags(), &cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}
	config.RegisterFlags(cmd.Flags(), &cfg)

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build factory config
	factoryCfg := factory.Config{
		AuthConfig:  auth.Config{SessionDuration: cfg.SessionDuration},
		Logger:      logger,
		StorageType: cfg.StorageType,
		FeedType:    cfg.FeedType,
		PhotoDir:    cfg.PhotoDir,
	}
	if cfg.StorageType == config.StorageRedis || cfg.FeedType == config.FeedRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}
	if cfg.StorageType == config.StoragePostgres {
		pgCfg := pgstorage.DefaultConfig()
		pgCfg.DSN = cfg.PostgresDSN
		pgCfg.RunMigrations = cfg.RunMigrations
		factoryCfg.PostgresConfig = &pgCfg
	}

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", slog.Any("error", err))
		}
	}()

	go app.AuthService.RunJanitor(ctx, sessionSweepInterval)

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		PlayerService:  app.PlayerService,
		Feed:           app.Feed,
		Metrics:        app.Metrics,
		FeedOrigins:    cfg.FeedOrigins,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		GameController:  app.GameController,
		PlayerService:   app.PlayerService,
		Loader:          app.Loader,
		Feed:            app.Feed,
		Photos:          app.Photos,
		Metrics:         app.Metrics,
		PublicURL:       cfg.BaseURL(),
		SessionDuration: cfg.SessionDuration,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", app.Metrics.Handler())
	mux.Handle("/", webRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("public_url", cfg.BaseURL()),
		slog.String("storage", cfg.StorageType),
		slog.String("feed", cfg.FeedType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
