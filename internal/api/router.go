package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/squidgame/internal/api/handler"
	"github.com/mcoot/squidgame/internal/api/middleware"
	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/services/players"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *game.Controller
	PlayerService  *players.Service
	Feed           feed.Subscriber
	Metrics        *metrics.Metrics
	// FeedOrigins are extra browser origins allowed on the WebSocket feed
	FeedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	hostHandler := handler.NewHostHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService)
	feedHandler := handler.NewFeedHandler(cfg.GameController, cfg.Feed, cfg.FeedOrigins, cfg.Metrics, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, cfg.Metrics)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(middleware.Metrics(cfg.Metrics))

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Host routes (no auth required for signing up or in)
	api.HandleFunc("/hosts/signup", hostHandler.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/hosts/signin", hostHandler.SignIn).Methods(http.MethodPost)

	hosts := api.PathPrefix("/hosts").Subrouter()
	hosts.Use(authMiddleware)
	hosts.HandleFunc("/signout", hostHandler.SignOut).Methods(http.MethodPost)
	hosts.HandleFunc("/me", hostHandler.GetMe).Methods(http.MethodGet)

	// Public game routes: TV watchers and joining players have no account
	public := api.NewRoute().Subrouter()
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	public.HandleFunc("/games/{id}/players", playerHandler.List).Methods(http.MethodGet)
	public.HandleFunc("/games/{id}/join", playerHandler.Join).Methods(http.MethodPost)
	public.HandleFunc("/games/{id}/feed", feedHandler.Stream).Methods(http.MethodGet)

	// Host-owned routes
	owned := api.NewRoute().Subrouter()
	owned.Use(authMiddleware)
	owned.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	owned.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	owned.HandleFunc("/games/{id}", gameHandler.Update).Methods(http.MethodPatch)
	owned.HandleFunc("/games/{id}/password", gameHandler.SetPassword).Methods(http.MethodPut)
	owned.HandleFunc("/games/{id}/players", playerHandler.Add).Methods(http.MethodPost)
	owned.HandleFunc("/players/{id}", playerHandler.Edit).Methods(http.MethodPatch)
	owned.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)
	owned.HandleFunc("/players/{id}/photo", playerHandler.UploadPhoto).Methods(http.MethodPut)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
