package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/photos"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/services/loader"
	"github.com/mcoot/squidgame/internal/services/players"
	"github.com/mcoot/squidgame/internal/web/handler"
	"github.com/mcoot/squidgame/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *game.Controller
	PlayerService  *players.Service
	Loader         *loader.Loader
	Feed           feed.Subscriber
	Photos         *photos.Store
	Metrics        *metrics.Metrics
	// PublicURL is the origin used in join links; empty uses the request host
	PublicURL       string
	SessionDuration time.Duration
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, cfg.Metrics)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Metrics(cfg.Metrics))

	sessionDuration := cfg.SessionDuration
	if sessionDuration == 0 {
		sessionDuration = auth.DefaultConfig().SessionDuration
	}

	// Create handlers
	homeHandler := handler.NewHomeHandler()
	authHandler := handler.NewAuthHandler(cfg.AuthService, sessionDuration, cfg.Logger)
	dashboardHandler := handler.NewDashboardHandler(cfg.GameController, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.PlayerService, cfg.Loader, cfg.Feed, cfg.Metrics, cfg.Logger)
	tvHandler := handler.NewTVHandler(cfg.PlayerService, cfg.Loader, cfg.Feed, cfg.Metrics, cfg.PublicURL, cfg.Logger)

	// Photo objects
	if cfg.Photos != nil {
		r.PathPrefix("/photos/").Handler(cfg.Photos.Handler()).Methods(http.MethodGet)
	}

	// Public routes (optional auth for showing host info in nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)

	// TV view and self-service join
	public.HandleFunc("/tv/{id}", tvHandler.View).Methods(http.MethodGet)
	public.HandleFunc("/tv/{id}/events", tvHandler.Events).Methods(http.MethodGet)
	public.HandleFunc("/tv/{id}/join", tvHandler.Join).Methods(http.MethodPost)
	public.HandleFunc("/tv/{id}/qr.png", tvHandler.QR).Methods(http.MethodGet)

	// Auth actions (no auth required)
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Use(flashMiddleware)
	authRoutes.Use(optionalAuthMiddleware)
	authRoutes.HandleFunc("/signin", authHandler.SignIn).Methods(http.MethodPost)
	authRoutes.HandleFunc("/signup", authHandler.SignUp).Methods(http.MethodPost)
	authRoutes.HandleFunc("/signout", authHandler.SignOut).Methods(http.MethodPost)

	// Protected routes (require auth)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)

	protected.HandleFunc("/dashboard", dashboardHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/games", dashboardHandler.Create).Methods(http.MethodPost)

	// Game management routes
	protected.HandleFunc("/games/{id}", gameHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/games/{id}/events", gameHandler.Events).Methods(http.MethodGet)
	protected.HandleFunc("/games/{id}/players", gameHandler.AddPlayer).Methods(http.MethodPost)
	protected.HandleFunc("/games/{id}/password", gameHandler.SetPassword).Methods(http.MethodPost)
	protected.HandleFunc("/games/{id}/status", gameHandler.SetStatus).Methods(http.MethodPost)

	// Player routes
	protected.HandleFunc("/players/{id}/edit", gameHandler.EditPlayer).Methods(http.MethodPost)
	protected.HandleFunc("/players/{id}/delete", gameHandler.DeletePlayer).Methods(http.MethodPost)
	protected.HandleFunc("/players/{id}/photo", gameHandler.UploadPhoto).Methods(http.MethodPost)

	return r
}
