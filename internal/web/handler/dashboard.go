package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/web/middleware"
	"github.com/mcoot/squidgame/internal/web/templates/pages"
)

// DashboardHandler lists and creates a host's games
type DashboardHandler struct {
	gameController *game.Controller
	logger         *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(gameController *game.Controller, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		gameController: gameController,
		logger:         logger,
	}
}

// View renders the dashboard
func (h *DashboardHandler) View(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())

	games, err := h.gameController.ListGames(r.Context(), host)
	if err != nil {
		h.logger.Error("list games failed", slog.Any("error", err))
		http.Error(w, model.MsgSomethingWrong, http.StatusInternalServerError)
		return
	}

	data := pages.DashboardData{
		PageData: pageData(r, "Dashboard"),
		Games:    games,
	}
	renderPage(w, r, pages.Dashboard(data))
}

// Create creates a game and opens it
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", "/dashboard")
		return
	}

	g, err := h.gameController.CreateGame(r.Context(), host, r.FormValue("name"))
	if err != nil {
		failRedirect(w, r, h.logger, err, "/dashboard")
		return
	}

	flashRedirect(w, r, middleware.FlashSuccess, model.MsgGameCreated, "/games/"+string(g.ID))
}
