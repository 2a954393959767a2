package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/squidgame/internal/api/middleware"
	"github.com/mcoot/squidgame/internal/api/request"
	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/game"
)

// GameHandler handles game endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{
		gameController: gameController,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())

	games, err := h.gameController.ListGames(r.Context(), host)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromSummaries(games))
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())

	var req request.CreateGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.CreateGame(r.Context(), host, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/games/"+string(g.ID), response.GameFromModel(g, host))
}

// Get handles GET /api/v1/games/{id}. Anyone may read a game; only the
// owner sees its join password.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	g, err := h.gameController.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g, middleware.GetHost(r.Context())))
}

// SetPassword handles PUT /api/v1/games/{id}/password
func (h *GameHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	var req request.SetPasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.SetJoinPassword(r.Context(), host, id, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g, host))
}

// Update handles PATCH /api/v1/games/{id}
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	var req request.UpdateGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.SetStatus(r.Context(), host, id, model.GameStatus(req.Status))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g, host))
}
