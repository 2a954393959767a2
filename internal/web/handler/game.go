package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/services/loader"
	"github.com/mcoot/squidgame/internal/services/players"
	"github.com/mcoot/squidgame/internal/web/liveview"
	"github.com/mcoot/squidgame/internal/web/middleware"
	"github.com/mcoot/squidgame/internal/web/templates/components"
	"github.com/mcoot/squidgame/internal/web/templates/pages"
)

// GameHandler handles a host's management view of a game
type GameHandler struct {
	gameController *game.Controller
	playerService  *players.Service
	loader         *loader.Loader
	subscriber     feed.Subscriber
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(
	gameController *game.Controller,
	playerService *players.Service,
	loader *loader.Loader,
	subscriber feed.Subscriber,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		playerService:  playerService,
		loader:         loader,
		subscriber:     subscriber,
		metrics:        m,
		logger:         logger,
	}
}

func gamePath(id model.GameID) string {
	return "/games/" + string(id)
}

// View renders the management page
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	view, err := h.loader.Load(r.Context(), loader.Request{GameID: gameID, Viewer: host, RequireViewer: true})
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}

	data := pages.ManageData{
		PageData: pageData(r, view.Game.Name),
		Game:     view.Game,
		Outcome:  roster.Evaluate(view.Game.Players),
	}
	renderPage(w, r, pages.Manage(data))
}

func (h *GameHandler) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrGameNotFound) || errors.Is(err, model.ErrMissingGameID) {
		flashRedirect(w, r, middleware.FlashError, model.MsgGameNotFound, "/dashboard")
		return
	}
	h.logger.Error("game load failed", slog.Any("error", err))
	flashRedirect(w, r, middleware.FlashError, model.MsgLoadFailed, "/dashboard")
}

// Events streams live roster updates for the management page
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	req := loader.Request{GameID: gameID, Viewer: host, RequireViewer: true}
	liveview.Serve(w, r, liveview.Config{
		Subscriber: h.subscriber,
		GameID:     gameID,
		Seed:       h.loader.Seed(req, nil),
		Render:     manageFragments,
		Kind:       metrics.ViewManage,
		Metrics:    h.metrics,
		Logger:     h.logger,
	})
}

func manageFragments(players []model.Player, outcome roster.Outcome) templ.Component {
	return templ.Join(
		components.OOB(components.RosterID, components.ManageRoster(players)),
		components.OOB(components.WinnerID, components.WinnerBanner(outcome)),
	)
}

// AddPlayer creates a player from the add form
func (h *GameHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])
	back := gamePath(gameID)

	if err := parseForm(r); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", back)
		return
	}
	photo, err := formPhoto(r)
	if err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid photo upload", back)
		return
	}
	in := players.AddInput{Name: r.FormValue("name")}
	if photo != nil {
		defer photo.Close()
		in.Photo = photo
	}

	created, err := h.playerService.Add(r.Context(), host, gameID, in)
	if err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	if created.PhotoErr != nil {
		flashRedirect(w, r, middleware.FlashWarning, model.MsgAddedNoPhoto, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgPlayerAdded, back)
}

// SetPassword sets or clears the join password
func (h *GameHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])
	back := gamePath(gameID)

	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", back)
		return
	}

	if _, err := h.gameController.SetJoinPassword(r.Context(), host, gameID, r.FormValue("password")); err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgPasswordUpdated, back)
}

// SetStatus changes the game's status
func (h *GameHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])
	back := gamePath(gameID)

	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", back)
		return
	}

	status := model.GameStatus(r.FormValue("status"))
	if _, err := h.gameController.SetStatus(r.Context(), host, gameID, status); err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgStatusUpdated, back)
}

// EditPlayer saves the edit form
func (h *GameHandler) EditPlayer(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	playerID := model.PlayerID(mux.Vars(r)["id"])

	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", "/dashboard")
		return
	}
	back := h.backTo(r, playerID)

	number, err := strconv.Atoi(strings.TrimSpace(r.FormValue("number")))
	if err != nil {
		flashRedirect(w, r, middleware.FlashError, model.MsgInvalidNumber, back)
		return
	}
	losses := 0
	if v := strings.TrimSpace(r.FormValue("losses")); v != "" {
		losses, err = strconv.Atoi(v)
		if err != nil {
			flashRedirect(w, r, middleware.FlashError, "Losses must be a number", back)
			return
		}
	}

	_, err = h.playerService.Edit(r.Context(), host, playerID, players.EditInput{
		Name:   r.FormValue("name"),
		Number: number,
		Status: model.PlayerStatus(r.FormValue("status")),
		Losses: losses,
	})
	if err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgPlayerUpdated, back)
}

// DeletePlayer removes a player permanently
func (h *GameHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	playerID := model.PlayerID(mux.Vars(r)["id"])
	back := h.backTo(r, playerID)

	deleted, err := h.playerService.Delete(r.Context(), host, playerID)
	if err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgPlayerDeleted, gamePath(deleted.GameID))
}

// UploadPhoto replaces a player's photo
func (h *GameHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	host := middleware.GetHost(r.Context())
	playerID := model.PlayerID(mux.Vars(r)["id"])
	back := h.backTo(r, playerID)

	if err := parseForm(r); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", back)
		return
	}
	photo, err := formPhoto(r)
	if err != nil || photo == nil {
		flashRedirect(w, r, middleware.FlashError, "Please choose a photo", back)
		return
	}
	defer photo.Close()

	if _, err := h.playerService.UploadPhoto(r.Context(), host, playerID, photo); err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgPhotoUploaded, back)
}

// backTo is the management page of the player's game, or the dashboard
// when the player cannot be found
func (h *GameHandler) backTo(r *http.Request, id model.PlayerID) string {
	recs, err := h.playerService.Lookup(r.Context(), id)
	if err != nil {
		return "/dashboard"
	}
	return gamePath(recs.GameID)
}
