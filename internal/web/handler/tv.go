package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/loader"
	"github.com/mcoot/squidgame/internal/services/players"
	"github.com/mcoot/squidgame/internal/web/liveview"
	"github.com/mcoot/squidgame/internal/web/middleware"
	"github.com/mcoot/squidgame/internal/web/templates/components"
	"github.com/mcoot/squidgame/internal/web/templates/pages"
)

// Pixel size of the join QR code
const qrSize = 256

// TVHandler handles the public big-screen view and self-service join
type TVHandler struct {
	playerService *players.Service
	loader        *loader.Loader
	subscriber    feed.Subscriber
	metrics       *metrics.Metrics
	baseURL       string
	logger        *slog.Logger
}

// NewTVHandler creates a new TVHandler. baseURL is the public origin used
// in join links; when empty it is taken from the request.
func NewTVHandler(
	playerService *players.Service,
	loader *loader.Loader,
	subscriber feed.Subscriber,
	m *metrics.Metrics,
	baseURL string,
	logger *slog.Logger,
) *TVHandler {
	return &TVHandler{
		playerService: playerService,
		loader:        loader,
		subscriber:    subscriber,
		metrics:       m,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		logger:        logger,
	}
}

func tvPath(id model.GameID) string {
	return "/tv/" + string(id)
}

func (h *TVHandler) joinURL(r *http.Request, id model.GameID) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + tvPath(id)
}

// View renders the TV page
func (h *TVHandler) View(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	view, err := h.loader.Load(r.Context(), loader.Request{GameID: gameID})
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			flashRedirect(w, r, middleware.FlashError, model.MsgGameNotFound, "/")
			return
		}
		h.logger.Error("game load failed", slog.Any("error", err))
		flashRedirect(w, r, middleware.FlashError, model.MsgLoadFailed, "/")
		return
	}

	data := pages.TVData{
		PageData:  pageData(r, view.Game.Name),
		Game:      view.Game,
		Outcome:   roster.Evaluate(view.Game.Players),
		Celebrate: r.URL.Query().Get("celebrate") == "1",
		JoinURL:   h.joinURL(r, gameID),
	}
	if data.Celebrate || data.Outcome.HasWinner() {
		data.BodyClass = "celebration"
	}
	renderPage(w, r, pages.TV(data))
}

// Events streams live roster updates for the TV page
func (h *TVHandler) Events(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	liveview.Serve(w, r, liveview.Config{
		Subscriber: h.subscriber,
		GameID:     gameID,
		Seed:       h.loader.Seed(loader.Request{GameID: gameID}, nil),
		Render:     tvFragments,
		Kind:       metrics.ViewTV,
		Metrics:    h.metrics,
		Logger:     h.logger,
	})
}

func tvFragments(players []model.Player, outcome roster.Outcome) templ.Component {
	return templ.Join(
		components.OOB(components.RosterID, components.RosterGrid(players)),
		components.OOB(components.WinnerID, components.WinnerBanner(outcome)),
	)
}

// Join handles the join form
func (h *TVHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])
	back := tvPath(gameID)

	if err := parseForm(r); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", back)
		return
	}
	photo, err := formPhoto(r)
	if err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid photo upload", back)
		return
	}
	in := players.JoinInput{
		Name:     r.FormValue("name"),
		Password: r.FormValue("password"),
	}
	if photo != nil {
		defer photo.Close()
		in.Photo = photo
	}

	created, err := h.playerService.Join(r.Context(), gameID, in)
	if err != nil {
		failRedirect(w, r, h.logger, err, back)
		return
	}
	if created.PhotoErr != nil {
		flashRedirect(w, r, middleware.FlashWarning, model.MsgJoinedNoPhoto, back)
		return
	}
	flashRedirect(w, r, middleware.FlashSuccess, model.MsgJoined, back)
}

// QR renders a PNG QR code of the join link
func (h *TVHandler) QR(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	png, err := qrcode.Encode(h.joinURL(r, gameID), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr encode failed", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
