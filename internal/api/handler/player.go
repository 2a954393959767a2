package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/squidgame/internal/api/middleware"
	"github.com/mcoot/squidgame/internal/api/request"
	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/players"
)

// PlayerHandler handles roster endpoints
type PlayerHandler struct {
	playerService *players.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(playerService *players.Service) *PlayerHandler {
	return &PlayerHandler{
		playerService: playerService,
	}
}

func photoReader(data []byte) io.Reader {
	if len(data) == 0 {
		return nil
	}
	return bytes.NewReader(data)
}

// List handles GET /api/v1/games/{id}/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	recs, err := h.playerService.List(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []*model.PlayerRecord{}
	}

	response.JSON(w, http.StatusOK, response.PlayerListResponse{Players: recs})
}

// Add handles POST /api/v1/games/{id}/players
func (h *PlayerHandler) Add(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	var req request.AddPlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	created, err := h.playerService.Add(r.Context(), host, gameID, players.AddInput{
		Name:  req.Name,
		Photo: photoReader(req.Photo),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/players/"+string(created.Player.ID),
		response.CreatedPlayerFromResult(created, model.MsgPlayerAdded, model.MsgAddedNoPhoto))
}

// Join handles POST /api/v1/games/{id}/join
func (h *PlayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	var req request.JoinRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	created, err := h.playerService.Join(r.Context(), gameID, players.JoinInput{
		Name:     req.Name,
		Password: req.Password,
		Photo:    photoReader(req.Photo),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/players/"+string(created.Player.ID),
		response.CreatedPlayerFromResult(created, model.MsgJoined, model.MsgJoinedNoPhoto))
}

// Edit handles PATCH /api/v1/players/{id}
func (h *PlayerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	id := model.PlayerID(mux.Vars(r)["id"])

	var req request.EditPlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.playerService.Edit(r.Context(), host, id, players.EditInput{
		Name:   req.Name,
		Number: req.Number,
		Status: model.PlayerStatus(req.Status),
		Losses: req.Losses,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p.Record())
}

// Delete handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	id := model.PlayerID(mux.Vars(r)["id"])

	if _, err := h.playerService.Delete(r.Context(), host, id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// UploadPhoto handles PUT /api/v1/players/{id}/photo with the raw image as
// the body
func (h *PlayerHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	id := model.PlayerID(mux.Vars(r)["id"])

	p, err := h.playerService.UploadPhoto(r.Context(), host, id, r.Body)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p.Record())
}
