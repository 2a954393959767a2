package response

import (
	"time"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/services/players"
)

// Host represents a host account in API responses
type Host struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HostFromModel converts a model.Host to a response Host
func HostFromModel(h *model.Host) Host {
	return Host{
		ID:        string(h.ID),
		Email:     h.Email,
		CreatedAt: h.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Host         Host      `json:"host"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Host:         HostFromModel(&s.Host),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// GameFromModel returns the persisted shape of g. The join password is
// only included for the owner.
func GameFromModel(g *model.Game, viewer *model.Host) model.GameRecord {
	rec := g.Record()
	if viewer == nil || !g.OwnedBy(viewer.ID) {
		rec.JoinPassword = nil
	}
	return rec
}

// GameSummary is a game in a host's list
type GameSummary struct {
	Game        model.GameRecord `json:"game"`
	PlayerCount int              `json:"player_count"`
}

// GameListResponse lists a host's games, newest first
type GameListResponse struct {
	Games []GameSummary `json:"games"`
}

// GameListFromSummaries converts dashboard rows for the owner
func GameListFromSummaries(summaries []game.Summary) GameListResponse {
	resp := GameListResponse{Games: make([]GameSummary, len(summaries))}
	for i, s := range summaries {
		resp.Games[i] = GameSummary{Game: s.Game.Record(), PlayerCount: s.PlayerCount}
	}
	return resp
}

// PlayerListResponse is a game's raw player records, ordered by number
type PlayerListResponse struct {
	Players []*model.PlayerRecord `json:"players"`
}

// CreatedPlayerResponse is returned when a player is added or joins
type CreatedPlayerResponse struct {
	Player      model.PlayerRecord `json:"player"`
	PhotoFailed bool               `json:"photo_failed,omitempty"`
	Message     string             `json:"message"`
}

// CreatedPlayerFromResult builds the response for a created player;
// success is the message used when the photo, if any, was stored
func CreatedPlayerFromResult(c *players.Created, success, photoFailed string) CreatedPlayerResponse {
	resp := CreatedPlayerResponse{
		Player:  c.Player.Record(),
		Message: success,
	}
	if c.PhotoErr != nil {
		resp.PhotoFailed = true
		resp.Message = photoFailed
	}
	return resp
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status string `json:"status"`
}
