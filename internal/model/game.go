package model

import (
	"strings"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// GameStatus is the host-controlled phase of a game
type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"
	GameStatusInProgress GameStatus = "in-progress"
	GameStatusCompleted  GameStatus = "completed"
)

// Valid reports whether s is a known status
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusPending, GameStatusInProgress, GameStatusCompleted:
		return true
	}
	return false
}

// Game is a single Squid Game session owned by a host
type Game struct {
	ID           GameID     `json:"id"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"createdAt"`
	OwnerID      HostID     `json:"ownerId"`
	Status       GameStatus `json:"status"`
	JoinPassword string     `json:"joinPassword,omitempty"`

	// Players is filled in by loaders, ordered by ascending number.
	Players []Player `json:"players,omitempty"`
}

// OwnedBy reports whether the host owns the game
func (g *Game) OwnedBy(hostID HostID) bool {
	return g.OwnerID == hostID
}

// GameRecord is the persisted shape of a game
type GameRecord struct {
	ID           GameID     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	OwnerID      HostID     `json:"owner_id" db:"owner_id"`
	Status       GameStatus `json:"status" db:"status"`
	JoinPassword *string    `json:"join_password,omitempty" db:"join_password"`
}

// TransformGame normalizes a persisted record into a Game. A missing
// status is treated as pending and a missing password as empty.
func TransformGame(rec GameRecord) Game {
	g := Game{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		OwnerID:   rec.OwnerID,
		Status:    rec.Status,
	}
	if g.Status == "" {
		g.Status = GameStatusPending
	}
	if rec.JoinPassword != nil {
		g.JoinPassword = *rec.JoinPassword
	}
	return g
}

// Record is the persisted shape of g. An empty password is left unset.
func (g Game) Record() GameRecord {
	rec := GameRecord{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		OwnerID:   g.OwnerID,
		Status:    g.Status,
	}
	if g.JoinPassword != "" {
		pw := g.JoinPassword
		rec.JoinPassword = &pw
	}
	return rec
}

// ValidateGameName trims name and rejects it if empty
func ValidateGameName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidGameName
	}
	return name, nil
}
