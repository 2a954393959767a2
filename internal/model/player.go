package model

import (
	"fmt"
	"strings"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// PlayerStatus is whether a player is still in the game
type PlayerStatus string

const (
	PlayerStatusAlive      PlayerStatus = "alive"
	PlayerStatusEliminated PlayerStatus = "eliminated"
)

// Valid reports whether s is a known status
func (s PlayerStatus) Valid() bool {
	return s == PlayerStatusAlive || s == PlayerStatusEliminated
}

// Badge numbers run from MinPlayerNumber to MaxPlayerNumber inclusive
const (
	MinPlayerNumber = 1
	MaxPlayerNumber = 456
)

// Player is a roster entry as the application sees it
type Player struct {
	ID       PlayerID     `json:"id"`
	Name     string       `json:"name"`
	Number   int          `json:"number"`
	Status   PlayerStatus `json:"status"`
	Losses   int          `json:"losses"`
	PhotoURL string       `json:"photoUrl,omitempty"`
	GameID   GameID       `json:"gameId"`

	// Removed is set locally while a deleted player is being filtered out
	// of a roster. It is never persisted.
	Removed bool `json:"-"`
}

// IsAlive reports whether the player is still in the game
func (p Player) IsAlive() bool {
	return p.Status == PlayerStatusAlive
}

// Badge returns the number zero-padded to three digits, e.g. "067"
func (p Player) Badge() string {
	return FormatBadge(p.Number)
}

// FormatBadge zero-pads a badge number to three digits
func FormatBadge(number int) string {
	return fmt.Sprintf("%03d", number)
}

// PlayerRecord is the persisted shape of a player, as stored and as carried
// by API responses and change-feed payloads.
type PlayerRecord struct {
	ID       PlayerID     `json:"id" db:"id"`
	Name     string       `json:"name" db:"name"`
	Number   int          `json:"number" db:"number"`
	Status   PlayerStatus `json:"status" db:"status"`
	Losses   *int         `json:"losses,omitempty" db:"losses"`
	PhotoURL *string      `json:"photo_url,omitempty" db:"photo_url"`
	GameID   GameID       `json:"game_id" db:"game_id"`
}

// TransformPlayer normalizes a persisted record into a Player.
// Missing losses become 0 and a missing photo stays absent.
func TransformPlayer(rec PlayerRecord) Player {
	p := Player{
		ID:     rec.ID,
		Name:   rec.Name,
		Number: rec.Number,
		Status: rec.Status,
		GameID: rec.GameID,
	}
	if rec.Losses != nil {
		p.Losses = *rec.Losses
	}
	if rec.PhotoURL != nil {
		p.PhotoURL = *rec.PhotoURL
	}
	return p
}

// Record is the persisted shape of p. An empty photo URL is left unset.
func (p Player) Record() PlayerRecord {
	losses := p.Losses
	rec := PlayerRecord{
		ID:     p.ID,
		Name:   p.Name,
		Number: p.Number,
		Status: p.Status,
		Losses: &losses,
		GameID: p.GameID,
	}
	if p.PhotoURL != "" {
		url := p.PhotoURL
		rec.PhotoURL = &url
	}
	return rec
}

// TransformPlayers applies TransformPlayer to each record
func TransformPlayers(recs []*PlayerRecord) []Player {
	players := make([]Player, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		players = append(players, TransformPlayer(*rec))
	}
	return players
}

// PlayerPatch lists the fields of a player update. Nil fields are left as-is.
type PlayerPatch struct {
	Name     *string
	Number   *int
	Status   *PlayerStatus
	Losses   *int
	PhotoURL *string
}

// Apply writes the non-nil patch fields onto rec
func (p PlayerPatch) Apply(rec *PlayerRecord) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Number != nil {
		rec.Number = *p.Number
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Losses != nil {
		losses := *p.Losses
		rec.Losses = &losses
	}
	if p.PhotoURL != nil {
		url := *p.PhotoURL
		rec.PhotoURL = &url
	}
}

// ValidatePlayerName trims name and rejects it if empty
func ValidatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidPlayerName
	}
	return name, nil
}

// ValidatePlayerNumber rejects badge numbers outside 1..456
func ValidatePlayerNumber(number int) error {
	if number < MinPlayerNumber || number > MaxPlayerNumber {
		return ErrInvalidPlayerNumber
	}
	return nil
}
