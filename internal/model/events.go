package model

import "time"

// ChangeType identifies the kind of row change carried by a ChangeEvent
type ChangeType string

const (
	ChangePlayerInserted ChangeType = "INSERT"
	ChangePlayerUpdated  ChangeType = "UPDATE"
	ChangePlayerDeleted  ChangeType = "DELETE"
)

// ChangeEvent is a single row-level change on a game's players.
// Inserts and updates carry the new record; deletes carry only the id.
type ChangeEvent struct {
	Type        ChangeType    `json:"type"`
	GameID      GameID        `json:"game_id"`
	Record      *PlayerRecord `json:"new,omitempty"`
	OldID       PlayerID      `json:"old_id,omitempty"`
	CommittedAt time.Time     `json:"commit_timestamp"`
}

// PlayerID returns the id of the player the event concerns
func (e ChangeEvent) PlayerID() PlayerID {
	if e.Record != nil {
		return e.Record.ID
	}
	return e.OldID
}

// PlayerInserted builds an insert event for rec
func PlayerInserted(rec PlayerRecord, at time.Time) ChangeEvent {
	return ChangeEvent{Type: ChangePlayerInserted, GameID: rec.GameID, Record: &rec, CommittedAt: at}
}

// PlayerUpdated builds an update event for rec
func PlayerUpdated(rec PlayerRecord, at time.Time) ChangeEvent {
	return ChangeEvent{Type: ChangePlayerUpdated, GameID: rec.GameID, Record: &rec, CommittedAt: at}
}

// PlayerDeleted builds a delete event for a player of gameID
func PlayerDeleted(gameID GameID, id PlayerID, at time.Time) ChangeEvent {
	return ChangeEvent{Type: ChangePlayerDeleted, GameID: gameID, OldID: id, CommittedAt: at}
}
