// Package console drives the join and management flows from a client that
// holds its own roster, applying confirmed writes locally without waiting
// for the change feed to echo them.
package console

import (
	"context"

	"github.com/mcoot/squidgame/internal/model"
)

// Kind is the severity of a notification
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier shows a one-line message to the user
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) {
	f(kind, message)
}

// JoinRequest is the join form as submitted
type JoinRequest struct {
	Name     string
	Password string
	Photo    []byte
}

// JoinResult is a created player. PhotoFailed is set when the player was
// created but the photo could not be stored.
type JoinResult struct {
	Player      model.PlayerRecord
	PhotoFailed bool
}

// Edit is the full set of host-editable fields
type Edit struct {
	Name   string
	Number int
	Status model.PlayerStatus
	Losses int
}

// Backend is the remote side of the join and management flows
type Backend interface {
	Join(ctx context.Context, gameID model.GameID, req JoinRequest) (*JoinResult, error)
	AddPlayer(ctx context.Context, gameID model.GameID, name string) (*model.PlayerRecord, error)
	EditPlayer(ctx context.Context, id model.PlayerID, edit Edit) (*model.PlayerRecord, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	UploadPhoto(ctx context.Context, id model.PlayerID, data []byte) (*model.PlayerRecord, error)
}
