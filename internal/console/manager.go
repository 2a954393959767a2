package console

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

// DialogState is where the player dialog is in the edit/delete flow
type DialogState int

const (
	StateIdle DialogState = iota
	StateEditing
	StateConfirmingDelete
	StateDeleting
)

func (s DialogState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateConfirmingDelete:
		return "confirming-delete"
	case StateDeleting:
		return "deleting"
	}
	return "idle"
}

// ErrInvalidTransition is returned for a dialog action the current state
// does not allow
var ErrInvalidTransition = errors.New("action not allowed in the current dialog state")

// Manager is a host's management console for one game.
//
//	Idle -> Editing -> ConfirmingDelete -> Deleting -> Idle
//
// Editing can also save or cancel back to Idle, and ConfirmingDelete can
// cancel back to Editing.
type Manager struct {
	gameID  model.GameID
	backend Backend
	store   *roster.Store
	notify  Notifier

	mu       sync.Mutex
	state    DialogState
	selected *model.Player
}

// NewManager creates a management console for gameID over store
func NewManager(gameID model.GameID, backend Backend, store *roster.Store, notify Notifier) *Manager {
	return &Manager{
		gameID:  gameID,
		backend: backend,
		store:   store,
		notify:  notify,
	}
}

// State returns the dialog state
func (m *Manager) State() DialogState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Selected returns the player open in the dialog
func (m *Manager) Selected() (model.Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return model.Player{}, false
	}
	return *m.selected, true
}

// Add creates a player and shows it immediately
func (m *Manager) Add(ctx context.Context, name string) (*model.Player, error) {
	name, err := model.ValidatePlayerName(name)
	if err != nil {
		return nil, m.fail(err)
	}
	rec, err := m.backend.AddPlayer(ctx, m.gameID, name)
	if err != nil {
		return nil, m.fail(err)
	}
	p := model.TransformPlayer(*rec)
	m.store.Insert(p)
	m.notify.Notify(KindSuccess, model.MsgPlayerAdded)
	return &p, nil
}

// Open selects a player for editing
func (m *Manager) Open(id model.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle && m.state != StateEditing {
		return ErrInvalidTransition
	}
	p, ok := m.store.Get(id)
	if !ok {
		return model.ErrPlayerNotFound
	}
	m.selected = &p
	m.state = StateEditing
	return nil
}

// Cancel closes the dialog from Editing
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateEditing {
		return ErrInvalidTransition
	}
	m.selected = nil
	m.state = StateIdle
	return nil
}

// Save validates edit and writes it for the selected player. Invalid input
// leaves the dialog open and nothing is sent.
func (m *Manager) Save(ctx context.Context, edit Edit) (*model.Player, error) {
	m.mu.Lock()
	if m.state != StateEditing {
		m.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	id := m.selected.ID
	m.mu.Unlock()

	name, err := model.ValidatePlayerName(edit.Name)
	if err != nil {
		return nil, m.fail(err)
	}
	if err := model.ValidatePlayerNumber(edit.Number); err != nil {
		return nil, m.fail(err)
	}
	edit.Name = name

	rec, err := m.backend.EditPlayer(ctx, id, edit)
	if err != nil {
		return nil, m.fail(err)
	}

	p := model.TransformPlayer(*rec)
	m.store.Update(p)

	m.mu.Lock()
	m.selected = nil
	m.state = StateIdle
	m.mu.Unlock()

	m.notify.Notify(KindSuccess, model.MsgPlayerUpdated)
	return &p, nil
}

// RequestDelete asks for confirmation before deleting the selected player
func (m *Manager) RequestDelete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateEditing {
		return ErrInvalidTransition
	}
	m.state = StateConfirmingDelete
	return nil
}

// CancelDelete returns to editing
func (m *Manager) CancelDelete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConfirmingDelete {
		return ErrInvalidTransition
	}
	m.state = StateEditing
	return nil
}

// ConfirmDelete deletes the selected player. The selection is cleared
// before the request goes out, and the player leaves the local roster as
// soon as the backend confirms.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateConfirmingDelete {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	target := *m.selected
	m.selected = nil
	m.state = StateDeleting
	m.mu.Unlock()

	err := m.backend.DeletePlayer(ctx, target.ID)

	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()

	if err != nil {
		return m.fail(err)
	}
	m.store.ApplyTransientRemoval(target)
	m.notify.Notify(KindSuccess, model.MsgPlayerDeleted)
	return nil
}

// UploadPhoto replaces a player's photo
func (m *Manager) UploadPhoto(ctx context.Context, id model.PlayerID, data []byte) (*model.Player, error) {
	rec, err := m.backend.UploadPhoto(ctx, id, data)
	if err != nil {
		return nil, m.fail(err)
	}
	p := model.TransformPlayer(*rec)
	m.store.Update(p)
	m.notify.Notify(KindSuccess, model.MsgPhotoUploaded)
	return &p, nil
}

func (m *Manager) fail(err error) error {
	m.notify.Notify(KindError, model.Message(err))
	return err
}
