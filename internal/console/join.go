package console

import (
	"context"
	"sync"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

// Joiner is the join form of a TV view
type Joiner struct {
	gameID  model.GameID
	backend Backend
	store   *roster.Store
	notify  Notifier

	mu   sync.Mutex
	form JoinRequest
}

// NewJoiner creates a join form for gameID whose successes land in store
func NewJoiner(gameID model.GameID, backend Backend, store *roster.Store, notify Notifier) *Joiner {
	return &Joiner{
		gameID:  gameID,
		backend: backend,
		store:   store,
		notify:  notify,
	}
}

// Fill sets the form fields
func (j *Joiner) Fill(req JoinRequest) {
	j.mu.Lock()
	j.form = req
	j.mu.Unlock()
}

// Form returns the current form fields
func (j *Joiner) Form() JoinRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.form
}

// Submit sends the form. The form is cleared whatever the outcome.
func (j *Joiner) Submit(ctx context.Context) (*model.Player, error) {
	j.mu.Lock()
	req := j.form
	j.form = JoinRequest{}
	j.mu.Unlock()

	name, err := model.ValidatePlayerName(req.Name)
	if err != nil {
		j.notify.Notify(KindError, model.Message(err))
		return nil, err
	}
	req.Name = name

	res, err := j.backend.Join(ctx, j.gameID, req)
	if err != nil {
		j.notify.Notify(KindError, model.Message(err))
		return nil, err
	}

	p := model.TransformPlayer(res.Player)
	j.store.Insert(p)
	if res.PhotoFailed {
		j.notify.Notify(KindWarning, model.MsgJoinedNoPhoto)
	} else {
		j.notify.Notify(KindSuccess, model.MsgJoined)
	}
	return &p, nil
}
