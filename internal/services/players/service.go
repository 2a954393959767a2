// Package players implements the join and roster management workflows.
package players

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/squidgame/internal/dependencies/clock"
	"github.com/mcoot/squidgame/internal/dependencies/ids"
	"github.com/mcoot/squidgame/internal/dependencies/random"
	"github.com/mcoot/squidgame/internal/feed"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/photos"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/storage"
)

// JoinInput is a self-service join request
type JoinInput struct {
	Name     string
	Password string
	// Photo is optional
	Photo io.Reader
}

// AddInput is a host adding a player directly
type AddInput struct {
	Name  string
	Photo io.Reader
}

// EditInput is the full set of host-editable fields, written in one update
type EditInput struct {
	Name   string
	Number int
	Status model.PlayerStatus
	Losses int
}

// Created is the outcome of a join or add. The player exists even when
// PhotoErr is set; the photo is simply missing.
type Created struct {
	Player   model.Player
	PhotoErr error
}

// Service owns every write to a game's roster and publishes the matching
// change event after each one commits.
type Service struct {
	storage   storage.Storage
	games     *game.Controller
	publisher feed.Publisher
	photos    *photos.Store
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	writes    gameLocks
}

// New creates a players Service
func New(
	storage storage.Storage,
	games *game.Controller,
	publisher feed.Publisher,
	photoStore *photos.Store,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:   storage,
		games:     games,
		publisher: publisher,
		photos:    photoStore,
		clock:     clock,
		random:    random,
		ids:       ids,
		metrics:   m,
		logger:    logger.With(slog.String("component", "players")),
	}
}

// List returns a game's raw player records ordered by number
func (s *Service) List(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error) {
	if gameID == "" {
		return nil, model.ErrMissingGameID
	}
	if _, err := s.storage.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.storage.ListPlayers(ctx, gameID)
}

// Lookup returns a player's raw record
func (s *Service) Lookup(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return s.storage.GetPlayer(ctx, id)
}

// Join adds a player to a game if the submitted password matches the
// game's join password exactly. A game without a password only accepts an
// empty submission.
func (s *Service) Join(ctx context.Context, gameID model.GameID, in JoinInput) (*Created, error) {
	if gameID == "" {
		return nil, model.ErrMissingGameID
	}
	name, err := model.ValidatePlayerName(in.Name)
	if err != nil {
		return nil, err
	}

	rec, err := s.storage.GetGame(ctx, gameID)
	if err != nil {
		s.metrics.Join(metrics.JoinFailed)
		return nil, err
	}
	g := model.TransformGame(*rec)
	if subtle.ConstantTimeCompare([]byte(in.Password), []byte(g.JoinPassword)) != 1 {
		s.metrics.Join(metrics.JoinRejected)
		s.logger.Info("join rejected", slog.String("game_id", string(gameID)))
		return nil, model.ErrIncorrectPassword
	}

	created, err := s.create(ctx, gameID, name, in.Photo)
	if err != nil {
		s.metrics.Join(metrics.JoinFailed)
		return nil, err
	}
	s.metrics.Join(metrics.JoinAccepted)
	return created, nil
}

// Add creates a player in a game the host owns
func (s *Service) Add(ctx context.Context, host *model.Host, gameID model.GameID, in AddInput) (*Created, error) {
	name, err := model.ValidatePlayerName(in.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.games.OwnedGame(ctx, host, gameID); err != nil {
		return nil, err
	}
	return s.create(ctx, gameID, name, in.Photo)
}

// create inserts an alive player with a random badge number and zero
// losses, then attaches the photo if one was given
func (s *Service) create(ctx context.Context, gameID model.GameID, name string, photo io.Reader) (*Created, error) {
	losses := 0
	rec := &model.PlayerRecord{
		ID:     model.PlayerID(s.ids.NewID()),
		Name:   name,
		Number: random.PlayerNumber(s.random),
		Status: model.PlayerStatusAlive,
		Losses: &losses,
		GameID: gameID,
	}
	unlock := s.writes.lock(gameID)
	if err := s.storage.InsertPlayer(ctx, rec); err != nil {
		unlock()
		return nil, err
	}
	s.publish(ctx, model.PlayerInserted(*rec, s.clock.Now()))
	unlock()

	s.logger.Info("player created",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(rec.ID)),
		slog.Int("number", rec.Number))

	created := &Created{Player: model.TransformPlayer(*rec)}
	if photo == nil {
		return created, nil
	}

	updated, err := s.attachPhoto(ctx, gameID, rec.ID, photo)
	if err != nil {
		s.logger.Warn("photo upload failed after create",
			slog.String("player_id", string(rec.ID)),
			slog.Any("error", err))
		created.PhotoErr = err
		return created, nil
	}
	created.Player = *updated
	return created, nil
}

// Edit validates in and writes name, status, number and losses together.
// Nothing is written if any field is invalid.
func (s *Service) Edit(ctx context.Context, host *model.Host, id model.PlayerID, in EditInput) (*model.Player, error) {
	name, err := model.ValidatePlayerName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := model.ValidatePlayerNumber(in.Number); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, model.ErrInvalidPlayerStatus
	}
	if in.Losses < 0 {
		return nil, model.ErrInvalidLosses
	}

	current, err := s.ownedPlayer(ctx, host, id)
	if err != nil {
		return nil, err
	}

	unlock := s.writes.lock(current.GameID)
	defer unlock()
	updated, err := s.storage.UpdatePlayer(ctx, id, model.PlayerPatch{
		Name:   &name,
		Number: &in.Number,
		Status: &in.Status,
		Losses: &in.Losses,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.PlayerUpdated(*updated, s.clock.Now()))

	p := model.TransformPlayer(*updated)
	return &p, nil
}

// Delete permanently removes a player
func (s *Service) Delete(ctx context.Context, host *model.Host, id model.PlayerID) (*model.Player, error) {
	current, err := s.ownedPlayer(ctx, host, id)
	if err != nil {
		return nil, err
	}

	unlock := s.writes.lock(current.GameID)
	defer unlock()
	deleted, err := s.storage.DeletePlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.PlayerDeleted(deleted.GameID, deleted.ID, s.clock.Now()))

	s.logger.Info("player deleted",
		slog.String("game_id", string(deleted.GameID)),
		slog.String("player_id", string(id)))

	p := model.TransformPlayer(*deleted)
	return &p, nil
}

// UploadPhoto stores a new photo and points the player at it
func (s *Service) UploadPhoto(ctx context.Context, host *model.Host, id model.PlayerID, photo io.Reader) (*model.Player, error) {
	current, err := s.ownedPlayer(ctx, host, id)
	if err != nil {
		return nil, err
	}
	return s.attachPhoto(ctx, current.GameID, id, photo)
}

// attachPhoto stores the photo, then points the player at it under the
// game's write lock
func (s *Service) attachPhoto(ctx context.Context, gameID model.GameID, id model.PlayerID, photo io.Reader) (*model.Player, error) {
	url, err := s.photos.Upload(ctx, id, photo, s.clock.Now())
	if err != nil {
		if isPhotoRejection(err) {
			s.metrics.PhotoUpload(metrics.PhotoRejected)
		} else {
			s.metrics.PhotoUpload(metrics.PhotoFailed)
		}
		return nil, err
	}

	unlock := s.writes.lock(gameID)
	defer unlock()
	updated, err := s.storage.UpdatePlayer(ctx, id, model.PlayerPatch{PhotoURL: &url})
	if err != nil {
		s.metrics.PhotoUpload(metrics.PhotoFailed)
		return nil, err
	}
	s.metrics.PhotoUpload(metrics.PhotoStored)
	s.publish(ctx, model.PlayerUpdated(*updated, s.clock.Now()))

	p := model.TransformPlayer(*updated)
	return &p, nil
}

// ownedPlayer loads a player whose game the host owns
func (s *Service) ownedPlayer(ctx context.Context, host *model.Host, id model.PlayerID) (*model.PlayerRecord, error) {
	if host == nil {
		return nil, model.ErrUnauthenticated
	}
	rec, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.games.OwnedGame(ctx, host, rec.GameID); err != nil {
		return nil, err
	}
	return rec, nil
}

// publish sends a change event. The write has already committed, so a
// failed publish is logged and not returned.
func (s *Service) publish(ctx context.Context, event model.ChangeEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("change event not published",
			slog.String("type", string(event.Type)),
			slog.String("player_id", string(event.PlayerID())),
			slog.Any("error", err))
		return
	}
	s.metrics.FeedEventPublished(event.Type)
}

func isPhotoRejection(err error) bool {
	return errors.Is(err, model.ErrPhotoEmpty) ||
		errors.Is(err, model.ErrPhotoNotImage) ||
		errors.Is(err, model.ErrPhotoTooLarge)
}
