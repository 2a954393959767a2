package game

import (
	"context"
	"log/slog"

	"github.com/mcoot/squidgame/internal/dependencies/clock"
	"github.com/mcoot/squidgame/internal/dependencies/ids"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// Summary is a dashboard row
type Summary struct {
	Game        model.Game
	PlayerCount int
}

// Controller manages games on behalf of their hosts. Games are never
// deleted and their status only changes when the host sets it.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger.With(slog.String("component", "game")),
	}
}

// CreateGame creates a pending game owned by host
func (c *Controller) CreateGame(ctx context.Context, host *model.Host, name string) (*model.Game, error) {
	if host == nil {
		return nil, model.ErrUnauthenticated
	}
	name, err := model.ValidateGameName(name)
	if err != nil {
		return nil, err
	}

	rec := &model.GameRecord{
		ID:        model.GameID(c.ids.NewID()),
		Name:      name,
		CreatedAt: c.clock.Now(),
		OwnerID:   host.ID,
		Status:    model.GameStatusPending,
	}
	if err := c.storage.InsertGame(ctx, rec); err != nil {
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(rec.ID)),
		slog.String("host_id", string(host.ID)))

	game := model.TransformGame(*rec)
	return &game, nil
}

// GetGame returns a game without its players
func (c *Controller) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	if id == "" {
		return nil, model.ErrMissingGameID
	}
	rec, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	game := model.TransformGame(*rec)
	return &game, nil
}

// OwnedGame returns the game if host owns it. A game owned by someone else
// is ErrNotOwner; callers that must not reveal its existence map that to
// not found.
func (c *Controller) OwnedGame(ctx context.Context, host *model.Host, id model.GameID) (*model.GameRecord, error) {
	if host == nil {
		return nil, model.ErrUnauthenticated
	}
	if id == "" {
		return nil, model.ErrMissingGameID
	}
	rec, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != host.ID {
		return nil, model.ErrNotOwner
	}
	return rec, nil
}

// ListGames returns the host's games newest first with their player counts
func (c *Controller) ListGames(ctx context.Context, host *model.Host) ([]Summary, error) {
	if host == nil {
		return nil, model.ErrUnauthenticated
	}
	recs, err := c.storage.ListGamesByOwner(ctx, host.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		players, err := c.storage.ListPlayers(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{
			Game:        model.TransformGame(*rec),
			PlayerCount: len(players),
		})
	}
	return summaries, nil
}

// SetJoinPassword replaces the game's join password. The value is stored
// verbatim; an empty password clears it.
func (c *Controller) SetJoinPassword(ctx context.Context, host *model.Host, id model.GameID, password string) (*model.Game, error) {
	rec, err := c.OwnedGame(ctx, host, id)
	if err != nil {
		return nil, err
	}

	if password == "" {
		rec.JoinPassword = nil
	} else {
		rec.JoinPassword = &password
	}
	if err := c.storage.UpdateGame(ctx, rec); err != nil {
		return nil, err
	}

	c.logger.Info("join password updated", slog.String("game_id", string(id)), slog.Bool("cleared", password == ""))
	game := model.TransformGame(*rec)
	return &game, nil
}

// SetStatus sets the game's phase
func (c *Controller) SetStatus(ctx context.Context, host *model.Host, id model.GameID, status model.GameStatus) (*model.Game, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidGameStatus
	}
	rec, err := c.OwnedGame(ctx, host, id)
	if err != nil {
		return nil, err
	}

	rec.Status = status
	if err := c.storage.UpdateGame(ctx, rec); err != nil {
		return nil, err
	}

	c.logger.Info("game status changed", slog.String("game_id", string(id)), slog.String("status", string(status)))
	game := model.TransformGame(*rec)
	return &game, nil
}
