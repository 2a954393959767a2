// Package loader assembles a game and its roster for a view.
package loader

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
)

// Source is where games and rosters are read from. storage.Storage
// satisfies it, as does the CLI's API client.
type Source interface {
	GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error)
	ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error)
}

// Request describes what to load
type Request struct {
	GameID model.GameID
	// Viewer is the signed-in host, if any
	Viewer *model.Host
	// RequireViewer restricts the load to the viewer's own games
	RequireViewer bool
}

// View is a game with its players ordered by number
type View struct {
	Game    model.Game
	Players []model.Player
}

// Loader issues the game and roster reads in parallel
type Loader struct {
	source   Source
	logger   *slog.Logger
	inFlight atomic.Int32
}

// New creates a Loader reading from source
func New(source Source, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Loading reports whether a Load is in progress
func (l *Loader) Loading() bool {
	return l.inFlight.Load() > 0
}

// Load returns the composed view or the first error; there is no partial
// result. Missing input fails before any read is issued.
func (l *Loader) Load(ctx context.Context, req Request) (*View, error) {
	l.inFlight.Add(1)
	defer l.inFlight.Add(-1)

	if req.GameID == "" {
		return nil, model.ErrMissingGameID
	}
	if req.RequireViewer && req.Viewer == nil {
		return nil, model.ErrUnauthenticated
	}

	var (
		gameRec *model.GameRecord
		records []*model.PlayerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gameRec, err = l.source.GetGame(gctx, req.GameID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = l.source.ListPlayers(gctx, req.GameID)
		return err
	})
	if err := g.Wait(); err != nil {
		l.logger.Debug("load failed", slog.String("game_id", string(req.GameID)), slog.Any("error", err))
		return nil, err
	}

	if req.RequireViewer && gameRec.OwnerID != req.Viewer.ID {
		return nil, model.ErrGameNotFound
	}

	players := model.TransformPlayers(records)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Number < players[j].Number
	})

	game := model.TransformGame(*gameRec)
	game.Players = players
	return &View{Game: game, Players: players}, nil
}

// Seed adapts a load into a roster seed. view, if non-nil, receives the
// loaded game so the caller can render its header.
func (l *Loader) Seed(req Request, view **View) roster.SeedFunc {
	return func(ctx context.Context) ([]model.Player, error) {
		v, err := l.Load(ctx, req)
		if err != nil {
			return nil, err
		}
		if view != nil {
			*view = v
		}
		return v.Players, nil
	}
}
