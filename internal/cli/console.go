package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/loader"
)

// loadGame reads a game and its roster through the API
func loadGame(cmd *cobra.Command, gameID model.GameID) (*loader.View, error) {
	l := loader.New(client, logger(cmd))
	view, err := l.Load(cmd.Context(), loader.Request{GameID: gameID})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// remoteConsole is a local roster for one game driven through the API
type remoteConsole struct {
	gameID  model.GameID
	store   *roster.Store
	manager *console.Manager
	view    *loader.View
}

// openConsole creates a management console for gameID. With seed set the
// roster is loaded first so players can be found by id or badge.
func openConsole(cmd *cobra.Command, gameID model.GameID, seed bool) (*remoteConsole, error) {
	rc := &remoteConsole{
		gameID: gameID,
		store:  roster.NewStore(),
	}
	if seed {
		view, err := loadGame(cmd, gameID)
		if err != nil {
			return nil, err
		}
		rc.view = view
		rc.store.Reset(view.Players)
	}
	rc.manager = console.NewManager(gameID, client, rc.store, output(cmd).Notifier(false))
	return rc, nil
}

// find resolves a player id or badge number against the local roster
func (rc *remoteConsole) find(ref string) (model.Player, error) {
	if p, ok := rc.store.Get(model.PlayerID(ref)); ok {
		return p, nil
	}
	number, err := strconv.Atoi(ref)
	if err != nil {
		return model.Player{}, model.ErrPlayerNotFound
	}
	var matches []model.Player
	for _, p := range rc.store.Players() {
		if p.Number == number {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return model.Player{}, model.ErrPlayerNotFound
	case 1:
		return matches[0], nil
	}
	return model.Player{}, fmt.Errorf("badge %s is shared by %d players, use the player id", model.FormatBadge(number), len(matches))
}

// Close releases the local roster
func (rc *remoteConsole) Close() {
	rc.store.Reset(nil)
}
