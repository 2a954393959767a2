// Package components holds fragments rendered both inside pages and as
// live-view updates.
package components

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/squidgame/internal/model"
)

// Element ids targeted by live-view swaps
const (
	RosterID = "roster"
	WinnerID = "winner-banner"
)

var playerStatuses = []model.PlayerStatus{model.PlayerStatusAlive, model.PlayerStatusEliminated}

func cardClass(p model.Player) string {
	return "player-card player-" + string(p.Status)
}

func lossesTitle(losses int) string {
	return strconv.Itoa(losses) + " losses"
}

func playerURL(id model.PlayerID, action string) string {
	return "/players/" + string(id) + "/" + action
}

func playerAction(id model.PlayerID, action string) templ.SafeURL {
	return templ.SafeURL(playerURL(id, action))
}
