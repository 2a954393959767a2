// Package pages holds the full-page views.
package pages

import (
	"github.com/a-h/templ"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/roster"
	"github.com/mcoot/squidgame/internal/services/game"
	"github.com/mcoot/squidgame/internal/web/templates/layout"
)

// HomeData is the data for the home page
type HomeData struct {
	layout.PageData
	Next  string
	Email string
}

// DashboardData is the data for a host's dashboard
type DashboardData struct {
	layout.PageData
	Games []game.Summary
}

// ManageData is the data for a game's management view
type ManageData struct {
	layout.PageData
	Game    model.Game
	Outcome roster.Outcome
}

// TVData is the data for the public TV view
type TVData struct {
	layout.PageData
	Game      model.Game
	Outcome   roster.Outcome
	Celebrate bool
	JoinURL   string
}

var gameStatuses = []model.GameStatus{model.GameStatusPending, model.GameStatusInProgress, model.GameStatusCompleted}

func gameURL(id model.GameID, suffix string) templ.SafeURL {
	return templ.SafeURL("/games/" + string(id) + suffix)
}

func tvURL(id model.GameID, suffix string) templ.SafeURL {
	return templ.SafeURL("/tv/" + string(id) + suffix)
}

func tvClass(celebrate bool) string {
	if celebrate {
		return "tv celebrating"
	}
	return "tv"
}

// celebrateToggle links to the TV page with the celebration flipped
func celebrateToggle(id model.GameID, celebrate bool) (templ.SafeURL, string) {
	if celebrate {
		return tvURL(id, "?"), "Stop celebrating"
	}
	return tvURL(id, "?celebrate=1"), "Celebrate"
}
