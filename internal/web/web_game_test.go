package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/squidgame/internal/model"
)

func TestDashboardListsGames(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")

	doc := parseHTML(ts.get("/dashboard").Body)
	assertContainsText(t, doc, ".empty", "No games yet")

	gameID := ts.createGame("Friday")
	ts.addPlayer(gameID, "Gi-hun")

	doc = parseHTML(ts.get("/dashboard").Body)
	item := doc.Find(".game-item[data-game-id='" + string(gameID) + "']")
	require.Equal(t, 1, item.Length())
	assert.Equal(t, "Friday", item.Find(".game-name").Text())
	assert.Contains(t, item.Find(".player-count").Text(), "1 players")
	href, _ := item.Find(".tv-link").Attr("href")
	assert.Equal(t, "/tv/"+string(gameID), href)
}

func TestDashboardOnlyShowsOwnGames(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("owner@example.com")
	ts.createGame("Friday")

	other := ts.visitor()
	other.signUp("other@example.com")

	doc := parseHTML(other.get("/dashboard").Body)
	assertNotContainsElement(t, doc, ".game-item")
}

func TestCreateGameRequiresName(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")

	rr := ts.post("/games", url.Values{"name": {"   "}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestManagePage(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	rr := ts.get("/games/" + string(gameID))
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1", "Friday")
	assertContainsElement(t, doc, "#status-form")
	assertContainsElement(t, doc, "#password-form")
	assertContainsElement(t, doc, "#add-player-form")
	assertContainsText(t, doc, "#roster", "No players yet")

	connect, _ := doc.Find("[sse-connect]").Attr("sse-connect")
	assert.Equal(t, "/games/"+string(gameID)+"/events", connect)
}

func TestAddPlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	ts.app.MockRandom.QueuePlayerNumber(67)

	rr := ts.postMultipart("/games/"+string(gameID)+"/players", map[string]string{"name": "Gi-hun"}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Player added successfully")

	card := doc.Find("#roster .player-card")
	require.Equal(t, 1, card.Length())
	assert.Equal(t, "Gi-hun", card.Find(".name").Text())
	assert.Equal(t, "067", card.First().Find(".badge").First().Text())
	assert.True(t, card.HasClass("player-alive"))
}

func TestAddPlayerWithPhoto(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	rr := ts.postMultipart("/games/"+string(gameID)+"/players", map[string]string{"name": "Sae-byeok"}, pngPixel)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	recs := ts.players(gameID)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].PhotoURL)

	// Photo is served back under its public URL
	rr = ts.get(*recs[0].PhotoURL)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, pngPixel, rr.Body.Bytes())
}

func TestAddPlayerBadPhotoKeepsPlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	rr := ts.postMultipart("/games/"+string(gameID)+"/players", map[string]string{"name": "Sang-woo"}, []byte("not an image"))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "warning", "failed to upload photo")
	assert.Len(t, ts.players(gameID), 1)
}

func TestAddPlayerBlankName(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	rr := ts.postMultipart("/games/"+string(gameID)+"/players", map[string]string{"name": "  "}, nil)
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Name is required")
	assert.Empty(t, ts.players(gameID))
}

func TestEditPlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	rr := ts.post("/players/"+string(playerID)+"/edit", url.Values{
		"name":   {"Seong Gi-hun"},
		"number": {"456"},
		"status": {"eliminated"},
		"losses": {"2"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/games/"+string(gameID), rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Player updated successfully")

	card := doc.Find("#roster .player-card[data-player-id='" + string(playerID) + "']")
	require.Equal(t, 1, card.Length())
	assert.True(t, card.HasClass("player-eliminated"))
	assert.Equal(t, "Seong Gi-hun", card.Find(".name").Text())
	assert.Equal(t, 2, card.Find(".loss-dot").Length())
}

func TestEditPlayerRejectsOutOfRangeNumber(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	for _, number := range []string{"0", "457", "abc"} {
		rr := ts.post("/players/"+string(playerID)+"/edit", url.Values{
			"name":   {"Gi-hun"},
			"number": {number},
			"status": {"alive"},
		})
		doc := parseHTML(ts.followRedirect(rr).Body)
		assertFlash(t, doc, "error", "Number must be between 1 and 456")
	}

	recs := ts.players(gameID)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Number)
}

func TestDeletePlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	rr := ts.post("/players/"+string(playerID)+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Player deleted successfully")
	assertNotContainsElement(t, doc, ".player-card")
	assert.Empty(t, ts.players(gameID))
}

func TestDeleteUnknownPlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")

	rr := ts.post("/players/nobody/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Player not found")
}

func TestUploadPhoto(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	rr := ts.postMultipart("/players/"+string(playerID)+"/photo", nil, pngPixel)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Photo uploaded successfully")
	src, ok := doc.Find(".player-card img.photo").Attr("src")
	require.True(t, ok)
	assert.Contains(t, src, "/photos/"+string(playerID)+"-")
}

func TestUploadPhotoRequiresFile(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	rr := ts.postMultipart("/players/"+string(playerID)+"/photo", nil, nil)
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Please choose a photo")
}

func TestSetPasswordAndStatus(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	rr := ts.post("/games/"+string(gameID)+"/password", url.Values{"password": {"abc123"}})
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Game password updated successfully")
	value, _ := doc.Find("#password-form input[name='password']").Attr("value")
	assert.Equal(t, "abc123", value)

	rr = ts.post("/games/"+string(gameID)+"/status", url.Values{"status": {"in-progress"}})
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Game status updated successfully")
	selected, _ := doc.Find("#status-form option[selected]").Attr("value")
	assert.Equal(t, "in-progress", selected)

	rr = ts.post("/games/"+string(gameID)+"/status", url.Values{"status": {"paused"}})
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Invalid game status")
}

func TestWinnerBannerOnManagePage(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	ts.app.MockRandom.QueuePlayerNumber(456)
	ts.app.MockRandom.QueuePlayerNumber(1)
	winner := ts.addPlayer(gameID, "Gi-hun")
	loser := ts.addPlayer(gameID, "Sang-woo")

	doc := parseHTML(ts.get("/games/" + string(gameID)).Body)
	assertContainsText(t, doc, "#winner-banner", "2 alive")

	ts.post("/players/"+string(loser)+"/edit", url.Values{
		"name":   {"Sang-woo"},
		"number": {"1"},
		"status": {string(model.PlayerStatusEliminated)},
	})

	doc = parseHTML(ts.get("/games/" + string(gameID)).Body)
	banner := doc.Find("#winner-banner .winner")
	require.Equal(t, 1, banner.Length())
	id, _ := banner.Attr("data-player-id")
	assert.Equal(t, string(winner), id)
	assert.Equal(t, "Gi-hun", banner.Find(".winner-name").Text())
}
