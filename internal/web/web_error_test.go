package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlashMessageShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")

	rr := ts.post("/games", url.Values{"name": {"Friday"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Game created successfully")

	// Cookie was cleared on display
	rr = ts.get(rr.Header().Get("Location"))
	doc = parseHTML(rr.Body)
	assertNotContainsElement(t, doc, ".flash")
}

func TestAccessDeniedForProtectedRoute(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "/?next=")
}

func TestAccessDeniedForHTMXRequest(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.postHTMX("/games", url.Values{"name": {"Friday"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Redirect"), "/?next=")
}

func TestUnknownGameRedirectsToDashboard(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")

	rr := ts.get("/games/missing")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Game not found")
}

func TestOtherHostsGameIsNotFound(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("owner@example.com")
	gameID := ts.createGame("Friday")

	other := ts.visitor()
	other.signUp("other@example.com")

	rr := other.get("/games/" + string(gameID))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	doc := parseHTML(other.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Game not found")
}

func TestNonOwnerCannotEditPlayers(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("owner@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	other := ts.visitor()
	other.signUp("other@example.com")

	rr := other.post("/players/"+string(playerID)+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Len(t, ts.players(gameID), 1)

	rr = other.post("/games/"+string(gameID)+"/password", url.Values{"password": {"hijack"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	doc := parseHTML(other.followRedirect(rr).Body)
	assertNotContainsElement(t, doc, "#password-form")
}

func TestHTMXRedirectUsesHeader(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	playerID := ts.addPlayer(gameID, "Gi-hun")

	rr := ts.postHTMX("/players/"+string(playerID)+"/delete", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/games/"+string(gameID), rr.Header().Get("HX-Redirect"))
	assert.Empty(t, ts.players(gameID))
}
