package web_test

import (
	"bytes"
	"image/png"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/squidgame/internal/model"
)

// newTVGame signs up a host, creates a game with a join password and
// returns a fresh visitor alongside the game id
func newTVGame(t *testing.T) (*webTestServer, *webTestServer, model.GameID) {
	t.Helper()
	host := newWebTestServer(t)
	host.signUp("host@example.com")
	gameID := host.createGame("Friday")
	rr := host.post("/games/"+string(gameID)+"/password", url.Values{"password": {"abc123"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	return host, host.visitor(), gameID
}

func TestTVViewIsPublic(t *testing.T) {
	host, guest, gameID := newTVGame(t)
	host.addPlayer(gameID, "Gi-hun")

	rr := guest.get("/tv/" + string(gameID))
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1", "Friday")
	assertContainsText(t, doc, "#roster .player-card .name", "Gi-hun")
	assertContainsElement(t, doc, "#join-form")
	assertContainsText(t, doc, ".join-url", "http://party.test/tv/"+string(gameID))
	// Host controls and the password never reach the TV
	assertNotContainsElement(t, doc, ".edit-form")
	assertNotContainsElement(t, doc, "#password-form")
	assert.NotContains(t, rr.Body.String(), "abc123")

	connect, _ := doc.Find("[sse-connect]").Attr("sse-connect")
	assert.Equal(t, "/tv/"+string(gameID)+"/events", connect)
}

func TestTVViewUnknownGame(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/tv/missing")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Game not found")
}

func TestTVCelebrateToggle(t *testing.T) {
	_, guest, gameID := newTVGame(t)

	doc := parseHTML(guest.get("/tv/" + string(gameID)).Body)
	assertNotContainsElement(t, doc, "body.celebration")
	href, _ := doc.Find("#celebrate-toggle").Attr("href")
	assert.Equal(t, "/tv/"+string(gameID)+"?celebrate=1", href)

	doc = parseHTML(guest.get("/tv/" + string(gameID) + "?celebrate=1").Body)
	assertContainsElement(t, doc, "body.celebration")
	assertContainsElement(t, doc, ".tv.celebrating")
}

func TestTVCelebratesWinner(t *testing.T) {
	host, guest, gameID := newTVGame(t)
	host.addPlayer(gameID, "Gi-hun")

	doc := parseHTML(guest.get("/tv/" + string(gameID)).Body)
	assertContainsElement(t, doc, "body.celebration")
	assertContainsText(t, doc, "#winner-banner .winner-name", "Gi-hun")
}

func TestJoinWithCorrectPassword(t *testing.T) {
	host, guest, gameID := newTVGame(t)

	rr := guest.postMultipart("/tv/"+string(gameID)+"/join", map[string]string{
		"name":     "Ji-yeong",
		"password": "abc123",
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/tv/"+string(gameID), rr.Header().Get("Location"))

	doc := parseHTML(guest.followRedirect(rr).Body)
	assertFlash(t, doc, "success", "Successfully joined the game!")
	assertContainsText(t, doc, "#roster", "Ji-yeong")

	recs := host.players(gameID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.PlayerStatusAlive, recs[0].Status)
}

func TestJoinWithWrongPassword(t *testing.T) {
	host, guest, gameID := newTVGame(t)

	rr := guest.postMultipart("/tv/"+string(gameID)+"/join", map[string]string{
		"name":     "Ji-yeong",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(guest.followRedirect(rr).Body)
	assertFlash(t, doc, "error", "Incorrect password")
	assert.Empty(t, host.players(gameID))
}

func TestJoinWithPhoto(t *testing.T) {
	host, guest, gameID := newTVGame(t)

	rr := guest.postMultipart("/tv/"+string(gameID)+"/join", map[string]string{
		"name":     "Ji-yeong",
		"password": "abc123",
	}, pngPixel)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	recs := host.players(gameID)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].PhotoURL)

	doc := parseHTML(guest.followRedirect(rr).Body)
	src, _ := doc.Find("#roster img.photo").Attr("src")
	assert.Equal(t, *recs[0].PhotoURL, src)
}

func TestJoinWithBadPhotoWarns(t *testing.T) {
	host, guest, gameID := newTVGame(t)

	rr := guest.postMultipart("/tv/"+string(gameID)+"/join", map[string]string{
		"name":     "Ji-yeong",
		"password": "abc123",
	}, []byte("plain text"))

	doc := parseHTML(guest.followRedirect(rr).Body)
	assertFlash(t, doc, "warning", "Joined game but failed to upload photo")
	assert.Len(t, host.players(gameID), 1)
}

func TestJoinUnknownGame(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.postMultipart("/tv/missing/join", map[string]string{"name": "Ji-yeong"}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestJoinQRCode(t *testing.T) {
	_, guest, gameID := newTVGame(t)

	rr := guest.get("/tv/" + string(gameID) + "/qr.png")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
