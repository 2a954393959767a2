package web_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/web/liveview"
)

type sseEvent struct {
	name string
	data string
}

// sseStream is an open live-view connection against a real server
type sseStream struct {
	t      *testing.T
	resp   *http.Response
	reader *bufio.Reader
}

// openStream connects to path with the server's cookies
func (ts *webTestServer) openStream(path string) *sseStream {
	ts.t.Helper()
	server := httptest.NewServer(ts.handler)
	ts.t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ts.t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+path, nil)
	require.NoError(ts.t, err)
	ts.cookies.addTo(req)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = resp.Body.Close() })

	return &sseStream{t: ts.t, resp: resp, reader: bufio.NewReader(resp.Body)}
}

// next reads the next event, skipping keepalive comments
func (s *sseStream) next() sseEvent {
	s.t.Helper()
	var ev sseEvent
	var data []string
	for {
		line, err := s.reader.ReadString('\n')
		require.NoError(s.t, err)
		line = strings.TrimSuffix(line, "\n")

		switch {
		case line == "":
			if ev.name != "" || len(data) > 0 {
				ev.data = strings.Join(data, "\n")
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestLiveView_Headers(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	stream := ts.openStream("/games/" + string(gameID) + "/events")

	assert.Equal(t, http.StatusOK, stream.resp.StatusCode)
	assert.Equal(t, "text/event-stream", stream.resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", stream.resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", stream.resp.Header.Get("X-Accel-Buffering"))

	ev := stream.next()
	assert.Equal(t, "connected", ev.name)
	assert.Equal(t, `{"status":"connected"}`, ev.data)
}

func TestLiveView_InitialRender(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	ts.addPlayer(gameID, "Gi-hun")

	stream := ts.openStream("/games/" + string(gameID) + "/events")
	stream.next()

	ev := stream.next()
	assert.Equal(t, liveview.EventName, ev.name)
	assert.Contains(t, ev.data, `<div id="roster" hx-swap-oob="true">`)
	assert.Contains(t, ev.data, `<div id="winner-banner" hx-swap-oob="true">`)
	assert.Contains(t, ev.data, "Gi-hun")
	assert.Contains(t, ev.data, `class="edit-form"`)
}

func TestLiveView_PushesChanges(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	stream := ts.openStream("/tv/" + string(gameID) + "/events")
	stream.next()
	ev := stream.next()
	assert.Contains(t, ev.data, "No players yet")

	// Another browser adds a player
	playerID := ts.addPlayer(gameID, "Gi-hun")
	ev = stream.next()
	assert.Equal(t, liveview.EventName, ev.name)
	assert.Contains(t, ev.data, "Gi-hun")
	assert.Contains(t, ev.data, `class="winner"`)
	// TV fragments never carry host controls
	assert.NotContains(t, ev.data, "edit-form")

	ts.post("/players/"+string(playerID)+"/delete", nil)
	ev = stream.next()
	assert.NotContains(t, ev.data, "Gi-hun")
	assert.Contains(t, ev.data, "0 alive")
}

func TestLiveView_IgnoresOtherGames(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")
	otherID := ts.createGame("Saturday")

	stream := ts.openStream("/tv/" + string(gameID) + "/events")
	stream.next()
	stream.next()

	ts.addPlayer(otherID, "Sang-woo")
	ts.addPlayer(gameID, "Gi-hun")

	ev := stream.next()
	assert.Contains(t, ev.data, "Gi-hun")
	assert.NotContains(t, ev.data, "Sang-woo")
}

func TestLiveView_RequiresAuthentication(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("host@example.com")
	gameID := ts.createGame("Friday")

	stream := ts.visitor().openStream("/games/" + string(gameID) + "/events")
	assert.Equal(t, http.StatusSeeOther, stream.resp.StatusCode)
	assert.Contains(t, stream.resp.Header.Get("Location"), "/?next=")
}

func TestLiveView_OtherHostsGame(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signUp("owner@example.com")
	gameID := ts.createGame("Friday")

	other := ts.visitor()
	other.signUp("other@example.com")

	stream := other.openStream("/games/" + string(gameID) + "/events")
	assert.Equal(t, http.StatusNotFound, stream.resp.StatusCode)
	assert.NotEqual(t, "text/event-stream", stream.resp.Header.Get("Content-Type"))
}

func TestLiveView_UnknownGame(t *testing.T) {
	ts := newWebTestServer(t)

	stream := ts.openStream("/tv/" + string(model.GameID("missing")) + "/events")
	assert.Equal(t, http.StatusNotFound, stream.resp.StatusCode)
}

func TestFormatMessage(t *testing.T) {
	msg := string(liveview.FormatMessage("roster-update", "<div>\n<p>hi</p>\r\n</div>\n"))
	assert.Equal(t, "event: roster-update\ndata: <div>\ndata: <p>hi</p>\ndata: </div>\n\n", msg)
}
