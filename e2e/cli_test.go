package e2e_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/squidgame/internal/api"
	"github.com/mcoot/squidgame/internal/factory"
	"github.com/mcoot/squidgame/internal/testutil"
	"github.com/mcoot/squidgame/internal/web"
)

// 1x1 transparent PNG
var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "sqgame-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sqgame")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

// result is one CLI invocation
type result struct {
	stdout string
	stderr string
	err    error
}

func (r result) String() string {
	return "stdout: " + r.stdout + "\nstderr: " + r.stderr
}

func (r *cliRunner) exec(stdin string, format string, args ...string) result {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", format,
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "SQGAME_TOKEN=", "SQGAME_SERVER=", "SQGAME_TOKEN_FILE=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	err := cmd.Run()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (r *cliRunner) run(args ...string) result {
	return r.exec("", "json", args...)
}

func (r *cliRunner) runText(args ...string) result {
	return r.exec("", "text", args...)
}

func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()
	res := r.run(args...)
	require.NoError(t, res.err, res.String())
	var v T
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &v), res.String())
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	app, err := factory.New(context.Background(), factory.Config{Logger: logger})
	require.NoError(t, err)

	serverURL := "http://" + addr

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		PlayerService:  app.PlayerService,
		Feed:           app.Feed,
		Metrics:        app.Metrics,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		PlayerService:  app.PlayerService,
		Loader:         app.Loader,
		Feed:           app.Feed,
		Photos:         app.Photos,
		Metrics:        app.Metrics,
		PublicURL:      serverURL,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", app.Metrics.Handler())
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Host struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"host"`
	SessionToken string `json:"session_token"`
}

type hostResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gameResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	JoinPassword *string `json:"join_password"`
}

type gameListResponse struct {
	Games []struct {
		Game        gameResponse `json:"game"`
		PlayerCount int          `json:"player_count"`
	} `json:"games"`
}

type playerResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Status   string `json:"status"`
	Losses   int    `json:"losses"`
	PhotoURL string `json:"photoUrl"`
	GameID   string `json:"gameId"`
}

type rosterResponse struct {
	Game    gameResponse     `json:"game"`
	Players []playerResponse `json:"players"`
	Alive   int              `json:"alive"`
	Winner  *playerResponse  `json:"winner"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Helpers

func signUp(t *testing.T, cli *cliRunner, email string) authResponse {
	t.Helper()
	return runJSON[authResponse](t, cli, "host", "signup", "--email", email, "--password", "secret123")
}

func createGame(t *testing.T, cli *cliRunner, name string) gameResponse {
	t.Helper()
	return runJSON[gameResponse](t, cli, "game", "create", name)
}

func addPlayer(t *testing.T, cli *cliRunner, gameID, name string) playerResponse {
	t.Helper()
	return runJSON[playerResponse](t, cli, "player", "add", gameID, "--name", name)
}

func errorMessage(t *testing.T, res result) string {
	t.Helper()
	require.Error(t, res.err, res.String())
	var resp errorResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(res.stderr)), &resp), res.String())
	return resp.Error.Message
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	resp := runJSON[healthResponse](t, cli, "health")
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_HostCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	authResp := signUp(t, cli, "Host@Example.com")
	assert.Equal(t, "host@example.com", authResp.Host.Email)
	assert.NotEmpty(t, authResp.SessionToken)

	// Token should be saved in the token file
	me := runJSON[hostResponse](t, cli, "host", "me")
	assert.Equal(t, authResp.Host.ID, me.ID)

	msg := runJSON[messageResponse](t, cli, "host", "signout")
	assert.Equal(t, "You have been signed out", msg.Message)

	_, err := os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))

	res := cli.run("host", "me")
	assert.Equal(t, "Please sign in to continue", errorMessage(t, res))

	// Sign back in
	signIn := runJSON[authResponse](t, cli, "host", "signin", "--email", "host@example.com", "--password", "secret123")
	assert.Equal(t, authResp.Host.ID, signIn.Host.ID)

	res = cli.run("host", "signin", "--email", "host@example.com", "--password", "wrong-password")
	assert.Equal(t, "Invalid email or password", errorMessage(t, res))
}

func TestCLI_GameCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")

	game := createGame(t, cli, "Friday Night")
	assert.Equal(t, "Friday Night", game.Name)
	assert.Equal(t, "pending", game.Status)

	createGame(t, cli, "Saturday")

	list := runJSON[gameListResponse](t, cli, "game", "list")
	require.Len(t, list.Games, 2)

	msg := runJSON[messageResponse](t, cli, "game", "password", game.ID, "abc123")
	assert.Equal(t, "Game password updated successfully", msg.Message)

	msg = runJSON[messageResponse](t, cli, "game", "status", game.ID, "in-progress")
	assert.Equal(t, "Game status updated successfully", msg.Message)

	res := cli.run("game", "status", game.ID, "paused")
	assert.Equal(t, "Invalid game status", errorMessage(t, res))

	view := runJSON[rosterResponse](t, cli, "game", "show", game.ID)
	assert.Equal(t, "in-progress", view.Game.Status)
	assert.Empty(t, view.Players)
	// The roster view never carries the join password
	assert.Nil(t, view.Game.JoinPassword)

	res = cli.run("game", "show", "missing")
	assert.Equal(t, "Game not found", errorMessage(t, res))
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")

	photo := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(photo, pngPixel, 0600))

	p := runJSON[playerResponse](t, cli, "player", "add", game.ID, "--name", "Gi-hun", "--photo", photo)
	assert.Equal(t, "Gi-hun", p.Name)
	assert.Equal(t, "alive", p.Status)
	assert.True(t, strings.HasPrefix(p.PhotoURL, "/photos/"+p.ID+"-"))

	// Photos are served back
	resp, err := http.Get(ts.addr + p.PhotoURL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Edit by id, unset flags keep their value
	edited := runJSON[playerResponse](t, cli, "player", "edit", game.ID, p.ID, "--number", "456", "--losses", "2")
	assert.Equal(t, 456, edited.Number)
	assert.Equal(t, 2, edited.Losses)
	assert.Equal(t, "Gi-hun", edited.Name)
	assert.Equal(t, p.PhotoURL, edited.PhotoURL)

	// Then by badge
	edited = runJSON[playerResponse](t, cli, "player", "edit", game.ID, "456", "--status", "eliminated")
	assert.Equal(t, "eliminated", edited.Status)

	res := cli.run("player", "edit", game.ID, p.ID, "--number", "457")
	assert.Equal(t, "Number must be between 1 and 456", errorMessage(t, res))

	players := runJSON[[]playerResponse](t, cli, "player", "list", game.ID)
	require.Len(t, players, 1)
	assert.Equal(t, 456, players[0].Number)

	res = cli.run("player", "delete", game.ID, p.ID)
	require.NoError(t, res.err, res.String())
	assert.Contains(t, res.stderr, "Player deleted successfully")

	players = runJSON[[]playerResponse](t, cli, "player", "list", game.ID)
	assert.Empty(t, players)

	res = cli.run("player", "delete", game.ID, p.ID)
	assert.Equal(t, "Player not found", errorMessage(t, res))
}

func TestCLI_PlayerPhoto(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")
	p := addPlayer(t, cli, game.ID, "Sae-byeok")
	assert.Empty(t, p.PhotoURL)

	photo := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(photo, pngPixel, 0600))

	updated := runJSON[playerResponse](t, cli, "player", "photo", p.ID, photo)
	assert.NotEmpty(t, updated.PhotoURL)

	notImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0600))
	res := cli.run("player", "photo", p.ID, notImage)
	assert.Equal(t, "Photo is not an image", errorMessage(t, res))
}

func TestCLI_Join(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	host := newCLIRunner(t, ts.addr)
	signUp(t, host, "host@example.com")
	game := createGame(t, host, "Friday")
	runJSON[messageResponse](t, host, "game", "password", game.ID, "abc123")

	// Players need no account
	guest := newCLIRunner(t, ts.addr)

	res := guest.run("join", game.ID, "--name", "Sang-woo", "--password", "nope")
	assert.Equal(t, "Incorrect password", errorMessage(t, res))

	res = guest.run("join", game.ID, "--name", "  ", "--password", "abc123")
	assert.Equal(t, "Name is required", errorMessage(t, res))

	res = guest.run("join", game.ID, "--name", "Sang-woo", "--password", "abc123")
	require.NoError(t, res.err, res.String())
	assert.Contains(t, res.stderr, "Successfully joined the game!")
	var p playerResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &p))
	assert.Equal(t, "Sang-woo", p.Name)
	assert.GreaterOrEqual(t, p.Number, 1)
	assert.LessOrEqual(t, p.Number, 456)

	// A bad photo still joins, with a warning
	notImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0600))
	res = guest.run("join", game.ID, "--name", "Ali", "--password", "abc123", "--photo", notImage)
	require.NoError(t, res.err, res.String())
	assert.Contains(t, res.stderr, "Warning: Joined game but failed to upload photo")

	list := runJSON[gameListResponse](t, host, "game", "list")
	require.Len(t, list.Games, 1)
	assert.Equal(t, 2, list.Games[0].PlayerCount)

	res = guest.run("join", "missing", "--name", "Ali")
	assert.Equal(t, "Game not found", errorMessage(t, res))
}

func TestCLI_WatchOnce(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")
	a := addPlayer(t, cli, game.ID, "Gi-hun")
	b := addPlayer(t, cli, game.ID, "Sang-woo")
	runJSON[playerResponse](t, cli, "player", "edit", game.ID, a.ID, "--number", "456")
	runJSON[playerResponse](t, cli, "player", "edit", game.ID, b.ID, "--number", "218", "--status", "eliminated", "--losses", "3")

	res := cli.runText("watch", game.ID, "--once")
	require.NoError(t, res.err, res.String())
	assert.Contains(t, res.stdout, "Friday [pending]")
	assert.Contains(t, res.stdout, "#218 Sang-woo")
	assert.Contains(t, res.stdout, "●●●")
	assert.Contains(t, res.stdout, "1 alive")
	assert.Contains(t, res.stdout, "WINNER: #456 Gi-hun")
	// Ordered by number
	assert.Less(t, strings.Index(res.stdout, "#218"), strings.Index(res.stdout, "#456"))

	res = cli.runText("watch", "missing", "--once")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Game not found")
}

func TestCLI_WatchStreamsChanges(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stdout testutil.Buffer
	watch := exec.CommandContext(ctx, cli.binaryPath, "--server", cli.serverURL, "watch", game.ID)
	watch.Stdout = &stdout
	require.NoError(t, watch.Start())

	// Wait for the initial render
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "0 alive")
	}, 5*time.Second, 50*time.Millisecond)

	addPlayer(t, cli, game.ID, "Il-nam")

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Il-nam")
	}, 5*time.Second, 50*time.Millisecond)

	_ = watch.Process.Signal(os.Interrupt)
	_ = watch.Wait()
	assert.Contains(t, stdout.String(), "Disconnected")
}

func TestCLI_Manage(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")
	p := addPlayer(t, cli, game.ID, "Gi-hun")

	script := strings.Join([]string{
		"add Sae-byeok",
		"open " + p.ID,
		"save 0 alive 0 Gi-hun",
		"save 456 alive 1 Seong Gi-hun",
		"delete",
		"open " + p.ID,
		"delete",
		"back",
		"cancel",
		"bogus",
		"quit",
	}, "\n") + "\n"

	res := cli.exec(script, "text", "manage", game.ID)
	require.NoError(t, res.err, res.String())

	assert.Contains(t, res.stdout, "Player added successfully")
	assert.Contains(t, res.stdout, "Player updated successfully")
	assert.Contains(t, res.stderr, "Error: Number must be between 1 and 456")
	// Delete needs an open player
	assert.Contains(t, res.stderr, "Error: action not allowed in the current dialog state")
	assert.Contains(t, res.stdout, "Delete #456 Seong Gi-hun? Type 'confirm' or 'back'")
	assert.Contains(t, res.stderr, `unknown command "bogus"`)

	players := runJSON[[]playerResponse](t, cli, "player", "list", game.ID)
	require.Len(t, players, 2)
	names := []string{players[0].Name, players[1].Name}
	assert.ElementsMatch(t, []string{"Sae-byeok", "Seong Gi-hun"}, names)
}

func TestCLI_ManageConfirmDelete(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	signUp(t, cli, "host@example.com")
	game := createGame(t, cli, "Friday")
	p := addPlayer(t, cli, game.ID, "Ji-yeong")

	res := cli.exec("open "+p.ID+"\ndelete\nconfirm\nlist\nquit\n", "text", "manage", game.ID)
	require.NoError(t, res.err, res.String())
	assert.Contains(t, res.stdout, "Player deleted successfully")
	assert.Contains(t, res.stdout, "No players yet")
}

func TestCLI_ManageOtherHostsGame(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	owner := newCLIRunner(t, ts.addr)
	signUp(t, owner, "owner@example.com")
	game := createGame(t, owner, "Friday")

	other := newCLIRunner(t, ts.addr)
	signUp(t, other, "other@example.com")

	res := other.exec("quit\n", "text", "manage", game.ID)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Game not found")

	res = other.run("player", "add", game.ID, "--name", "Intruder")
	assert.Equal(t, "You do not own this game", errorMessage(t, res))
}
