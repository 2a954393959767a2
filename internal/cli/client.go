package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/squidgame/internal/api/apierr"
	"github.com/mcoot/squidgame/internal/api/request"
	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/console"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/auth"
)

// Client is an HTTP client for the API. It serves as the remote backend
// for the console flows and as a roster source for the loader.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL is the server URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is an error response the client could not map to a known error
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// codeErrors maps API error codes back to the errors the server raised
var codeErrors = map[string]error{
	apierr.CodeUnauthorized:       model.ErrUnauthenticated,
	apierr.CodeNotOwner:           model.ErrNotOwner,
	apierr.CodeGameNotFound:       model.ErrGameNotFound,
	apierr.CodePlayerNotFound:     model.ErrPlayerNotFound,
	apierr.CodeInvalidName:        model.ErrInvalidPlayerName,
	apierr.CodeInvalidNumber:      model.ErrInvalidPlayerNumber,
	apierr.CodeInvalidStatus:      model.ErrInvalidGameStatus,
	apierr.CodeInvalidLosses:      model.ErrInvalidLosses,
	apierr.CodeIncorrectPassword:  model.ErrIncorrectPassword,
	apierr.CodeInvalidPhoto:       model.ErrPhotoNotImage,
	apierr.CodePhotoTooLarge:      model.ErrPhotoTooLarge,
	apierr.CodeEmailExists:        auth.ErrEmailExists,
	apierr.CodeInvalidEmail:       auth.ErrInvalidEmail,
	apierr.CodeWeakPassword:       auth.ErrWeakPassword,
	apierr.CodeInvalidCredentials: auth.ErrInvalidCredentials,
}

func decodeError(status int, body []byte) error {
	var errResp apierr.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == "" {
		return &APIError{Status: status, Code: http.StatusText(status), Message: strings.TrimSpace(string(body))}
	}
	apiErr := &APIError{Status: status, Code: errResp.Error.Code, Message: errResp.Error.Message}
	if known, ok := codeErrors[errResp.Error.Code]; ok {
		return &knownError{known: known, api: apiErr}
	}
	return apiErr
}

// knownError reads as the server's message and matches the server's error
type knownError struct {
	known error
	api   *APIError
}

func (e *knownError) Error() string   { return e.api.Message }
func (e *knownError) Unwrap() []error { return []error{e.known, e.api} }

// Do performs an HTTP request with a JSON body
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, bodyReader, contentType, result)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func gamePath(id model.GameID, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(string(id)) + suffix
}

func playerPath(id model.PlayerID, suffix string) string {
	return "/api/v1/players/" + url.PathEscape(string(id)) + suffix
}

// Host endpoints

// SignUp creates a host account
func (c *Client) SignUp(ctx context.Context, email, password string) (*response.AuthResponse, error) {
	var result response.AuthResponse
	if err := c.Post(ctx, "/api/v1/hosts/signup", request.CredentialsRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignIn starts a host session
func (c *Client) SignIn(ctx context.Context, email, password string) (*response.AuthResponse, error) {
	var result response.AuthResponse
	if err := c.Post(ctx, "/api/v1/hosts/signin", request.CredentialsRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignOut ends the current session
func (c *Client) SignOut(ctx context.Context) error {
	return c.Post(ctx, "/api/v1/hosts/signout", nil, nil)
}

// Me returns the signed-in host
func (c *Client) Me(ctx context.Context) (*response.Host, error) {
	var result response.Host
	if err := c.Get(ctx, "/api/v1/hosts/me", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Game endpoints

// CreateGame creates a game owned by the signed-in host
func (c *Client) CreateGame(ctx context.Context, name string) (*model.GameRecord, error) {
	var result model.GameRecord
	if err := c.Post(ctx, "/api/v1/games", request.CreateGameRequest{Name: name}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListGames lists the signed-in host's games
func (c *Client) ListGames(ctx context.Context) (*response.GameListResponse, error) {
	var result response.GameListResponse
	if err := c.Get(ctx, "/api/v1/games", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGame fetches a game record
func (c *Client) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	var result model.GameRecord
	if err := c.Get(ctx, gamePath(id, ""), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetPassword sets or clears a game's join password
func (c *Client) SetPassword(ctx context.Context, id model.GameID, password string) (*model.GameRecord, error) {
	var result model.GameRecord
	if err := c.Put(ctx, gamePath(id, "/password"), request.SetPasswordRequest{Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetStatus changes a game's status
func (c *Client) SetStatus(ctx context.Context, id model.GameID, status model.GameStatus) (*model.GameRecord, error) {
	var result model.GameRecord
	if err := c.Patch(ctx, gamePath(id, ""), request.UpdateGameRequest{Status: string(status)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Player endpoints

// ListPlayers fetches a game's raw player records
func (c *Client) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error) {
	var result response.PlayerListResponse
	if err := c.Get(ctx, gamePath(gameID, "/players"), &result); err != nil {
		return nil, err
	}
	return result.Players, nil
}

// Join creates a player through the password-gated join flow
func (c *Client) Join(ctx context.Context, gameID model.GameID, req console.JoinRequest) (*console.JoinResult, error) {
	body := request.JoinRequest{Name: req.Name, Password: req.Password, Photo: req.Photo}
	var result response.CreatedPlayerResponse
	if err := c.Post(ctx, gamePath(gameID, "/join"), body, &result); err != nil {
		return nil, err
	}
	return &console.JoinResult{Player: result.Player, PhotoFailed: result.PhotoFailed}, nil
}

// AddPlayer creates a player in a game the host owns
func (c *Client) AddPlayer(ctx context.Context, gameID model.GameID, name string) (*model.PlayerRecord, error) {
	var result response.CreatedPlayerResponse
	if err := c.Post(ctx, gamePath(gameID, "/players"), request.AddPlayerRequest{Name: name}, &result); err != nil {
		return nil, err
	}
	return &result.Player, nil
}

// EditPlayer writes every editable field of a player
func (c *Client) EditPlayer(ctx context.Context, id model.PlayerID, edit console.Edit) (*model.PlayerRecord, error) {
	body := request.EditPlayerRequest{
		Name:   edit.Name,
		Number: edit.Number,
		Status: string(edit.Status),
		Losses: edit.Losses,
	}
	var result model.PlayerRecord
	if err := c.Patch(ctx, playerPath(id, ""), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeletePlayer permanently removes a player
func (c *Client) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return c.Delete(ctx, playerPath(id, ""))
}

// UploadPhoto replaces a player's photo with the raw image in data
func (c *Client) UploadPhoto(ctx context.Context, id model.PlayerID, data []byte) (*model.PlayerRecord, error) {
	var result model.PlayerRecord
	err := c.do(ctx, http.MethodPut, playerPath(id, "/photo"), bytes.NewReader(data), "application/octet-stream", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks the server
func (c *Client) Health(ctx context.Context) (*response.HealthResponse, error) {
	var result response.HealthResponse
	if err := c.Get(ctx, "/api/v1/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}
