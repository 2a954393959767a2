package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotOwner           = "NOT_OWNER"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeInvalidName        = "INVALID_NAME"
	CodeInvalidNumber      = "INVALID_NUMBER"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeInvalidLosses      = "INVALID_LOSSES"
	CodeIncorrectPassword  = "INCORRECT_PASSWORD"
	CodeInvalidPhoto       = "INVALID_PHOTO"
	CodePhotoTooLarge      = "PHOTO_TOO_LARGE"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err is reported with
func Status(err error) int {
	return toHTTPError(err).status
}

func modelError(status int, code string, err error) *httpError {
	return &httpError{status, APIError{code, model.Message(err)}}
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors; messages match the web notifications
	switch {
	case errors.Is(err, model.ErrGameNotFound), errors.Is(err, model.ErrMissingGameID):
		return modelError(http.StatusNotFound, CodeGameNotFound, err)
	case errors.Is(err, model.ErrPlayerNotFound):
		return modelError(http.StatusNotFound, CodePlayerNotFound, err)
	case errors.Is(err, model.ErrNotOwner):
		return modelError(http.StatusForbidden, CodeNotOwner, err)
	case errors.Is(err, model.ErrUnauthenticated):
		return modelError(http.StatusUnauthorized, CodeUnauthorized, err)
	case errors.Is(err, model.ErrIncorrectPassword):
		return modelError(http.StatusForbidden, CodeIncorrectPassword, err)
	case errors.Is(err, model.ErrInvalidPlayerName), errors.Is(err, model.ErrInvalidGameName):
		return modelError(http.StatusBadRequest, CodeInvalidName, err)
	case errors.Is(err, model.ErrInvalidPlayerNumber):
		return modelError(http.StatusBadRequest, CodeInvalidNumber, err)
	case errors.Is(err, model.ErrInvalidPlayerStatus), errors.Is(err, model.ErrInvalidGameStatus):
		return modelError(http.StatusBadRequest, CodeInvalidStatus, err)
	case errors.Is(err, model.ErrInvalidLosses):
		return modelError(http.StatusBadRequest, CodeInvalidLosses, err)
	case errors.Is(err, model.ErrPhotoEmpty), errors.Is(err, model.ErrPhotoNotImage):
		return modelError(http.StatusBadRequest, CodeInvalidPhoto, err)
	case errors.Is(err, model.ErrPhotoTooLarge):
		return modelError(http.StatusRequestEntityTooLarge, CodePhotoTooLarge, err)

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "An account with this email already exists"}}
	case errors.Is(err, auth.ErrInvalidEmail):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidEmail, "Invalid email address"}}
	case errors.Is(err, auth.ErrWeakPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeWeakPassword, "Password must be at least 6 characters"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
