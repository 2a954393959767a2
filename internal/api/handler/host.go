package handler

import (
	"net/http"

	"github.com/mcoot/squidgame/internal/api/middleware"
	"github.com/mcoot/squidgame/internal/api/request"
	"github.com/mcoot/squidgame/internal/api/response"
	"github.com/mcoot/squidgame/internal/services/auth"
)

// HostHandler handles host account endpoints
type HostHandler struct {
	authService *auth.Service
}

// NewHostHandler creates a new host handler
func NewHostHandler(authService *auth.Service) *HostHandler {
	return &HostHandler{
		authService: authService,
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (request.CredentialsRequest, error) {
	var req request.CredentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		return req, err
	}
	if req.Email == "" {
		return req, NewInvalidRequestError("email is required")
	}
	if req.Password == "" {
		return req, NewInvalidRequestError("password is required")
	}
	return req, nil
}

// SignUp handles POST /api/v1/hosts/signup
func (h *HostHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// SignIn handles POST /api/v1/hosts/signin
func (h *HostHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// SignOut handles POST /api/v1/hosts/signout
func (h *HostHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session != nil {
		h.authService.SignOut(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/hosts/me
func (h *HostHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	host := middleware.MustGetHost(r.Context())
	response.JSON(w, http.StatusOK, response.HostFromModel(host))
}
