package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/web/middleware"
)

// AuthHandler handles sign-in, sign-up and sign-out
type AuthHandler struct {
	authService *auth.Service
	sessionTTL  time.Duration
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
}

// SignIn handles the sign-in form
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", "/")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if email == "" || password == "" {
		flashRedirect(w, r, middleware.FlashError, "Email and password are required", homeWithNext(next))
		return
	}

	session, err := h.authService.SignIn(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("sign in failed", slog.Any("error", err))
		}
		flashRedirect(w, r, middleware.FlashError, "Invalid email or password", homeWithNext(next))
		return
	}

	h.setSessionCookie(w, session.Token)
	flashRedirect(w, r, middleware.FlashSuccess, "Welcome back!", safeNext(next))
}

// SignUp handles the sign-up form
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashRedirect(w, r, middleware.FlashError, "Invalid form data", "/")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	next := r.FormValue("next")

	session, err := h.authService.SignUp(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			flashRedirect(w, r, middleware.FlashError, "An account with this email already exists", homeWithNext(next))
		case errors.Is(err, auth.ErrInvalidEmail):
			flashRedirect(w, r, middleware.FlashError, "Please enter a valid email address", homeWithNext(next))
		case errors.Is(err, auth.ErrWeakPassword):
			flashRedirect(w, r, middleware.FlashError, "Password must be at least 6 characters", homeWithNext(next))
		default:
			h.logger.Error("sign up failed", slog.Any("error", err))
			flashRedirect(w, r, middleware.FlashError, "Sign up failed, please try again", homeWithNext(next))
		}
		return
	}

	h.setSessionCookie(w, session.Token)
	flashRedirect(w, r, middleware.FlashSuccess, "Account created!", safeNext(next))
}

// SignOut ends the session
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authService.SignOut(cookie.Value)
	}

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	flashRedirect(w, r, middleware.FlashSuccess, "You have been signed out", "/")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext only follows local paths
func safeNext(next string) string {
	if next != "" && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/dashboard"
}

func homeWithNext(next string) string {
	if next == "" {
		return "/"
	}
	return "/?next=" + url.QueryEscape(next)
}
