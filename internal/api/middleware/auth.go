package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/squidgame/internal/api/apierr"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/auth"
)

type contextKey string

const (
	hostContextKey    contextKey = "host"
	sessionContextKey contextKey = "session"
)

// Auth creates authentication middleware
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// OptionalAuth extracts session if present but doesn't require it
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				if session, err := authService.ValidateSession(token); err == nil {
					r = r.WithContext(withSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withSession(ctx context.Context, session *auth.Session) context.Context {
	host := session.Host
	ctx = context.WithValue(ctx, sessionContextKey, session)
	return context.WithValue(ctx, hostContextKey, &host)
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetHost returns the authenticated host from the request context
func GetHost(ctx context.Context) *model.Host {
	host, _ := ctx.Value(hostContextKey).(*model.Host)
	return host
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetHost returns the authenticated host or panics
func MustGetHost(ctx context.Context) *model.Host {
	host := GetHost(ctx)
	if host == nil {
		panic("no host in context - auth middleware not applied?")
	}
	return host
}
