package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/services/auth"
)

type contextKey string

const (
	hostContextKey contextKey = "host"

	// SessionCookieName holds the opaque session token
	SessionCookieName = "session"
)

// GetHost retrieves the authenticated host from the request context
// Returns nil if no host is authenticated
func GetHost(ctx context.Context) *model.Host {
	host, _ := ctx.Value(hostContextKey).(*model.Host)
	return host
}

// Auth returns middleware that requires authentication
// Redirects to home page if not authenticated
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := getHostFromSession(r, authService)
			if host == nil {
				// Store original URL to redirect back after auth
				redirectURL := "/?next=" + url.QueryEscape(r.URL.Path)
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", redirectURL)
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, redirectURL, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), hostContextKey, host)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that attempts authentication but doesn't require it
// Sets host in context if authenticated, nil otherwise
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := getHostFromSession(r, authService)
			ctx := context.WithValue(r.Context(), hostContextKey, host)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getHostFromSession(r *http.Request, authService *auth.Service) *model.Host {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}

	host, err := authService.GetHost(cookie.Value)
	if err != nil {
		return nil
	}

	return host
}
