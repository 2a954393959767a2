package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/squidgame/internal/dependencies/clock"
	"github.com/mcoot/squidgame/internal/dependencies/ids"
	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// MinPasswordLength is the shortest host password accepted at sign-up
const MinPasswordLength = 6

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Session represents an authenticated host session
type Session struct {
	Token     string
	HostID    model.HostID
	Host      model.Host
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles host accounts and session management.
// Sessions live in process memory; a restart signs everyone out.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		ids:             ids,
		logger:          logger.With(slog.String("component", "auth")),
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// NormalizeEmail trims and lower-cases an address, rejecting malformed ones
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp creates a host account and signs it in
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	// Check if email is taken
	_, err = s.storage.GetHostCredentialsByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, model.ErrHostNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	host := &model.Host{
		ID:        model.HostID(s.ids.NewID()),
		Email:     email,
		CreatedAt: now,
	}
	creds := &model.HostCredentials{
		HostID:       host.ID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveHost(ctx, host); err != nil {
		return nil, err
	}
	if err := s.storage.SaveHostCredentials(ctx, creds); err != nil {
		return nil, err
	}

	s.logger.Info("host signed up", slog.String("host_id", string(host.ID)))
	return s.createSession(host), nil
}

// SignIn authenticates a host by email and password
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	creds, err := s.storage.GetHostCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrHostNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	host, err := s.storage.GetHost(ctx, creds.HostID)
	if err != nil {
		return nil, err
	}

	return s.createSession(host), nil
}

// SignOut removes a session. Unknown tokens are ignored.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.SignOut(token)
		return nil, ErrInvalidSession
	}

	return session, nil
}

// GetHost returns the host for a session token
func (s *Service) GetHost(token string) (*model.Host, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	host := session.Host
	return &host, nil
}

// createSession creates a new session for a host
func (s *Service) createSession(host *model.Host) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     generateToken(),
		HostID:    host.ID,
		Host:      *host,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// generateToken returns an unguessable session token
func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return "sess_" + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions and reports how many
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// RunJanitor cleans expired sessions every interval until ctx is done
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanExpiredSessions(); n > 0 {
				s.logger.Debug("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
