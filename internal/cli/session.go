package cli

import (
	"errors"
	"sync"

	"github.com/mcoot/squidgame/internal/api/response"
)

// ErrSessionNotInitialized is returned when the session context is used
// before Initialize or after Teardown
var ErrSessionNotInitialized = errors.New("session context not initialized")

// Session is the current host identity. Token is empty when signed out.
type Session struct {
	Token string
	Host  *response.Host
}

// SignedIn reports whether the session carries a token
func (s Session) SignedIn() bool {
	return s.Token != ""
}

// TokenStore persists the session token between invocations
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
}

// SessionContext holds the process-wide session. Views read it through
// Current and learn about changes by subscribing.
type SessionContext struct {
	mu          sync.RWMutex
	initialized bool
	current     Session
	store       TokenStore
	subscribers map[int]func(Session)
	nextID      int
}

// NewSessionContext creates an uninitialized session context
func NewSessionContext() *SessionContext {
	return &SessionContext{subscribers: make(map[int]func(Session))}
}

// Initialize loads the persisted token
func (s *SessionContext) Initialize(store TokenStore) error {
	token, err := store.LoadToken()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.store = store
	s.current = Session{Token: token}
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// Teardown drops subscribers and forgets the in-memory session. The
// persisted token is left alone.
func (s *SessionContext) Teardown() {
	s.mu.Lock()
	s.initialized = false
	s.current = Session{}
	s.store = nil
	clear(s.subscribers)
	s.mu.Unlock()
}

// Current returns a copy of the session
func (s *SessionContext) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to run after every change. The returned func
// unsubscribes.
func (s *SessionContext) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Set replaces the session, persists its token and notifies subscribers
func (s *SessionContext) Set(session Session) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrSessionNotInitialized
	}
	if err := s.store.SaveToken(session.Token); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = session
	subs := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
	return nil
}

// Clear signs out locally
func (s *SessionContext) Clear() error {
	return s.Set(Session{})
}
