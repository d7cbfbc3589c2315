// Package session holds the authentication state of one client: the current user,
// the bearer token and whether the client is authenticated.
// File: session/session.go
package session

import (
	"sync"

	"ticket-gate/logger"
	"ticket-gate/models"
)

// Snapshot is what a Store persists.
type Snapshot struct {
	Token string
	User  models.User
}

// Store persists a session between requests. The browser cookie and an in-memory
// map are the two implementations.
type Store interface {
	Load() (Snapshot, bool)
	Save(Snapshot) error
	Clear() error
}

// Session is the single authentication state of a client. It is read by the access
// gate on every navigation and written only at login, logout and on a 401.
type Session struct {
	mu            sync.RWMutex
	user          models.User
	token         string
	authenticated bool
	store         Store
}

// Restore builds a session from whatever the store holds. Both a token and a user
// are needed. No validation call is made: an expired token is only discovered by
// the next failing request.
func Restore(store Store) *Session {
	s := &Session{store: store}
	snap, ok := store.Load()
	if ok && snap.Token != "" && snap.User.Username != "" {
		s.user = snap.User
		s.token = snap.Token
		s.authenticated = true
		logger.Debug.Printf("[session.Restore] Restored session for user=%s", snap.User.Username)
	}
	return s
}

// SetAuth establishes an authenticated session and persists it.
func (s *Session) SetAuth(user models.User, token string) error {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.authenticated = token != ""
	s.mu.Unlock()

	return s.store.Save(Snapshot{Token: token, User: user})
}

// Logout clears memory and persisted state.
func (s *Session) Logout() error {
	s.mu.Lock()
	username := s.user.Username
	s.user = models.User{}
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()

	logger.Info.Printf("[session.Logout] Cleared session for user=%s", username)
	return s.store.Clear()
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user and whether the session is authenticated.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authenticated
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}
