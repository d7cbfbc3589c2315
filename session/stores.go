// File: session/stores.go
package session

import (
	"encoding/json"
	"sync"

	"github.com/gin-contrib/sessions"
	"ticket-gate/logger"
	"ticket-gate/models"
)

// Keys used inside the cookie session.
const (
	tokenKey = "access_token"
	userKey  = "user"
)

// -------------- cookie store --------------

// CookieStore keeps the token and the JSON-encoded user in the gin session cookie,
// the server-side counterpart of browser local storage.
type CookieStore struct {
	sess sessions.Session
}

// NewCookieStore wraps the request's gin session.
func NewCookieStore(sess sessions.Session) *CookieStore {
	return &CookieStore{sess: sess}
}

// Load reads the token and user; both must be present.
func (c *CookieStore) Load() (Snapshot, bool) {
	token, _ := c.sess.Get(tokenKey).(string)
	raw, _ := c.sess.Get(userKey).(string)
	if token == "" || raw == "" {
		return Snapshot{}, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logger.Warn.Printf("[CookieStore.Load] Discarding unreadable user in session: %v", err)
		return Snapshot{}, false
	}
	return Snapshot{Token: token, User: user}, true
}

// Save writes the snapshot and saves the cookie.
func (c *CookieStore) Save(snap Snapshot) error {
	raw, err := json.Marshal(snap.User)
	if err != nil {
		return err
	}
	c.sess.Set(tokenKey, snap.Token)
	c.sess.Set(userKey, string(raw))
	return c.sess.Save()
}

// Clear removes the token and user and saves the cookie.
func (c *CookieStore) Clear() error {
	c.sess.Delete(tokenKey)
	c.sess.Delete(userKey)
	return c.sess.Save()
}

// -------------- memory store --------------

// MemoryStore keeps a snapshot in memory. Scanning connections seed one from the
// cookie at upgrade time.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemoryStore returns a store preloaded with snap when snap has a token.
func NewMemoryStore(snap Snapshot) *MemoryStore {
	m := &MemoryStore{}
	if snap.Token != "" {
		m.snap = &snap
	}
	return m
}

func (m *MemoryStore) Load() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return Snapshot{}, false
	}
	return *m.snap, true
}

func (m *MemoryStore) Save(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
