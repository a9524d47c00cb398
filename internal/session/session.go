// Package session keeps per-browser state in process memory. Nothing here is
// written to disk; a restart signs every user out.
package session

import (
	"sync"
	"time"

	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/google/uuid"
)

// Session is the unit of the sign-in lifecycle:
// empty -> pending (State set) -> authenticated (Token and Identity set) -> empty.
//
// Callers hold the session lock (Lock/Unlock) while reading or mutating it.
type Session struct {
	mu sync.Mutex

	ID        string
	Token     *models.TokenRecord
	Identity  *models.Identity
	State     string
	CreatedAt time.Time
	LastSeen  time.Time

	// Data holds per-session page state, e.g. the last generated report
	Data map[string]any
}

// Lock serializes requests for this session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Authenticated reports whether a token record is present
func (s *Session) Authenticated() bool {
	return s.Token != nil
}

// Clear drops token, identity, state and page data
func (s *Session) Clear() {
	s.Token = nil
	s.Identity = nil
	s.State = ""
	s.Data = nil
}

// Put stores page state under key
func (s *Session) Put(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Forget drops page state stored under key
func (s *Session) Forget(key string) {
	delete(s.Data, key)
}

// Value returns page state stored under key
func (s *Session) Value(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// Store is a thread-safe in-memory session store keyed by session id
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new empty session with a random id
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id and marks it as seen
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.LastSeen = s.now()
	}
	return sess, ok
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions not seen within idle and returns how many were dropped
func (s *Store) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
