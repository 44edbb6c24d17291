package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// tokenBytes is the entropy of a session token (256 bits).
const tokenBytes = 32

// DefaultTTL is how long a session stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Session binds a token to an operator identity.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// Store is a concurrency-safe in-memory session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	// now is replaceable for expiry tests.
	now func() time.Time
}

// NewStore creates a Store with the given TTL. A non-positive TTL uses
// DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create registers a new session for username and returns it.
func (s *Store) Create(username string) (*Session, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	sess := &Session{
		Token:     hex.EncodeToString(buf),
		Username:  username,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	return sess, nil
}

// Validate returns the session for token if it exists and has not
// expired. Expired entries are removed on the spot.
func (s *Store) Validate(token string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.now().Sub(sess.CreatedAt) >= s.ttl {
		s.Delete(token)
		return nil, false
	}
	return sess, true
}

// Delete removes a session. Missing tokens are a no-op.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// PruneExpired drops every expired session and reports how many were
// removed. Intended to run on a ticker.
func (s *Store) PruneExpired() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if !sess.CreatedAt.After(cutoff) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
