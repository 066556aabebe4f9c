package main

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Store holds all sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// CreateSession registers a new session with the given preferences.
func (s *Store) CreateSession(theme Theme, showPinyin bool) *Session {
	now := time.Now()
	sess := &Session{
		ID:         generateID(),
		CreatedAt:  now,
		theme:      theme,
		showPinyin: showPinyin,
		lastSeen:   now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// GetSession returns a session by ID, or nil if not found.
func (s *Store) GetSession(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PruneIdle closes and removes sessions idle for longer than ttl. Sessions
// for which busy reports true are kept whatever their age; busy may be nil.
// It returns the IDs of the removed sessions.
func (s *Store) PruneIdle(ttl time.Duration, busy func(id string) bool) []string {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if !sess.IdleSince().Before(cutoff) || (busy != nil && busy(id)) {
			continue
		}
		stale = append(stale, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	ids := make([]string, len(stale))
	for i, sess := range stale {
		sess.Close()
		ids[i] = sess.ID
	}
	return ids
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
