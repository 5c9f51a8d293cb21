// Package session keeps per-conversation state in memory. State is lost on
// restart; nothing here survives the process.
package session

import (
	"sync"
	"time"

	"github.com/shophub-ai/assistant"
)

// MemoryStore is an in-memory SessionStore with per-session locking: two
// requests on different sessions never contend, two on the same session
// serialize their updates.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	maxHistoryTurns int
}

type entry struct {
	mu      sync.Mutex
	session *assistant.Session
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithMaxHistoryTurns bounds how many conversation turns a session keeps.
// Older turns are discarded first.
func WithMaxHistoryTurns(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxHistoryTurns = n
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(options ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:        make(map[string]*entry),
		maxHistoryTurns: 20,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Get returns a copy of the session, so callers can read it without holding
// any lock.
func (s *MemoryStore) Get(sessionID string) (*assistant.Session, bool) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.session), true
}

// Put stores a session, replacing any existing one with the same id.
func (s *MemoryStore) Put(session *assistant.Session) {
	if session == nil || session.ID == "" {
		return
	}
	e := s.entryFor(session.ID)

	e.mu.Lock()
	defer e.mu.Unlock()
	stored := copySession(session)
	stored.UpdatedAt = time.Now()
	s.trim(stored)
	e.session = stored
}

// Remove deletes a session.
func (s *MemoryStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Update applies fn to the session under its lock, creating the session
// first if it does not exist, and returns a copy of the result.
func (s *MemoryStore) Update(sessionID string, fn func(*assistant.Session)) *assistant.Session {
	e := s.entryFor(sessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		now := time.Now()
		e.session = &assistant.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now}
	}
	if fn != nil {
		fn(e.session)
	}
	e.session.UpdatedAt = time.Now()
	s.trim(e.session)
	return copySession(e.session)
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) entryFor(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	return e
}

func (s *MemoryStore) trim(session *assistant.Session) {
	if len(session.History) > s.maxHistoryTurns {
		trimmed := make([]assistant.Turn, s.maxHistoryTurns)
		copy(trimmed, session.History[len(session.History)-s.maxHistoryTurns:])
		session.History = trimmed
	}
}

func copySession(session *assistant.Session) *assistant.Session {
	if session == nil {
		return nil
	}
	copied := *session
	copied.History = make([]assistant.Turn, len(session.History))
	copy(copied.History, session.History)
	return &copied
}
