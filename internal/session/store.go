package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MemoryStore implements Store using in-memory storage
type MemoryStore struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	logger   zerolog.Logger
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger.With().Str("component", "memory_store").Logger(),
	}
}

// Set stores a copy of session
func (s *MemoryStore) Set(ctx context.Context, session *Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *session
	s.sessions[session.ID] = &stored

	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("Stored session")
	return nil
}

// Touch refreshes a live session under the store lock
func (s *MemoryStore) Touch(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) (*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, newNotFoundError(sessionID)
	}

	if session.IsExpired(now) {
		delete(s.sessions, sessionID)
		expired := *session
		return &expired, newExpiredError(sessionID)
	}

	session.Refresh(now, timeout)
	touched := *session
	return &touched, nil
}

// Delete removes a session and returns it
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) (*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, newNotFoundError(sessionID)
	}

	delete(s.sessions, sessionID)
	s.logger.Debug().
		Str("session_id", sessionID).
		Msg("Session deleted")
	return session, nil
}

// DeleteExpired removes and returns every session expired at now
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) ([]*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var expired []*Session
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, id)
			expired = append(expired, session)
		}
	}
	return expired, nil
}

// Count returns the number of stored sessions
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.sessions), nil
}

// Close drops every stored session
func (s *MemoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sessionCount := len(s.sessions)
	s.sessions = make(map[string]*Session)

	s.logger.Info().
		Int("cleared_sessions", sessionCount).
		Msg("Memory store closed and cleared")
	return nil
}
