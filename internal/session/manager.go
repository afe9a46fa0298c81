package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Manager creates, validates and expires sessions.
type Manager struct {
	store    Store
	timeout  time.Duration
	observer Observer
	now      func() time.Time
	logger   zerolog.Logger
}

// ManagerConfig contains configuration for the session manager
type ManagerConfig struct {
	SessionTimeout time.Duration
	Observer       Observer
}

// NewManager creates a new session manager
func NewManager(store Store, config ManagerConfig, logger zerolog.Logger) *Manager {
	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Manager{
		store:    store,
		timeout:  config.SessionTimeout,
		observer: observer,
		now:      time.Now,
		logger:   logger.With().Str("component", "session_manager").Logger(),
	}
}

// Create generates a new session ID and stores it
func (m *Manager) Create(ctx context.Context, protocolVersion string, clientInfo ClientInfo) (*Session, error) {
	now := m.now()
	sessionID, err := GenerateID(now)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("remote_addr", clientInfo.RemoteAddr).
			Msg("Failed to generate session ID")
		return nil, err
	}

	session := &Session{
		ID:              sessionID,
		CreatedAt:       now,
		LastAccess:      now,
		ExpiresAt:       now.Add(m.timeout),
		ProtocolVersion: protocolVersion,
		ClientInfo:      clientInfo,
	}

	if err := m.store.Set(ctx, session); err != nil {
		m.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("Failed to store session")
		return nil, newStorageError("create", err)
	}

	m.observer.SessionCreated()
	m.logger.Info().
		Str("session_id", sessionID).
		Str("client", clientInfo.Name).
		Str("client_version", clientInfo.Version).
		Str("remote_addr", clientInfo.RemoteAddr).
		Time("expires_at", session.ExpiresAt).
		Msg("Session created")

	return session, nil
}

// Validate checks that a session ID is well formed, known and live. A live
// session has its expiry pushed out.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*Session, error) {
	if err := ValidateID(sessionID); err != nil {
		return nil, err
	}

	now := m.now()
	session, err := m.store.Touch(ctx, sessionID, now, m.timeout)
	if err != nil {
		if Code(err) == ErrExpired && session != nil {
			m.logger.Debug().
				Str("session_id", sessionID).
				Time("expires_at", session.ExpiresAt).
				Msg("Session has expired")
			m.observer.SessionEnded(EndExpired, now.Sub(session.CreatedAt))
		}
		return nil, err
	}

	return session, nil
}

// Delete ends a session at the client's request
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	session, err := m.store.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	m.observer.SessionEnded(EndDeleted, m.now().Sub(session.CreatedAt))

	m.logger.Info().
		Str("session_id", sessionID).
		Msg("Session deleted")
	return nil
}

// CleanupExpired removes all expired sessions and returns how many went
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	now := m.now()
	expired, err := m.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, newStorageError("cleanup", err)
	}

	for _, session := range expired {
		m.observer.SessionEnded(EndExpired, now.Sub(session.CreatedAt))
	}
	return len(expired), nil
}

// Count returns the number of stored sessions
func (m *Manager) Count(ctx context.Context) (int, error) {
	count, err := m.store.Count(ctx)
	if err != nil {
		return 0, newStorageError("count", err)
	}
	return count, nil
}

// Close releases the underlying store
func (m *Manager) Close() error {
	return m.store.Close()
}
