package session

import (
	"context"
	"time"
)

// Session is one MCP client connected over the HTTP transport. It carries
// transport state only.
type Session struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	LastAccess      time.Time  `json:"last_access"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ProtocolVersion string     `json:"protocol_version"`
	ClientInfo      ClientInfo `json:"client_info"`
}

// ClientInfo contains information about the client
type ClientInfo struct {
	Name       string `json:"name,omitempty"`
	Version    string `json:"version,omitempty"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Refresh updates the last access time and extends expiration
func (s *Session) Refresh(now time.Time, timeout time.Duration) {
	s.LastAccess = now
	s.ExpiresAt = now.Add(timeout)
}

// Store defines the interface for session storage operations. Every
// method is atomic with respect to the others.
type Store interface {
	// Set stores a session
	Set(ctx context.Context, session *Session) error

	// Touch refreshes a live session and returns a copy of it. A session
	// that has expired at now is removed instead and returned together with
	// an ErrExpired error.
	Touch(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) (*Session, error)

	// Delete removes a session and returns it
	Delete(ctx context.Context, sessionID string) (*Session, error)

	// DeleteExpired removes every session expired at now and returns them
	DeleteExpired(ctx context.Context, now time.Time) ([]*Session, error)

	// Count returns the number of stored sessions
	Count(ctx context.Context) (int, error)

	// Close cleans up resources
	Close() error
}

// Observer is notified about session lifecycle events.
type Observer interface {
	SessionCreated()
	SessionEnded(reason string, lifetime time.Duration)
}

// Reasons passed to Observer.SessionEnded.
const (
	EndDeleted = "deleted"
	EndExpired = "expired"
)

type nopObserver struct{}

func (nopObserver) SessionCreated() {}

func (nopObserver) SessionEnded(string, time.Duration) {}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
