package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Janitor periodically removes expired sessions
type Janitor struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitor creates a janitor sweeping every interval
func NewJanitor(manager *Manager, interval time.Duration, logger zerolog.Logger) *Janitor {
	return &Janitor{
		manager:  manager,
		interval: interval,
		logger:   logger.With().Str("component", "session_janitor").Logger(),
	}
}

// Run sweeps until ctx is done. It always returns nil so it can sit in an
// errgroup without tearing the group down on shutdown.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().
		Dur("interval", j.interval).
		Msg("Starting session cleanup")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("Session cleanup stopped")
			return nil
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep
func (j *Janitor) RunOnce(ctx context.Context) int {
	start := time.Now()
	deleted, err := j.manager.CleanupExpired(ctx)
	if err != nil {
		j.logger.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Session cleanup failed")
		return 0
	}

	if deleted > 0 {
		j.logger.Info().
			Int("deleted_count", deleted).
			Dur("duration", time.Since(start)).
			Msg("Session cleanup completed")
	}
	return deleted
}
