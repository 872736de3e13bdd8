package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionJanitor periodically evicts idle batch sessions.
type SessionJanitor struct {
	sessions SessionService
	interval time.Duration
	now      func() time.Time
}

// NewSessionJanitor creates a new SessionJanitor.
func NewSessionJanitor(sessions SessionService, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{sessions: sessions, interval: interval, now: time.Now}
}

// Start runs the eviction loop until ctx is canceled.
func (j *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", j.interval).Msg("sessionJanitor: started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sessionJanitor: shutdown complete")
			return
		case <-ticker.C:
			if n := j.sessions.EvictIdle(j.now()); n > 0 {
				log.Info().Int("evicted", n).Msg("sessionJanitor: evicted idle sessions")
			}
		}
	}
}
