// Package noop provides a BatchNotifier that only logs.
package noop

import (
	"context"

	"github.com/rs/zerolog/log"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a BatchNotifier that writes the run summary to the log.
func NewNoopNotifier() port.BatchNotifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyBatchCompleted(_ context.Context, s domain.RunSummary) error {
	log.Info().
		Str("session_id", s.SessionID.String()).
		Str("kind", string(s.Kind)).
		Int("done", s.Done).
		Int("failed", s.Failed).
		Bool("canceled", s.Canceled).
		Msg("[NOOP NOTIFY] batch completed")
	return nil
}
