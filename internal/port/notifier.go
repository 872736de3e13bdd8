package port

import (
	"context"

	"addrparser/internal/domain"
)

// BatchNotifier announces finished batch runs.
type BatchNotifier interface {
	NotifyBatchCompleted(ctx context.Context, summary domain.RunSummary) error
}
