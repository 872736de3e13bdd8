package port

import (
	"context"

	"addrparser/internal/domain"
)

// ExportRepository persists export audit records.
type ExportRepository interface {
	Create(ctx context.Context, rec *domain.ExportRecord) error
	List(ctx context.Context, offset, limit int) ([]domain.ExportRecord, int, error)
}
