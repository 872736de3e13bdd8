package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

type exportRecordRepo struct {
	db *sqlx.DB
}

// NewExportRecordRepo creates a new PostgreSQL-backed ExportRepository.
func NewExportRecordRepo(db *sqlx.DB) port.ExportRepository {
	return &exportRecordRepo{db: db}
}

func (r *exportRecordRepo) Create(ctx context.Context, rec *domain.ExportRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()

	query := `INSERT INTO export_records (id, session_id, kind, file_name, row_count, s3_bucket, s3_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, rec.Kind, rec.FileName, rec.RowCount, rec.S3Bucket, rec.S3Key, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("exportRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *exportRecordRepo) List(ctx context.Context, offset, limit int) ([]domain.ExportRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM export_records")
	if err != nil {
		return nil, 0, fmt.Errorf("exportRecordRepo.List count: %w", err)
	}

	var records []domain.ExportRecord
	err = r.db.SelectContext(ctx, &records,
		`SELECT id, session_id, kind, file_name, row_count, s3_bucket, s3_key, created_at
		FROM export_records ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("exportRecordRepo.List: %w", err)
	}
	return records, total, nil
}
