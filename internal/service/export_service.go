package service

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"addrparser/internal/domain"
	"addrparser/internal/port"
	"addrparser/internal/xlsxexport"
)

// ExportFile is a rendered workbook ready to be downloaded.
type ExportFile struct {
	FileName    string
	ContentType string
	RowCount    int
	Data        []byte
	// ArchiveID is set when the workbook was archived.
	ArchiveID *uuid.UUID
}

// ExportEntry is an archived export with a temporary download link.
type ExportEntry struct {
	domain.ExportRecord
	DownloadURL string `json:"download_url,omitempty"`
}

// ExportConfig holds archive settings for the export service.
type ExportConfig struct {
	ArchiveEnabled bool
	Bucket         string
	KeyPrefix      string
	PresignExpiry  int64
}

// ExportService renders session results to a workbook and keeps an optional
// archive of past exports.
type ExportService interface {
	// Export renders the Done items of snap. It returns domain.ErrNothingToExport
	// when no item has a result.
	Export(ctx context.Context, snap *domain.SessionSnapshot) (*ExportFile, error)
	// List returns archived exports, newest first.
	List(ctx context.Context, offset, limit int) ([]ExportEntry, int, error)
}

type exportService struct {
	storage port.ObjectStorage
	repo    port.ExportRepository
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService creates a new ExportService. storage and repo may be nil
// when archiving is disabled.
func NewExportService(storage port.ObjectStorage, repo port.ExportRepository, cfg ExportConfig) ExportService {
	if storage == nil || repo == nil {
		cfg.ArchiveEnabled = false
	}
	return &exportService{storage: storage, repo: repo, cfg: cfg, now: time.Now}
}

func (s *exportService) Export(ctx context.Context, snap *domain.SessionSnapshot) (*ExportFile, error) {
	rows := xlsxexport.BuildReport(snap.Kind, snap.Items)
	if len(rows) == 0 {
		return nil, domain.ErrNothingToExport
	}

	var buf bytes.Buffer
	if err := xlsxexport.Write(&buf, snap.Kind, rows); err != nil {
		return nil, fmt.Errorf("exportService.Export: %w", err)
	}

	file := &ExportFile{
		FileName:    xlsxexport.BuildFilename(snap.Kind, s.now()),
		ContentType: xlsxexport.ContentType,
		RowCount:    len(rows),
		Data:        buf.Bytes(),
	}

	if s.cfg.ArchiveEnabled {
		// The download is still served when archiving fails.
		id, err := s.archive(ctx, snap, file)
		if err != nil {
			log.Error().Err(err).Str("session_id", snap.ID.String()).Msg("exportService.Export: archive failed")
		} else {
			file.ArchiveID = &id
		}
	}

	log.Info().Str("session_id", snap.ID.String()).Str("file", file.FileName).Int("rows", file.RowCount).
		Msg("exportService.Export: workbook rendered")
	return file, nil
}

func (s *exportService) archive(ctx context.Context, snap *domain.SessionSnapshot, file *ExportFile) (uuid.UUID, error) {
	id := uuid.New()
	key := path.Join(s.cfg.KeyPrefix, s.now().UTC().Format("2006/01/02"), id.String(), file.FileName)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:             s.cfg.Bucket,
		Key:                key,
		Body:               bytes.NewReader(file.Data),
		ContentType:        file.ContentType,
		ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}),
		Size:               int64(len(file.Data)),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("uploading export: %w", err)
	}

	rec := &domain.ExportRecord{
		ID:        id,
		SessionID: snap.ID,
		Kind:      snap.Kind,
		FileName:  file.FileName,
		RowCount:  file.RowCount,
		S3Bucket:  s.cfg.Bucket,
		S3Key:     key,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if delErr := s.storage.Delete(ctx, s.cfg.Bucket, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("exportService.archive: cleanup of orphaned object failed")
		}
		return uuid.Nil, fmt.Errorf("recording export: %w", err)
	}
	return id, nil
}

func (s *exportService) List(ctx context.Context, offset, limit int) ([]ExportEntry, int, error) {
	if !s.cfg.ArchiveEnabled {
		return nil, 0, domain.ErrArchiveDisabled
	}

	records, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("exportService.List: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i := range records {
		entries[i].ExportRecord = records[i]
		url, err := s.storage.GetPresignedURL(ctx, records[i].S3Bucket, records[i].S3Key, s.cfg.PresignExpiry)
		if err != nil {
			log.Warn().Err(err).Str("export_id", records[i].ID.String()).Msg("exportService.List: presign failed")
			continue
		}
		entries[i].DownloadURL = url
	}
	return entries, total, nil
}
