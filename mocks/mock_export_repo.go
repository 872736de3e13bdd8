package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
)

// MockExportRepo is a mock implementation of port.ExportRepository.
type MockExportRepo struct {
	mock.Mock
}

func (m *MockExportRepo) Create(ctx context.Context, rec *domain.ExportRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockExportRepo) List(ctx context.Context, offset, limit int) ([]domain.ExportRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ExportRecord), args.Int(1), args.Error(2)
}
