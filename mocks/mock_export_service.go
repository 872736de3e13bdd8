package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
	"addrparser/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, snap *domain.SessionSnapshot) (*service.ExportFile, error) {
	args := m.Called(ctx, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}

func (m *MockExportService) List(ctx context.Context, offset, limit int) ([]service.ExportEntry, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]service.ExportEntry), args.Int(1), args.Error(2)
}
