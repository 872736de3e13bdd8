package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"addrparser/internal/batch"
	"addrparser/internal/domain"
	"addrparser/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) snapshot(args mock.Arguments) (*domain.SessionSnapshot, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionSnapshot), args.Error(1)
}

func (m *MockSessionService) Create(ctx context.Context, kind domain.SessionKind) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, kind))
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionService) Clear(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) ResetResults(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) LoadText(ctx context.Context, id uuid.UUID, text string, appendItems bool) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id, text, appendItems))
}

func (m *MockSessionService) LoadFile(ctx context.Context, id uuid.UUID, name string, r io.Reader, appendItems bool) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id, name, r, appendItems))
}

func (m *MockSessionService) LoadEmployeesByDate(ctx context.Context, id uuid.UUID, date string) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id, date))
}

func (m *MockSessionService) LoadEmployeeByID(ctx context.Context, id uuid.UUID, personID string) (*domain.SessionSnapshot, error) {
	return m.snapshot(m.Called(ctx, id, personID))
}

func (m *MockSessionService) ProcessAll(ctx context.Context, id uuid.UUID, opts batch.RunOptions) error {
	args := m.Called(ctx, id, opts)
	return args.Error(0)
}

func (m *MockSessionService) ProcessItem(ctx context.Context, id, itemID uuid.UUID) (*domain.BatchItem, error) {
	args := m.Called(ctx, id, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchItem), args.Error(1)
}

func (m *MockSessionService) Export(ctx context.Context, id uuid.UUID) (*service.ExportFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}

func (m *MockSessionService) EvictIdle(now time.Time) int {
	args := m.Called(now)
	return args.Int(0)
}

func (m *MockSessionService) Shutdown() {
	m.Called()
}
