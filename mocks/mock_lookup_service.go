package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
)

// MockLookupService is a mock implementation of service.LookupService.
type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) ParseAddress(ctx context.Context, address string) (*domain.ParseResult, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}

func (m *MockLookupService) EmployeesByDate(ctx context.Context, date string) ([]domain.Employee, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Employee), args.Error(1)
}

func (m *MockLookupService) EmployeeByID(ctx context.Context, personID string) (*domain.Employee, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}
