package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
)

// MockEmployeeDirectory is a mock implementation of port.EmployeeDirectory.
type MockEmployeeDirectory struct {
	mock.Mock
}

func (m *MockEmployeeDirectory) ListByIntakeDate(ctx context.Context, date time.Time) ([]domain.Employee, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Employee), args.Error(1)
}

func (m *MockEmployeeDirectory) GetByID(ctx context.Context, personID int) (*domain.Employee, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}
