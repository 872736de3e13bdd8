package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
)

// MockBatchNotifier is a mock implementation of port.BatchNotifier.
type MockBatchNotifier struct {
	mock.Mock
}

func (m *MockBatchNotifier) NotifyBatchCompleted(ctx context.Context, summary domain.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
