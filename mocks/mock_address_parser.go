package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
)

// MockAddressParser is a mock implementation of port.AddressParser.
type MockAddressParser struct {
	mock.Mock
}

func (m *MockAddressParser) Parse(ctx context.Context, address string) (*domain.ParseResult, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResult), args.Error(1)
}
