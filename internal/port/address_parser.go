package port

import (
	"context"

	"addrparser/internal/domain"
)

// AddressParser normalizes one free-text address. Implementations must be
// safe to call repeatedly with the same input.
type AddressParser interface {
	Parse(ctx context.Context, address string) (*domain.ParseResult, error)
}
