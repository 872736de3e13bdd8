package port

import (
	"context"
	"time"

	"addrparser/internal/domain"
)

// EmployeeDirectory looks up employees in the HRIS.
type EmployeeDirectory interface {
	// ListByIntakeDate returns every employee whose intake date is date.
	// No match is an empty slice, not an error.
	ListByIntakeDate(ctx context.Context, date time.Time) ([]domain.Employee, error)
	// GetByID returns domain.ErrEmployeeNotFound when no employee has id.
	GetByID(ctx context.Context, id int) (*domain.Employee, error)
}
