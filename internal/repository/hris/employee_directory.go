package hris

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

const (
	employeesByDateQuery = `SELECT Person_ID, Person_Name, Staying_Address
		FROM dbo.View_Data_Person
		WHERE Date_Come_In = CAST(@date AS date)
		ORDER BY Person_ID`

	employeeByIDQuery = `SELECT Person_ID, Person_Name, Staying_Address
		FROM dbo.View_Data_Person
		WHERE Person_ID = @PersonID`
)

// employeeRow tolerates NULL names and addresses in the view.
type employeeRow struct {
	ID             int            `db:"Person_ID"`
	Name           sql.NullString `db:"Person_Name"`
	StayingAddress sql.NullString `db:"Staying_Address"`
}

func (r *employeeRow) toEmployee() domain.Employee {
	return domain.Employee{ID: r.ID, Name: r.Name.String, StayingAddress: r.StayingAddress.String}
}

type employeeDirectory struct {
	db *sqlx.DB
}

// NewEmployeeDirectory creates an EmployeeDirectory backed by View_Data_Person.
func NewEmployeeDirectory(db *sqlx.DB) port.EmployeeDirectory {
	return &employeeDirectory{db: db}
}

func (r *employeeDirectory) ListByIntakeDate(ctx context.Context, date time.Time) ([]domain.Employee, error) {
	var rows []employeeRow
	err := r.db.SelectContext(ctx, &rows, employeesByDateQuery, sql.Named("date", date.Format("2006-01-02")))
	if err != nil {
		return nil, fmt.Errorf("employeeDirectory.ListByIntakeDate: %w: %w", domain.ErrDirectoryUnavailable, err)
	}
	emps := make([]domain.Employee, 0, len(rows))
	for i := range rows {
		emps = append(emps, rows[i].toEmployee())
	}
	return emps, nil
}

func (r *employeeDirectory) GetByID(ctx context.Context, id int) (*domain.Employee, error) {
	var row employeeRow
	err := r.db.GetContext(ctx, &row, employeeByIDQuery, sql.Named("PersonID", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("employeeDirectory.GetByID: %w: %w", domain.ErrDirectoryUnavailable, err)
	}
	emp := row.toEmployee()
	return &emp, nil
}
