// Package hris adapts the HR information system's SQL Server database: the
// employee view and the address parse stored procedure.
package hris

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"addrparser/internal/config"
)

// NewDB opens and verifies a SQL Server connection pool. The caller owns the
// handle and must Close it.
func NewDB(cfg *config.HRISConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to hris: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	return db, nil
}
