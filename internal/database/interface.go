package database

import (
	"database/sql"
	"errors"

	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// ErrDuplicateKey is returned by Exec when an insert violates a unique
// constraint. The migration ledger relies on it to detect concurrent
// writers racing on the same script key.
var ErrDuplicateKey = errors.New("duplicate key violation")

// Database defines the interface for database operations consumed by the
// migration engine.
type Database interface {
	// TableExists reports whether a table with the given name exists in the
	// current schema.
	TableExists(name string) (bool, error)

	// Exec runs a single DDL/DML statement.
	Exec(sql string) error

	// ExecBatch runs a multi-statement SQL text as one batch.
	ExecBatch(sqlText string) error

	// Query runs a read-only statement and returns its rows.
	Query(sql string) (*sql.Rows, error)

	// DriverName returns the configured driver identifier (pgsql, mysql or
	// sqlite). It selects the driver-specific script subdirectory.
	DriverName() string

	// QuoteIdentifier quotes a table or column name for the target dialect.
	QuoteIdentifier(name string) string

	// Escape escapes a string literal for safe inlining into SQL.
	Escape(value string) string
}

// Logger interface for logging operations
type Logger = logger.Logger
