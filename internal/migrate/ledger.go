package migrate

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// DefaultLedgerTable is the ledger table name used when none is configured
const DefaultLedgerTable = "migration"

// Ledger records which script paths have been applied, keyed by their
// normalized relative path. An entry exists iff the script has been applied;
// entries are never removed as part of the migrate flow.
type Ledger struct {
	db     database.Database
	table  string
	logger logger.Logger
}

// NewLedger creates a ledger over the given database collaborator
func NewLedger(db database.Database, table string, log logger.Logger) *Ledger {
	if table == "" {
		table = DefaultLedgerTable
	}
	return &Ledger{
		db:     db,
		table:  table,
		logger: log,
	}
}

// Table returns the ledger table name
func (l *Ledger) Table() string {
	return l.table
}

// EnsureInstalled creates the ledger table if it is absent. Idempotent and
// safe to call before every operation.
func (l *Ledger) EnsureInstalled() error {
	exists, err := l.db.TableExists(l.table)
	if err != nil {
		return &StorageError{Message: "failed to check ledger table", Cause: err}
	}
	if exists {
		return nil
	}

	ddl := fmt.Sprintf(
		"CREATE TABLE %s (%s VARCHAR(255) NOT NULL PRIMARY KEY, %s TIMESTAMP NOT NULL)",
		l.db.QuoteIdentifier(l.table),
		l.db.QuoteIdentifier("path"),
		l.db.QuoteIdentifier("created"),
	)
	if err := l.db.Exec(ddl); err != nil {
		return &StorageError{Message: "failed to create ledger table", Cause: err}
	}

	l.logger.LogInfo("Ledger table created", map[string]interface{}{
		"table": l.table,
	})
	return nil
}

// Has reports whether an entry with the given key exists
func (l *Ledger) Has(relativeKey string) (bool, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s = '%s'",
		l.db.QuoteIdentifier(l.table),
		l.db.QuoteIdentifier("path"),
		l.db.Escape(relativeKey),
	)

	rows, err := l.db.Query(query)
	if err != nil {
		return false, &StorageError{Message: "failed to query ledger", Cause: err}
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, &StorageError{Message: "failed to scan ledger row", Cause: err}
		}
	}
	if err := rows.Err(); err != nil {
		return false, &StorageError{Message: "failed to read ledger rows", Cause: err}
	}
	return count > 0, nil
}

// Record inserts an entry with the current time. A duplicate key is a hard
// failure carrying ErrDuplicateKey: it means another writer recorded the
// same script between our Has check and this insert.
func (l *Ledger) Record(relativeKey string) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES ('%s', '%s')",
		l.db.QuoteIdentifier(l.table),
		l.db.QuoteIdentifier("path"),
		l.db.QuoteIdentifier("created"),
		l.db.Escape(relativeKey),
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)

	if err := l.db.Exec(stmt); err != nil {
		if l.isDuplicate(err, relativeKey) {
			return &StorageError{
				Message: fmt.Sprintf("key %q: %v", relativeKey, ErrDuplicateKey),
				Cause:   ErrDuplicateKey,
			}
		}
		return &StorageError{Message: fmt.Sprintf("failed to record key %q", relativeKey), Cause: err}
	}
	return nil
}

// isDuplicate classifies an insert failure. Drivers that translate unique
// violations are trusted directly; otherwise a re-read settles whether the
// key appeared underneath us.
func (l *Ledger) isDuplicate(err error, relativeKey string) bool {
	if errors.Is(err, database.ErrDuplicateKey) {
		return true
	}
	has, checkErr := l.Has(relativeKey)
	return checkErr == nil && has
}

// Forget removes an entry. Administrative escape hatch only; the migrate
// and pending flows never call it.
func (l *Ledger) Forget(relativeKey string) error {
	stmt := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = '%s'",
		l.db.QuoteIdentifier(l.table),
		l.db.QuoteIdentifier("path"),
		l.db.Escape(relativeKey),
	)
	if err := l.db.Exec(stmt); err != nil {
		return &StorageError{Message: fmt.Sprintf("failed to forget key %q", relativeKey), Cause: err}
	}

	l.logger.LogWarn("Ledger entry removed", map[string]interface{}{
		"table": l.table,
		"path":  relativeKey,
	})
	return nil
}
