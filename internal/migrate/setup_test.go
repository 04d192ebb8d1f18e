package migrate

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/consensuslabs/dbupgrade/internal/backup"
	"github.com/consensuslabs/dbupgrade/internal/config"
	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/testhelper"
)

// newTestDB connects a database service to a throwaway sqlite file
func newTestDB(t *testing.T) *database.Service {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	svc := database.NewService(cfg, testhelper.NewTestLogger())
	if _, err := svc.Connect(); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// tableBackup implements backup.Service with logical snapshots: it captures
// the set of user tables and the ledger rows, and restores by dropping
// tables and deleting rows added after the snapshot. Good enough to verify
// the engine's rollback contract without shelling out to dump tools.
type tableBackup struct {
	db          database.Database
	ledgerTable string

	saves    int
	restores int
	discards int

	saveErr    error
	restoreErr error

	snapTables map[string]bool
	snapLedger map[string]bool
}

func newTableBackup(db database.Database, ledgerTable string) *tableBackup {
	return &tableBackup{
		db:          db,
		ledgerTable: ledgerTable,
	}
}

func (b *tableBackup) Save(tempDir string) (*backup.Snapshot, error) {
	if b.saveErr != nil {
		return nil, b.saveErr
	}
	b.saves++

	tables, err := b.userTables()
	if err != nil {
		return nil, err
	}
	b.snapTables = map[string]bool{}
	for _, name := range tables {
		b.snapTables[name] = true
	}

	b.snapLedger = map[string]bool{}
	if b.snapTables[b.ledgerTable] {
		keys, err := b.ledgerKeys()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			b.snapLedger[key] = true
		}
	}

	return &backup.Snapshot{
		ID:   fmt.Sprintf("snap-%d", b.saves),
		Path: filepath.Join(tempDir, fmt.Sprintf("snap-%d.sql", b.saves)),
	}, nil
}

func (b *tableBackup) Restore(snap *backup.Snapshot) error {
	if b.restoreErr != nil {
		return b.restoreErr
	}
	b.restores++

	db := b.db
	tables, err := b.userTables()
	if err != nil {
		return err
	}
	for _, name := range tables {
		if !b.snapTables[name] {
			if err := db.Exec("DROP TABLE " + db.QuoteIdentifier(name)); err != nil {
				return err
			}
		}
	}

	if b.snapTables[b.ledgerTable] {
		keys, err := b.ledgerKeys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if !b.snapLedger[key] {
				stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = '%s'",
					db.QuoteIdentifier(b.ledgerTable),
					db.QuoteIdentifier("path"),
					db.Escape(key))
				if err := db.Exec(stmt); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *tableBackup) Discard(snap *backup.Snapshot) error {
	b.discards++
	return nil
}

func (b *tableBackup) userTables() ([]string, error) {
	db := b.db
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (b *tableBackup) ledgerKeys() ([]string, error) {
	db := b.db
	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s",
		db.QuoteIdentifier("path"), db.QuoteIdentifier(b.ledgerTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// tableExists is a test-side probe against the sqlite catalog
func tableExists(t *testing.T, db database.Database, name string) bool {
	t.Helper()
	exists, err := db.TableExists(name)
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return exists
}

// countRows counts rows of a table
func countRows(t *testing.T, db database.Database, table string) int {
	t.Helper()
	rows, err := db.Query("SELECT COUNT(*) FROM " + db.QuoteIdentifier(table))
	if err != nil {
		t.Fatalf("failed to count rows of %s: %v", table, err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			t.Fatalf("failed to scan count: %v", err)
		}
	}
	return count
}

// scriptKey builds the expected relative key for a script under the site root
func scriptKey(siteRoot, absPath string) string {
	rel, _ := filepath.Rel(siteRoot, absPath)
	return strings.ReplaceAll(rel, "\\", "/")
}
