package migrate

import (
	"errors"
	"testing"

	"github.com/consensuslabs/dbupgrade/testhelper"
)

func TestEnsureInstalledIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, "", testhelper.NewTestLogger())

	if ledger.Table() != DefaultLedgerTable {
		t.Fatalf("expected default table name, got %q", ledger.Table())
	}

	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("first EnsureInstalled failed: %v", err)
	}
	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("second EnsureInstalled failed: %v", err)
	}

	exists, err := db.TableExists(DefaultLedgerTable)
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if !exists {
		t.Error("ledger table was not created")
	}
}

func TestRecordHasForget(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, "upgrade_ledger", testhelper.NewTestLogger())
	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("EnsureInstalled failed: %v", err)
	}

	const key = "sql/001_init.sql"

	has, err := ledger.Has(key)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("key present before Record")
	}

	if err := ledger.Record(key); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	has, err = ledger.Has(key)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("key absent after Record")
	}

	if err := ledger.Forget(key); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}

	has, err = ledger.Has(key)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("key present after Forget")
	}
}

func TestRecordDuplicateIsAHardFailure(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, "", testhelper.NewTestLogger())
	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("EnsureInstalled failed: %v", err)
	}

	const key = "sql/001_init.sql"
	if err := ledger.Record(key); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}

	err := ledger.Record(key)
	if err == nil {
		t.Fatal("expected duplicate Record to fail")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLedgerEscapesKeys(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, "", testhelper.NewTestLogger())
	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("EnsureInstalled failed: %v", err)
	}

	// A quote in a path must not break the generated SQL.
	const key = "sql/o'brien.sql"
	if err := ledger.Record(key); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	has, err := ledger.Has(key)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("escaped key not found")
	}
}
