package migrate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/testhelper"
)

func newTestApplier(t *testing.T, db database.Database, siteRoot string, runner Runner) (*Applier, *Ledger, *testhelper.TestLogger) {
	t.Helper()

	log := testhelper.NewTestLogger()
	paths, err := NewNormalizer(siteRoot)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	ledger := NewLedger(db, "", log)
	if err := ledger.EnsureInstalled(); err != nil {
		t.Fatalf("EnsureInstalled failed: %v", err)
	}
	return NewApplier(db, ledger, paths, runner, log), ledger, log
}

func TestApplyRunsAndRecordsSQLScript(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)
	path := testhelper.WriteScript(t, scriptRoot, "001_a.sql",
		"CREATE TABLE applied_here (id INTEGER);\nINSERT INTO applied_here (id) VALUES (1);")

	applier, ledger, _ := newTestApplier(t, db, siteRoot, nil)

	key, ok, err := applier.Apply(Script{AbsolutePath: path, Kind: SQL})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !ok {
		t.Fatal("expected the script to be applied")
	}
	if key != "sql/001_a.sql" {
		t.Errorf("Apply returned key %q, want sql/001_a.sql", key)
	}

	if !tableExists(t, db, "applied_here") {
		t.Error("script effects missing")
	}
	if got := countRows(t, db, "applied_here"); got != 1 {
		t.Errorf("expected 1 row from the batch, got %d", got)
	}

	has, err := ledger.Has("sql/001_a.sql")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("script not recorded")
	}
}

func TestApplySkipsRecordedScript(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)
	path := testhelper.WriteScript(t, scriptRoot, "001_a.sql", "CREATE TABLE once (id INTEGER);")

	applier, ledger, _ := newTestApplier(t, db, siteRoot, nil)
	if err := ledger.Record("sql/001_a.sql"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	key, ok, err := applier.Apply(Script{AbsolutePath: path, Kind: SQL})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ok {
		t.Error("recorded script must be skipped")
	}
	if key != "sql/001_a.sql" {
		t.Errorf("Apply returned key %q, want sql/001_a.sql", key)
	}
	if tableExists(t, db, "once") {
		t.Error("skipped script must have no side effects")
	}
}

func TestApplySkipsUnreadableFileWithoutRecording(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)

	broken := filepath.Join(scriptRoot, "001_broken.sql")
	if err := os.Symlink(filepath.Join(scriptRoot, "gone"), broken); err != nil {
		t.Fatalf("failed to create dangling symlink: %v", err)
	}

	applier, ledger, log := newTestApplier(t, db, siteRoot, nil)

	_, ok, err := applier.Apply(Script{AbsolutePath: broken, Kind: SQL})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ok {
		t.Error("unreadable script must be skipped")
	}

	has, err := ledger.Has("sql/001_broken.sql")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("unreadable script must not be recorded")
	}
	if !log.HasWarnContaining("unreadable") {
		t.Error("expected a warning about the unreadable script")
	}
}

func TestApplyWrapsSQLFailure(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)
	path := testhelper.WriteScript(t, scriptRoot, "001_bad.sql", "THIS IS NOT SQL;")

	applier, ledger, _ := newTestApplier(t, db, siteRoot, nil)

	_, _, err := applier.Apply(Script{AbsolutePath: path, Kind: SQL})
	var execErr *ScriptExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ScriptExecutionError, got %T: %v", err, err)
	}
	if execErr.Path != "sql/001_bad.sql" {
		t.Errorf("expected key in error, got %q", execErr.Path)
	}

	has, herr := ledger.Has("sql/001_bad.sql")
	if herr != nil {
		t.Fatalf("Has failed: %v", herr)
	}
	if has {
		t.Error("failed script must not be recorded")
	}
}

func TestApplyExecutableWithoutHandlerFails(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)
	path := testhelper.WriteScript(t, scriptRoot, "001_task.script", "marker")

	applier, _, _ := newTestApplier(t, db, siteRoot, NewRegistryRunner(db))

	_, _, err := applier.Apply(Script{AbsolutePath: path, Kind: Executable})
	var execErr *ScriptExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ScriptExecutionError, got %T: %v", err, err)
	}
}

func TestApplyExecutableWithoutRunnerFails(t *testing.T) {
	db := newTestDB(t)
	siteRoot, scriptRoot := testhelper.ScriptRoot(t)
	path := testhelper.WriteScript(t, scriptRoot, "001_task.script", "marker")

	applier, ledger, _ := newTestApplier(t, db, siteRoot, nil)

	_, _, err := applier.Apply(Script{AbsolutePath: path, Kind: Executable})
	var execErr *ScriptExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ScriptExecutionError, got %T: %v", err, err)
	}
	if !errors.Is(err, errNoRunner) {
		t.Errorf("expected errNoRunner cause, got %v", err)
	}

	has, herr := ledger.Has("sql/001_task.script")
	if herr != nil {
		t.Fatalf("Has failed: %v", herr)
	}
	if has {
		t.Error("failed script must not be recorded")
	}
}
