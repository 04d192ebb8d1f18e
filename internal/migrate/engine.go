package migrate

import (
	"fmt"

	"github.com/consensuslabs/dbupgrade/internal/backup"
	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// Options configures an Engine.
type Options struct {
	// SiteRoot is the prefix stripped from script paths to form ledger keys.
	SiteRoot string

	// Table overrides the ledger table name (default "migration").
	Table string

	// TempDir is where batch snapshots are written. Must be unique per run
	// if concurrent runs are ever attempted.
	TempDir string

	// Runner executes scripts of the Executable kind. When nil, an
	// encountered .script file fails its batch and triggers the restore.
	Runner Runner
}

// Engine orchestrates a migration batch: snapshot, ordered application,
// restore on failure. One Engine drives one database; running two batches
// against the same database concurrently is unsupported.
type Engine struct {
	db      database.Database
	backup  backup.Service
	ledger  *Ledger
	locator *Locator
	applier *Applier
	paths   *Normalizer
	tempDir string
	logger  logger.Logger
}

// NewEngine creates a migration engine. It fails with a ConfigurationError
// when the site root is invalid.
func NewEngine(db database.Database, backupService backup.Service, opts Options, log logger.Logger) (*Engine, error) {
	paths, err := NewNormalizer(opts.SiteRoot)
	if err != nil {
		return nil, err
	}
	if opts.TempDir == "" {
		return nil, &ConfigurationError{Message: "snapshot temp directory must not be empty"}
	}

	ledger := NewLedger(db, opts.Table, log)
	return &Engine{
		db:      db,
		backup:  backupService,
		ledger:  ledger,
		locator: NewLocator(),
		applier: NewApplier(db, ledger, paths, opts.Runner, log),
		paths:   paths,
		tempDir: opts.TempDir,
		logger:  log,
	}, nil
}

// Ledger exposes the engine's ledger for administrative use (Forget).
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Migrate applies every pending script under rootPath in lexicographic
// order and returns the relative keys applied by this batch. A snapshot is
// taken before the first script; on any failure the snapshot is restored
// and the original error returned, so the database is never left partially
// migrated. If the restore itself fails, a BackupError carrying the
// retained snapshot path is returned instead and the database must be
// assumed inconsistent.
func (e *Engine) Migrate(rootPath string) ([]string, error) {
	if err := e.ledger.EnsureInstalled(); err != nil {
		return nil, err
	}

	snap, err := e.backup.Save(e.tempDir)
	if err != nil {
		return nil, &BackupError{Message: "failed to create batch snapshot", Cause: err}
	}

	scripts, err := e.locator.List(rootPath, e.db.DriverName())
	if err != nil {
		// Nothing has been applied yet; the snapshot is simply dropped.
		e.discard(snap)
		return nil, err
	}

	applied := []string{}
	for _, script := range scripts {
		key, ok, err := e.applier.Apply(script)
		if err != nil {
			return nil, e.rollback(snap, err)
		}
		if ok {
			applied = append(applied, key)
		}
	}

	e.discard(snap)
	e.logger.LogInfo("Migration batch committed", map[string]interface{}{
		"root":    rootPath,
		"applied": len(applied),
	})
	return applied, nil
}

// IsPending reports whether any script under rootPath is absent from the
// ledger. Read-only: no snapshot is taken and nothing is applied.
// Unreadable scripts count as pending since they were never recorded.
func (e *Engine) IsPending(rootPath string) (bool, error) {
	if err := e.ledger.EnsureInstalled(); err != nil {
		return false, err
	}

	scripts, err := e.locator.List(rootPath, e.db.DriverName())
	if err != nil {
		return false, err
	}

	for _, script := range scripts {
		key, err := e.paths.ToRelative(script.AbsolutePath)
		if err != nil {
			return false, err
		}
		has, err := e.ledger.Has(key)
		if err != nil {
			return false, err
		}
		if !has {
			return true, nil
		}
	}
	return false, nil
}

// rollback restores the snapshot and returns the original batch error. A
// restore failure supersedes it: the snapshot file is retained for manual
// recovery and a compounded BackupError is returned.
func (e *Engine) rollback(snap *backup.Snapshot, cause error) error {
	e.logger.LogWarn("Migration batch failed, restoring snapshot", map[string]interface{}{
		"snapshot": snap.ID,
		"error":    cause.Error(),
	})

	if restoreErr := e.backup.Restore(snap); restoreErr != nil {
		return &BackupError{
			Message: fmt.Sprintf(
				"restore failed after batch error (%v); snapshot retained, database may be inconsistent",
				cause),
			Cause:        restoreErr,
			SnapshotPath: snap.Path,
		}
	}

	e.discard(snap)
	return cause
}

// discard drops the snapshot file; failure to delete never fails the batch.
func (e *Engine) discard(snap *backup.Snapshot) {
	if err := e.backup.Discard(snap); err != nil {
		e.logger.LogWarn("Failed to remove snapshot", map[string]interface{}{
			"snapshot": snap.ID,
			"error":    err.Error(),
		})
	}
}
