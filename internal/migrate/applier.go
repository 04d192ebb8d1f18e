package migrate

import (
	"os"

	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// Applier executes one script against the database and records it in the
// ledger, enforcing at-most-once application per relative key.
type Applier struct {
	db     database.Database
	ledger *Ledger
	paths  *Normalizer
	runner Runner
	logger logger.Logger
}

// NewApplier creates a script applier
func NewApplier(db database.Database, ledger *Ledger, paths *Normalizer, runner Runner, log logger.Logger) *Applier {
	return &Applier{
		db:     db,
		ledger: ledger,
		paths:  paths,
		runner: runner,
		logger: log,
	}
}

// Apply runs a single script. It returns the script's ledger key and true
// when the script was executed and recorded, false when it was skipped:
// already in the ledger, or its file is unreadable. Unreadable files are not
// recorded, so they stay pending on every future run.
func (a *Applier) Apply(script Script) (string, bool, error) {
	key, err := a.paths.ToRelative(script.AbsolutePath)
	if err != nil {
		return "", false, err
	}

	applied, err := a.ledger.Has(key)
	if err != nil {
		return key, false, err
	}
	if applied {
		a.logger.LogDebug("Script already applied", map[string]interface{}{
			"path": key,
		})
		return key, false, nil
	}

	contents, err := os.ReadFile(script.AbsolutePath)
	if err != nil {
		a.logger.LogWarn("Skipping unreadable script; it stays pending", map[string]interface{}{
			"path":  key,
			"error": err.Error(),
		})
		return key, false, nil
	}

	a.logger.LogInfo("Applying script", map[string]interface{}{
		"path": key,
		"kind": script.Kind.String(),
	})

	switch script.Kind {
	case Executable:
		if a.runner == nil {
			return key, false, &ScriptExecutionError{Path: key, Cause: errNoRunner}
		}
		if err := a.runner.Run(script.AbsolutePath); err != nil {
			return key, false, &ScriptExecutionError{Path: key, Cause: err}
		}
	default:
		if err := a.db.ExecBatch(string(contents)); err != nil {
			return key, false, &ScriptExecutionError{Path: key, Cause: err}
		}
	}

	// The script has already run; a failed insert here cannot be recovered
	// locally and must abort the batch.
	if err := a.ledger.Record(key); err != nil {
		return key, false, &LedgerInconsistencyError{Path: key, Cause: err}
	}
	return key, true, nil
}
