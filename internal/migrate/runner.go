package migrate

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/consensuslabs/dbupgrade/internal/database"
)

// Runner executes scripts of the Executable kind. Such scripts are trusted
// code; nothing here sandboxes them.
type Runner interface {
	Run(absolutePath string) error
}

// errNoRunner fails executable scripts encountered without a configured
// runner, keeping the batch on its normal rollback path.
var errNoRunner = errors.New("no script runner configured")

// ScriptFunc is an in-process upgrade step with full access to the database
// collaborator.
type ScriptFunc func(db database.Database) error

// RegistryRunner resolves .script files to Go functions registered under the
// script's base filename. The on-disk file acts as the ordering and ledger
// marker; the registered function holds the logic.
type RegistryRunner struct {
	db    database.Database
	funcs map[string]ScriptFunc
}

// NewRegistryRunner creates an empty registry runner
func NewRegistryRunner(db database.Database) *RegistryRunner {
	return &RegistryRunner{
		db:    db,
		funcs: make(map[string]ScriptFunc),
	}
}

// Register binds a script base filename (e.g. "000004_backfill.script") to
// its implementation. Later registrations replace earlier ones.
func (r *RegistryRunner) Register(name string, fn ScriptFunc) {
	r.funcs[name] = fn
}

// Run executes the function registered for the file's base name
func (r *RegistryRunner) Run(absolutePath string) error {
	name := filepath.Base(absolutePath)
	fn, ok := r.funcs[name]
	if !ok {
		return fmt.Errorf("no handler registered for script %s", name)
	}
	return fn(r.db)
}

// ExecRunner executes .script files as subprocesses. The configured
// environment (typically database connection settings) is appended to the
// inherited one.
type ExecRunner struct {
	env []string
}

// NewExecRunner creates a subprocess runner with extra environment entries
// given as KEY=VALUE pairs.
func NewExecRunner(env []string) *ExecRunner {
	return &ExecRunner{env: env}
}

// Run executes the file and fails with its combined output on a non-zero exit
func (r *ExecRunner) Run(absolutePath string) error {
	cmd := exec.Command(absolutePath)
	cmd.Env = append(os.Environ(), r.env...)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %s", err, out)
	}
	return nil
}
