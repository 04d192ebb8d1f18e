package backup

import (
	"time"

	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// Snapshot is an opaque handle to a point-in-time database backup. It is
// owned by the migration engine for the duration of one batch: discarded on
// success, consumed (restored then discarded) on failure.
type Snapshot struct {
	ID        string
	Path      string
	CreatedAt time.Time
}

// Service defines the interface for snapshot and restore operations
type Service interface {
	// Save writes a full database snapshot into tempDir and returns its handle.
	Save(tempDir string) (*Snapshot, error)

	// Restore rolls the database back to the state captured by the snapshot.
	Restore(snap *Snapshot) error

	// Discard removes the snapshot file.
	Discard(snap *Snapshot) error
}

// Logger interface for logging operations
type Logger = logger.Logger
