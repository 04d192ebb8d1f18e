package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileCopyService implements Service for file-backed databases (sqlite)
// by copying the database file itself.
type FileCopyService struct {
	databasePath string
	logger       Logger
}

// NewFileCopyService creates a backup service that snapshots the database file
func NewFileCopyService(databasePath string, logger Logger) *FileCopyService {
	return &FileCopyService{
		databasePath: databasePath,
		logger:       logger,
	}
}

// Save copies the database file into tempDir
func (s *FileCopyService) Save(tempDir string) (*Snapshot, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %v", tempDir, err)
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	snap.Path = filepath.Join(tempDir, "snapshot-"+snap.ID+".db")

	if err := copyFile(s.databasePath, snap.Path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database file: %v", err)
	}

	s.logger.LogInfo("Database snapshot created", map[string]interface{}{
		"snapshot": snap.ID,
		"path":     snap.Path,
	})
	return snap, nil
}

// Restore copies the snapshot back over the database file
func (s *FileCopyService) Restore(snap *Snapshot) error {
	if err := copyFile(snap.Path, s.databasePath); err != nil {
		return fmt.Errorf("failed to restore database file: %v", err)
	}

	s.logger.LogInfo("Database restored from snapshot", map[string]interface{}{
		"snapshot": snap.ID,
	})
	return nil
}

// Discard removes the snapshot file
func (s *FileCopyService) Discard(snap *Snapshot) error {
	if err := os.Remove(snap.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot %s: %v", snap.Path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
