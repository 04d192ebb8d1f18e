package backup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/consensuslabs/dbupgrade/internal/config"
)

// MysqlDumpService implements Service for the mysql driver using the
// mysqldump and mysql client binaries.
type MysqlDumpService struct {
	dbConfig *config.DatabaseConfig
	tools    *config.BackupConfig
	logger   Logger
}

// NewMysqlDumpService creates a new mysqldump based backup service
func NewMysqlDumpService(dbConfig *config.DatabaseConfig, tools *config.BackupConfig, logger Logger) *MysqlDumpService {
	return &MysqlDumpService{
		dbConfig: dbConfig,
		tools:    tools,
		logger:   logger,
	}
}

// Save dumps the full database into a plain-SQL snapshot file
func (s *MysqlDumpService) Save(tempDir string) (*Snapshot, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %v", tempDir, err)
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	snap.Path = filepath.Join(tempDir, "snapshot-"+snap.ID+".sql")

	file, err := os.OpenFile(snap.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file %s: %v", snap.Path, err)
	}
	defer file.Close()

	cmd := exec.Command(s.mysqlDump(),
		"--host", s.dbConfig.Host,
		"--port", strconv.Itoa(s.dbConfig.Port),
		"--user", s.dbConfig.User,
		"--add-drop-table",
		"--routines",
		s.dbConfig.Dbname,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+s.dbConfig.Password)
	cmd.Stdout = file

	if err := cmd.Run(); err != nil {
		os.Remove(snap.Path)
		return nil, fmt.Errorf("mysqldump failed: %v", err)
	}

	s.logger.LogInfo("Database snapshot created", map[string]interface{}{
		"snapshot": snap.ID,
		"path":     snap.Path,
	})
	return snap, nil
}

// Restore replays the snapshot file against the database
func (s *MysqlDumpService) Restore(snap *Snapshot) error {
	file, err := os.Open(snap.Path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file %s: %v", snap.Path, err)
	}
	defer file.Close()

	cmd := exec.Command(s.mysql(),
		"--host", s.dbConfig.Host,
		"--port", strconv.Itoa(s.dbConfig.Port),
		"--user", s.dbConfig.User,
		s.dbConfig.Dbname,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+s.dbConfig.Password)
	cmd.Stdin = file

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mysql restore failed: %v: %s", err, out)
	}

	s.logger.LogInfo("Database restored from snapshot", map[string]interface{}{
		"snapshot": snap.ID,
	})
	return nil
}

// Discard removes the snapshot file
func (s *MysqlDumpService) Discard(snap *Snapshot) error {
	if err := os.Remove(snap.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot %s: %v", snap.Path, err)
	}
	return nil
}

func (s *MysqlDumpService) mysqlDump() string {
	if s.tools.MysqlDump != "" {
		return s.tools.MysqlDump
	}
	return "mysqldump"
}

func (s *MysqlDumpService) mysql() string {
	if s.tools.Mysql != "" {
		return s.tools.Mysql
	}
	return "mysql"
}
