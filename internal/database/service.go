package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/consensuslabs/dbupgrade/internal/config"
)

// Service implements the Database interface on top of GORM
type Service struct {
	config *config.DatabaseConfig
	logger Logger
	db     *gorm.DB
}

// NewService creates a new database service instance
func NewService(config *config.DatabaseConfig, logger Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Connect establishes a connection to the database
func (s *Service) Connect() (*gorm.DB, error) {
	dialector, err := s.dialector()
	if err != nil {
		return nil, err
	}

	s.logger.LogInfo("Connecting to database", map[string]interface{}{
		"driver": s.config.Driver,
		"dbname": s.config.Dbname,
	})

	gormConfig := &gorm.Config{
		Logger: NewGormLogger(s.logger, 500*time.Millisecond),
		// Surface unique-constraint violations as gorm.ErrDuplicatedKey
		// regardless of driver.
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %v", err)
	}

	// Configure connection pool using values from config
	sqlDB.SetMaxOpenConns(s.config.Pool.MaxOpen)
	sqlDB.SetMaxIdleConns(s.config.Pool.MaxIdle)

	s.db = db
	return db, nil
}

// UseDB attaches an existing GORM handle to the service. Intended for tests
// and callers that manage the connection themselves.
func (s *Service) UseDB(db *gorm.DB) {
	s.db = db
}

// dialector builds the GORM dialector for the configured driver.
// Multi-statement batches require the simple protocol on pgsql and the
// multiStatements flag on mysql.
func (s *Service) dialector() (gorm.Dialector, error) {
	switch s.config.Driver {
	case "pgsql":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			s.config.Host,
			s.config.User,
			s.config.Password,
			s.config.Dbname,
			s.config.Port,
			s.config.Sslmode,
			s.config.Timezone,
		)
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			s.config.User,
			s.config.Password,
			s.config.Host,
			s.config.Port,
			s.config.Dbname,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(s.config.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", s.config.Driver)
	}
}

// TableExists reports whether a table with the given name exists
func (s *Service) TableExists(name string) (bool, error) {
	var query string
	switch s.config.Driver {
	case "pgsql":
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = '%s'",
			s.Escape(name))
	case "mysql":
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = '%s'",
			s.Escape(name))
	case "sqlite":
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = '%s'",
			s.Escape(name))
	default:
		return false, fmt.Errorf("unsupported database driver: %q", s.config.Driver)
	}

	var count int64
	if err := s.db.Raw(query).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Exec runs a single DDL/DML statement
func (s *Service) Exec(sqlText string) error {
	if err := s.db.Exec(sqlText).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

// ExecBatch runs a multi-statement SQL text as one batch
func (s *Service) ExecBatch(sqlText string) error {
	return s.Exec(sqlText)
}

// Query runs a read-only statement and returns its rows
func (s *Service) Query(sqlText string) (*sql.Rows, error) {
	return s.db.Raw(sqlText).Rows()
}

// DriverName returns the configured driver identifier
func (s *Service) DriverName() string {
	return s.config.Driver
}

// QuoteIdentifier quotes a table or column name for the target dialect
func (s *Service) QuoteIdentifier(name string) string {
	if s.config.Driver == "mysql" {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Escape escapes a string literal for safe inlining into SQL
func (s *Service) Escape(value string) string {
	escaped := strings.ReplaceAll(value, "'", "''")
	if s.config.Driver == "mysql" {
		escaped = strings.ReplaceAll(escaped, `\`, `\\`)
	}
	return escaped
}

// Close closes the database connection
func (s *Service) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %v", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %v", err)
		}
	}
	return nil
}
