package config

import (
	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// Config represents the application configuration
type Config struct {
	Environment string           `mapstructure:"environment" yaml:"environment"`
	Database    DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Migrations  MigrationsConfig `mapstructure:"migrations" yaml:"migrations"`
	Backup      BackupConfig     `mapstructure:"backup" yaml:"backup"`
	Logging     logger.Config    `mapstructure:"logging" yaml:"logging"`
}

// DatabaseConfig represents database configuration settings.
// Driver selects the dialect and must match the name of the
// driver-specific script subdirectory (pgsql, mysql or sqlite).
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dbname   string `mapstructure:"dbname"`
	Port     int    `mapstructure:"port"`
	Sslmode  string `mapstructure:"sslmode"`
	Timezone string `mapstructure:"timezone"`

	// Path is the database file location, used by the sqlite driver only
	Path string `mapstructure:"path"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig represents connection pool limits
type PoolConfig struct {
	MaxOpen int `mapstructure:"maxOpen"`
	MaxIdle int `mapstructure:"maxIdle"`
}

// MigrationsConfig represents migration engine configuration settings
type MigrationsConfig struct {
	// SiteRoot is the deployment root that ledger keys are made relative to
	SiteRoot string `mapstructure:"siteRoot"`

	// ScriptRoot is the directory scanned for upgrade scripts
	ScriptRoot string `mapstructure:"scriptRoot"`

	// Table is the ledger table name
	Table string `mapstructure:"table"`
}

// BackupConfig represents snapshot and restore configuration settings
type BackupConfig struct {
	// TempDir is where batch snapshots are written before a migration run
	TempDir string `mapstructure:"tempDir"`

	// PgDump and Psql are the client binaries used for the pgsql driver
	PgDump string `mapstructure:"pgDump"`
	Psql   string `mapstructure:"psql"`

	// MysqlDump and Mysql are the client binaries used for the mysql driver
	MysqlDump string `mapstructure:"mysqlDump"`
	Mysql     string `mapstructure:"mysql"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config represents the optional off-host snapshot archive settings
type S3Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}
