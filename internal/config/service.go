package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/consensuslabs/dbupgrade/internal/logger"
)

// Drivers supported by the engine; the name doubles as the
// driver-specific script subdirectory under the script root.
var supportedDrivers = map[string]bool{
	"pgsql":  true,
	"mysql":  true,
	"sqlite": true,
}

// ConfigService loads and validates application configuration
type ConfigService struct {
	logger logger.Logger
}

// NewConfigService creates a new configuration service
func NewConfigService(logger logger.Logger) *ConfigService {
	return &ConfigService{
		logger: logger,
	}
}

// Load loads the configuration from the specified path
func (s *ConfigService) Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	// Use test configuration file if ENV is set to test
	if os.Getenv("ENV") == "test" {
		v.SetConfigName("config_test")
	} else {
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	s.setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := s.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	if err := s.resolvePaths(&config, path); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %v", err)
	}

	s.logger.LogInfo("Configuration loaded successfully", nil)
	return &config, nil
}

// setDefaults sets default values for configuration
func (s *ConfigService) setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.pool.maxOpen", 10)
	v.SetDefault("database.pool.maxIdle", 2)
	v.SetDefault("migrations.table", "migration")
	v.SetDefault("migrations.scriptRoot", "sql")
	v.SetDefault("backup.tempDir", os.TempDir())
	v.SetDefault("backup.pgDump", "pg_dump")
	v.SetDefault("backup.psql", "psql")
	v.SetDefault("backup.mysqlDump", "mysqldump")
	v.SetDefault("backup.mysql", "mysql")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate performs validation on the configuration
func (s *ConfigService) validate(config *Config) error {
	if !supportedDrivers[config.Database.Driver] {
		return fmt.Errorf("unsupported database driver: %q", config.Database.Driver)
	}

	if config.Database.Driver == "sqlite" {
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver")
		}
		return nil
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if config.Database.Dbname == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Database.Port <= 0 {
		return fmt.Errorf("invalid database port")
	}

	return nil
}

// resolvePaths converts relative paths to absolute paths anchored at the config location
func (s *ConfigService) resolvePaths(config *Config, basePath string) error {
	siteRoot := config.Migrations.SiteRoot
	if siteRoot == "" {
		siteRoot = basePath
	}
	if !filepath.IsAbs(siteRoot) {
		absPath, err := filepath.Abs(filepath.Join(basePath, siteRoot))
		if err != nil {
			return fmt.Errorf("failed to resolve site root path: %v", err)
		}
		siteRoot = absPath
	}
	config.Migrations.SiteRoot = siteRoot

	scriptRoot := config.Migrations.ScriptRoot
	if !filepath.IsAbs(scriptRoot) {
		config.Migrations.ScriptRoot = filepath.Join(siteRoot, scriptRoot)
	}

	tempDir := config.Backup.TempDir
	if !filepath.IsAbs(tempDir) {
		absPath, err := filepath.Abs(filepath.Join(basePath, tempDir))
		if err != nil {
			return fmt.Errorf("failed to resolve temp directory path: %v", err)
		}
		config.Backup.TempDir = absPath
	}

	return nil
}
