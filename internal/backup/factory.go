package backup

import (
	"fmt"

	"github.com/consensuslabs/dbupgrade/internal/config"
)

// ForDriver returns the backup service matching the configured database
// driver. The optional S3 archive decorator is applied on top when enabled.
func ForDriver(dbConfig *config.DatabaseConfig, tools *config.BackupConfig, logger Logger) (Service, error) {
	var service Service
	switch dbConfig.Driver {
	case "pgsql":
		service = NewPgDumpService(dbConfig, tools, logger)
	case "mysql":
		service = NewMysqlDumpService(dbConfig, tools, logger)
	case "sqlite":
		service = NewFileCopyService(dbConfig.Path, logger)
	default:
		return nil, fmt.Errorf("no backup service for driver %q", dbConfig.Driver)
	}

	if tools.S3.Enabled {
		return NewS3Archiver(service, &tools.S3, logger)
	}
	return service, nil
}
