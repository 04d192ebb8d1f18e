package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/consensuslabs/dbupgrade/internal/backup"
	"github.com/consensuslabs/dbupgrade/internal/config"
	"github.com/consensuslabs/dbupgrade/internal/database"
	"github.com/consensuslabs/dbupgrade/internal/logger"
	"github.com/consensuslabs/dbupgrade/internal/migrate"
)

func main() {
	configPath := flag.String("config", ".", "Directory containing config.yaml")
	root := flag.String("root", "", "Script root directory (overrides migrations.scriptRoot)")
	pending := flag.Bool("pending", false, "Only report whether upgrade scripts are pending")
	flag.Parse()

	// Load .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	bootLog := logger.NewDefaultLogger()

	configService := config.NewConfigService(bootLog)
	cfg, err := configService.Load(*configPath)
	if err != nil {
		bootLog.LogFatal(err, "Failed to load config")
	}

	// Override password from environment if present
	if envPass := os.Getenv("DB_PASSWORD"); envPass != "" {
		cfg.Database.Password = envPass
	}

	appLog, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		bootLog.LogFatal(err, "Failed to create logger")
	}

	dbService := database.NewService(&cfg.Database, appLog)
	if _, err := dbService.Connect(); err != nil {
		appLog.LogFatal(err, "Failed to connect to database")
	}
	defer dbService.Close()

	backupService, err := backup.ForDriver(&cfg.Database, &cfg.Backup, appLog)
	if err != nil {
		appLog.LogFatal(err, "Failed to create backup service")
	}

	runner := migrate.NewExecRunner([]string{
		"DB_DRIVER=" + cfg.Database.Driver,
		"DB_HOST=" + cfg.Database.Host,
		"DB_PORT=" + fmt.Sprintf("%d", cfg.Database.Port),
		"DB_USER=" + cfg.Database.User,
		"DB_PASSWORD=" + cfg.Database.Password,
		"DB_NAME=" + cfg.Database.Dbname,
		"DB_PATH=" + cfg.Database.Path,
	})

	engine, err := migrate.NewEngine(dbService, backupService, migrate.Options{
		SiteRoot: cfg.Migrations.SiteRoot,
		Table:    cfg.Migrations.Table,
		TempDir:  cfg.Backup.TempDir,
		Runner:   runner,
	}, appLog)
	if err != nil {
		appLog.LogFatal(err, "Failed to create migration engine")
	}

	scriptRoot := cfg.Migrations.ScriptRoot
	if *root != "" {
		scriptRoot = *root
	}

	if *pending {
		isPending, err := engine.IsPending(scriptRoot)
		if err != nil {
			appLog.LogFatal(err, "Failed to check pending scripts")
		}
		if isPending {
			fmt.Println("pending")
			os.Exit(1)
		}
		fmt.Println("up to date")
		return
	}

	applied, err := engine.Migrate(scriptRoot)
	if err != nil {
		appLog.LogFatal(err, "Migration failed")
	}

	appLog.LogInfo("Migration finished", map[string]interface{}{
		"applied": len(applied),
	})
	for _, key := range applied {
		fmt.Println(key)
	}
}
