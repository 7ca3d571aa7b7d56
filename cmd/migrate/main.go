package main

import (
	"errors"
	"flag"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := config.NewLogger(config.LoggerConfig{
		Level:  "info",
		Format: "console",
	}).With().Str("component", "migrate").Logger()

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		logger.Error().Msg("usage: migrate <up|down|version>")
		os.Exit(1)
	}

	// POSTGRES_URL wins; otherwise the DB_* variables the API server uses
	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		dbCfg := config.LoadDatabase()
		postgresURL = dbCfg.ConnectionString()
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = database.DefaultMigrationsURL
	}

	command := args[0]

	if command == "up" {
		if err := database.MigrateUp(migrationsPath, postgresURL, logger); err != nil {
			logger.Error().Err(err).Msg("migration up failed")
			os.Exit(1)
		}
		return
	}

	m, err := database.NewMigrator(migrationsPath, postgresURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create migrate instance")
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch command {
	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("no migrations to rollback")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("migration down failed")
			os.Exit(1)
		}
		logger.Info().Msg("migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info().Msg("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to get version")
			os.Exit(1)
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration version")

	default:
		logger.Error().Str("command", command).Msg("unknown command")
		os.Exit(1)
	}
}
