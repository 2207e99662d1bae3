package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	libdb "gridpulse/backend/libs/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "grid_schema_migrations"

// Migrate applies the embedded schema. It uses its own short-lived pool because closing
// a migrate instance also closes the database handle it was given.
func Migrate(dsn string, logger *zap.Logger) error {
	sqlDB, err := libdb.NewPostgresDB(dsn)
	if err != nil {
		return fmt.Errorf("migrate: open db: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("migrate: open source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("migrate: database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("migrate: init: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("migrate: close", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate: version: %w", err)
	}
	logger.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
