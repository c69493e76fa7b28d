package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"dropwatch/migrations"
)

// RunPostgresMigrations applies the embedded Postgres schema over a
// dedicated connection to databaseURL.
func RunPostgresMigrations(databaseURL string) error {
	src, err := iofs.New(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to load embedded postgres migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	return up(m)
}

// RunSQLiteMigrations applies the embedded SQLite schema on db. The migrate
// instance is not closed because that would close db as well.
func RunSQLiteMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to load embedded sqlite migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return up(m)
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
