package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migrate applies every pending up-migration for the configured driver.
// It returns true when at least one migration ran.
func Migrate(db *sql.DB, driver string) (bool, error) {
	if db == nil {
		return false, errors.New("database is required")
	}

	var (
		target migratedb.Driver
		name   string
		err    error
	)
	switch driver {
	case DriverSQLite:
		name = "sqlite"
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case DriverPostgres:
		name = "pgx5"
		target, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		return false, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return false, fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return false, fmt.Errorf("migration source: %w", err)
	}

	// m.Close is not called: it would close db, which the caller owns.
	m, err := migrate.NewWithInstance("iofs", source, name, target)
	if err != nil {
		return false, fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("apply migrations: %w", err)
	}
	return true, nil
}
