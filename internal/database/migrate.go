package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirtyMigration means a previous migration failed halfway and needs a
// manual `migrate force` before the service can start.
var ErrDirtyMigration = errors.New("database schema is dirty")

// RunMigrations applies every pending up-migration under migrationsPath.
// The memory, knowledge and ledger tables all live in the agent schema.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if ver, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("%w at version %d", ErrDirtyMigration, ver)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("database schema up to date")
	case err != nil:
		return fmt.Errorf("running migrations: %w", err)
	}

	ver, _, _ := m.Version()
	slog.Info("database migrations applied", "version", ver, "path", migrationsPath)
	return nil
}
