// file: db/migrate.go

package db

import (
	"embed"
	"errors"
	"fmt"
	"noxa-api/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// RunMigrations applies the embedded migrations against dsn. ErrNoChange is not an error.
func RunMigrations(dsn string, dir Direction) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("cannot open embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("cannot create migrate instance: %w", err)
	}
	defer mig.Close()

	switch dir {
	case Up:
		err = mig.Up()
	case Down:
		err = mig.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate %s: %w", dir, err)
	}

	version, dirty, verr := mig.Version()
	if verr == nil {
		logger.Log.WithField("version", version).WithField("dirty", dirty).Info("Migrations applied")
	}
	return nil
}
