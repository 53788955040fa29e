package storage

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrateUp applies every pending migration to an open database.
func migrateUp(db *sqlx.DB, driver, source string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}

	var m *migrate.Migrate
	switch driver {
	case PostgresDriver:
		m, err = migrate.NewWithSourceInstance("iofs", src, source)
		if err != nil {
			return errors.Wrap(err, "initialize migrations")
		}
		defer m.Close()
	case SQLiteDriver:
		// Closing the sqlite driver would close db, so only the source is released.
		var instance database.Driver
		instance, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return errors.Wrap(err, "initialize migrations")
		}
		m, err = migrate.NewWithInstance("iofs", src, SQLiteDriver, instance)
		if err != nil {
			return errors.Wrap(err, "initialize migrations")
		}
		defer src.Close()
	default:
		return errors.Errorf("unsupported driver '%s'", driver)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// Migrate opens the journal at dsn, applies pending migrations and closes it.
func Migrate(dsn string) error {
	store, err := NewSQLStore(dsn)
	if err != nil {
		return err
	}
	return store.Close()
}
