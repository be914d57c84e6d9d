// Package migrations applies the embedded item store schema.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// ErrNoSchema is returned by CheckDBMigrationStatus for a database that was never migrated.
var ErrNoSchema = errors.New("database has no schema version (needs migration)")

// CheckDBMigrationStatus returns nil when the schema is at the latest
// embedded version and an error describing the mismatch otherwise.
func CheckDBMigrationStatus(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m is not closed: closing it would close db, which the caller owns.

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return ErrNoSchema
		}
		return errors.Wrap(err, "reading schema version")
	}
	if dirty {
		return errors.Newf("database is in dirty state at version %d (migration failed previously)", version)
	}

	latest, err := LatestVersion()
	if err != nil {
		return err
	}

	switch {
	case version < latest:
		return errors.Newf("database is at version %d but latest is %d (%d migrations behind)", version, latest, latest-version)
	case version > latest:
		return errors.Newf("database version %d is ahead of binary version %d (binary needs update)", version, latest)
	}
	return nil
}

// MigrateUp applies all pending migrations. An up-to-date database is not an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "applying migrations")
	}
	return nil
}

// LatestVersion returns the highest embedded migration version.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, errors.Wrap(err, "reading migration files")
	}
	defer src.Close()

	return latestVersion(src)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration files")
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, errors.Wrap(err, "creating migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, errors.Wrap(err, "creating migrate instance")
	}
	return m, nil
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, errors.Wrap(err, "no migrations found")
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			// Next fails once there are no further migrations.
			return version, nil
		}
		version = next
	}
}
