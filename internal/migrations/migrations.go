// Package migrations holds the MySQL schema and applies it with
// golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files.
func Source() (source.Driver, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return src, nil
}

// newMigrator runs golang-migrate on one connection reserved from db. Closing
// the migrator hands that connection back and leaves db open.
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	ctx := context.Background()
	src, err := Source()
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("reserve migration connection: %w", err)
	}
	drv, err := mysql.WithConnection(ctx, conn, &mysql.Config{})
	if err != nil {
		conn.Close()
		src.Close()
		return nil, fmt.Errorf("create migration db driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", drv)
	if err != nil {
		drv.Close()
		src.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func release(m *migrate.Migrate, err *error) {
	srcErr, dbErr := m.Close()
	if *err == nil {
		*err = errors.Join(srcErr, dbErr)
	}
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func Up(db *sql.DB) (err error) {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release(m, &err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func Down(db *sql.DB, steps int) (err error) {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release(m, &err)
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version. Version 0 means no migration
// has run.
func Version(db *sql.DB) (v uint, dirty bool, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	defer release(m, &err)
	v, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, dirty, nil
}
