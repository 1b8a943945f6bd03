package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Step moves the schema; see Up, Down and To
type Step struct {
	name  string
	apply func(*migrate.Migrate) error
}

func (s Step) String() string { return s.name }

// Up applies every pending migration
var Up = Step{name: "up", apply: (*migrate.Migrate).Up}

// Down rolls back the most recent migration
var Down = Step{name: "down", apply: func(m *migrate.Migrate) error { return m.Steps(-1) }}

// To migrates up or down to version
func To(version uint) Step {
	return Step{
		name:  fmt.Sprintf("to %d", version),
		apply: func(m *migrate.Migrate) error { return m.Migrate(version) },
	}
}

// Migrate runs step against the SQL files in dir. A schema that is already
// where step would leave it is not an error.
func (db *DB) Migrate(dir string, step Step) error {
	log := db.log.With().Str("dir", dir).Str("step", step.name).Logger()
	log.Info().Msg("Running migrations")

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	if err := step.apply(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", step, err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("Schema is empty")
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migrations completed")
	}
	return nil
}
