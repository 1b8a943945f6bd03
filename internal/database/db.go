package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/records-api/internal/config"
	"github.com/rs/zerolog"
)

// DB is the shared Postgres pool
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// New opens the pool and pings it, retrying while the server is still
// starting. It gives up after cfg.ConnectAttempts pings.
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.MaxLifetime)

	db := &DB{DB: pool, log: log.With().Str("component", "database").Logger()}

	if err := db.waitReady(max(cfg.ConnectAttempts, 1), time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	db.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")
	return db, nil
}

// waitReady pings until the server answers, doubling the pause between attempts
func (db *DB) waitReady(attempts int, pause time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		db.log.Warn().Err(err).Int("attempt", i).Dur("retry_in", pause).Msg("Database not ready")
		time.Sleep(pause)
		pause *= 2
	}
	return fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}

// HealthCheck pings the database
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Stats returns connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}
