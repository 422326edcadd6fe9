// Package mysql opens the curriculum database over the MySQL wire protocol.
// Query logic lives in the shared sqlstore package.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql" // driver

	"github.com/dgw-tools/coursemapper/internal/storage/sqlstore"
)

// Config controls opening the backend.
type Config struct {
	DSN string
	// OpenTimeout bounds the initial connect retries.
	OpenTimeout time.Duration
}

// DB is the MySQL-backed store.
type DB struct {
	*sqlstore.Queries
	db *sql.DB
}

// Open connects with exponential backoff; transient startup failures
// (database still warming up) are retried until OpenTimeout elapses.
func Open(ctx context.Context, cfg *Config) (*DB, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(timeout)), ctx)
	if err := backoff.Retry(func() error { return db.PingContext(ctx) }, policy); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &DB{Queries: sqlstore.New(db), db: db}, nil
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.db.Close()
}
