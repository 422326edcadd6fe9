// Package sqlite serves the curriculum schema from a local snapshot file,
// for runs without network access to the curriculum database. Query logic
// lives in the shared sqlstore package.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // driver

	"github.com/dgw-tools/coursemapper/internal/storage/sqlstore"
)

// DB is the snapshot-backed store.
type DB struct {
	*sqlstore.Queries
	db *sql.DB
}

// Open opens an existing snapshot file read-only.
func Open(ctx context.Context, path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot file: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return &DB{Queries: sqlstore.New(db), db: db}, nil
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.db.Close()
}
