// Package sqlite implements the employee store and attendance ledger on
// an embedded SQLite database. This is the default backend; it needs no
// external services and fits the expected scale of tens to low thousands
// of employees.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database handle.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and runs
// pending migrations. Use ":memory:" for an in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	// _txlock=immediate takes the write lock at BEGIN so the ledger's
	// read-decide-write transactions serialize instead of failing with
	// SQLITE_BUSY at the first write.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids lock churn
	// and makes in-memory databases usable from tests.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(10 * time.Minute)

	d := &DB{db: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("closing sqlite database: %w", err)
		}
	}
	return nil
}
