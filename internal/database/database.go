// Package database manages connections to the embedded SQLite database.
//
// The database engine is modernc.org/sqlite (pure Go, no cgo). A *DB wraps a
// single pooled connection; the pure-Go driver serializes writes anyway, and
// one connection keeps :memory: databases coherent across the pool.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"taskvault/internal/domain"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database, used heavily in tests.
const MemoryPath = ":memory:"

// Queryer is the query surface shared by *sql.DB and *sql.Tx. Components
// that only read and write rows accept this instead of a concrete handle,
// so the same code runs inside and outside transactions.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is an open handle to a taskvault database
type DB struct {
	sql  *sql.DB
	path string

	closeOnce sync.Once
	closeErr  error
}

// Open opens the database at path, creating the file and its parent
// directory if needed. File-backed databases run in WAL mode with a busy
// timeout; pass MemoryPath for an in-memory database.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrConnection)
	}

	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: create database directory: %v", domain.ErrConnection, err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrConnection, path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrConnection, path, err)
	}

	return &DB{sql: db, path: path}, nil
}

// With opens the database at path, runs fn, and always closes the handle.
// The error from fn wins over any close error.
func With(path string, fn func(*DB) error) error {
	db, err := Open(path)
	if err != nil {
		return err
	}

	fnErr := fn(db)
	closeErr := db.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// Handle returns the underlying *sql.DB for injection into the schema
// manager and repository
func (d *DB) Handle() *sql.DB {
	return d.sql
}

// Path returns the path the database was opened with
func (d *DB) Path() string {
	return d.path
}

// Ping verifies the connection is still usable
func (d *DB) Ping(ctx context.Context) error {
	if err := d.sql.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %v", domain.ErrConnection, d.path, err)
	}
	return nil
}

// Close releases the connection. Safe to call more than once; repeated
// calls return the result of the first.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.sql.Close()
	})
	return d.closeErr
}
