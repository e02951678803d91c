// Package store wraps the SQLite-backed persistence layer shared by the
// canonicalization service, the decision command API, and the library
// read-view.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the database connection and schema lifecycle.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at dbPath, applying the schema.
// If an existing database has an incompatible schema, it is treated as a
// fatal error rather than silently discarded: unlike a pure local cache,
// this store holds the canonicalization provenance of record.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	escapedPath := strings.ReplaceAll(dbPath, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escapedPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for callers that need raw access
// (the library read-view's paginated query, for instance).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Backup writes a consistent snapshot of the database to destPath using
// SQLite's VACUUM INTO, which is safe to run against a live WAL-mode
// database without blocking concurrent readers or writers. Intended to
// be driven by the scheduler's daily backup job.
func (s *Store) Backup(ctx context.Context, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	// VACUUM INTO refuses an existing non-empty target, so write to a
	// temporary file and rename it over any previous backup.
	tmpPath := destPath + ".tmp"
	_ = os.Remove(tmpPath)
	escapedPath := strings.ReplaceAll(tmpPath, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", escapedPath)); err != nil {
		return fmt.Errorf("vacuum into backup path: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("replace previous backup: %w", err)
	}
	return nil
}

// WithTx runs fn inside a single transaction, committing on success and
// rolling back on any error or panic. Canonicalization promotions and
// decision commands both run through this to get a single-writer,
// no-partial-commits guarantee.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
