// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/weighttrack/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using a single documents table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids SQLITE_BUSY
	// between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureLayout re-applies the schema.
func (s *SQLiteStore) EnsureLayout(ctx context.Context) error {
	if err := runMigrations(ctx, s.db); err != nil {
		return &storage.IOError{Op: "migrate", Err: err}
	}
	return nil
}

// Get retrieves a document body.
func (s *SQLiteStore) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, error) {
	if err := storage.ValidateDoc(domain, key); err != nil {
		return nil, err
	}

	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE domain = ? AND key = ?",
		string(domain), key,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, storage.NotFound(domain, key)
	}
	if err != nil {
		return nil, &storage.IOError{Op: "read", Domain: domain, Key: key, Err: err}
	}
	return body, nil
}

// Put inserts or replaces a document body.
func (s *SQLiteStore) Put(ctx context.Context, domain storage.Domain, key string, data []byte) error {
	if err := storage.ValidateDoc(domain, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (domain, key, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain, key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(domain), key, data, s.now().Unix(),
	)
	if err != nil {
		return &storage.IOError{Op: "write", Domain: domain, Key: key, Err: err}
	}
	return nil
}
