package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/tablekit/internal/core"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite stores column configuration in a local database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "tablekit.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS column_config (
		namespace TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create column_config table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// LoadColumns returns the columns stored under namespace.
func (s *SQLite) LoadColumns(ctx context.Context, namespace string) ([]core.Column, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM column_config WHERE namespace = ?`, namespace,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select column_config: %w", err)
	}
	cols, err := decodeColumns(payload)
	if err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

// SaveColumns upserts the columns stored under namespace.
func (s *SQLite) SaveColumns(ctx context.Context, namespace string, cols []core.Column) error {
	payload, err := encodeColumns(cols)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO column_config(namespace, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		namespace, payload, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert column_config: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *SQLite) Path() string { return s.path }
