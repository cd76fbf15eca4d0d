// Package storage persists the column registry.
//
// Only column configuration is stored: one JSON document per namespace.
// Records and view state are never written. Three drivers are available:
//
//   - memory: process-local map, lost on restart
//   - sqlite: a single table in a local database file (modernc.org/sqlite)
//   - postgres: a single table in PostgreSQL (pgx connection pool)
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/tablekit/internal/core"
)

// Store is a core.ColumnStore that holds resources until closed.
type Store interface {
	core.ColumnStore
	Close() error
}

// Options configures Open.
type Options struct {
	Driver      string // memory, sqlite or postgres
	SQLitePath  string
	DatabaseURL string
	MaxConns    int
}

// Open creates the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, opts.SQLitePath)
	case "postgres":
		return OpenPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// encodeColumns and decodeColumns define the stored payload format.
func encodeColumns(cols []core.Column) ([]byte, error) {
	if cols == nil {
		cols = []core.Column{}
	}
	data, err := json.Marshal(cols)
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}
	return data, nil
}

func decodeColumns(data []byte) ([]core.Column, error) {
	var cols []core.Column
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return cols, nil
}
