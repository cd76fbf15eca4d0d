package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createColumnConfigSQL = `CREATE TABLE IF NOT EXISTS column_config (
	namespace TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectColumnConfigSQL = `SELECT payload FROM column_config WHERE namespace = $1`

const upsertColumnConfigSQL = `INSERT INTO column_config (namespace, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (namespace) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

// pgQuerier is the subset of *pgxpool.Pool the store uses.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores column configuration in PostgreSQL.
type Postgres struct {
	db    pgQuerier
	close func()
}

// OpenPostgres connects to databaseURL and ensures the column_config table exists.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns int) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := newPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store.close = pool.Close
	return store, nil
}

func newPostgres(ctx context.Context, db pgQuerier) (*Postgres, error) {
	if _, err := db.Exec(ctx, createColumnConfigSQL); err != nil {
		return nil, fmt.Errorf("create column_config table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// LoadColumns returns the columns stored under namespace.
func (p *Postgres) LoadColumns(ctx context.Context, namespace string) ([]core.Column, bool, error) {
	var payload []byte
	err := p.db.QueryRow(ctx, selectColumnConfigSQL, namespace).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (p *Postgres) SaveColumns(ctx context.Context, namespace string, cols []core.Column) error {
	payload, err := encodeColumns(cols)
	if err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, upsertColumnConfigSQL, namespace, payload); err != nil {
		return fmt.Errorf("upsert column_config: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
