// Package postgres provides a PostgreSQL-backed store backend using pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cristianoliveira/tmux-localnotify/internal/store"
)

// Backend implements store.Backend on a PostgreSQL table.
type Backend struct {
	db *sql.DB

	mu     sync.Mutex
	schema bool
}

var _ store.Backend = (*Backend)(nil)

// New opens a connection pool for dsn. No connection is made until first use.
func New(dsn string) (*Backend, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	return &Backend{db: d}, nil
}

// EnsureSchema creates the key-value table when missing.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.schema {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS localnotify_kv(
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY(namespace, key)
		);`,
	}
	for _, q := range stmts {
		if _, err := b.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("postgres store: ensure schema: %w", err)
		}
	}
	b.schema = true
	return nil
}

func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := b.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO localnotify_kv(namespace, key, value, updated_at)
		VALUES($1,$2,$3,now())
		ON CONFLICT(namespace, key) DO UPDATE SET
			value=EXCLUDED.value,
			updated_at=EXCLUDED.updated_at`, namespace, key, value)
	if err != nil {
		return fmt.Errorf("postgres store: put %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := b.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM localnotify_kv WHERE namespace=$1 AND key=$2`, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (b *Backend) Delete(ctx context.Context, namespace, key string) error {
	if err := b.EnsureSchema(ctx); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM localnotify_kv WHERE namespace=$1 AND key=$2`, namespace, key); err != nil {
		return fmt.Errorf("postgres store: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (b *Backend) Keys(ctx context.Context, namespace string) ([]string, error) {
	if err := b.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, `SELECT key FROM localnotify_kv WHERE namespace=$1 ORDER BY key`, namespace)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
