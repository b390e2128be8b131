// Package postgres stores AppState documents in the app_states table.
package postgres

import (
	"context"
	"errors"

	"neuropulse/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Backend struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Backend {
	return &Backend{Pool: pool}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := b.Pool.QueryRow(ctx, `SELECT document FROM app_states WHERE scope=$1`, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return doc, err
}

func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.Pool.Exec(ctx, `INSERT INTO app_states (scope, document, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (scope) DO UPDATE SET document=EXCLUDED.document, updated_at=now()`, key, string(data))
	return err
}
