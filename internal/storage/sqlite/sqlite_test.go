package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"neuropulse/internal/models"
	"neuropulse/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	_, err = b.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, b.Put(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, b.Put(ctx, "k", []byte(`{"a":2}`)))

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(got))
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neuropulse.db")
	ctx := context.Background()

	b, err := Open(path)
	require.NoError(t, err)
	a := storage.NewAdapter(b, nil, models.DefaultThresholds())
	state := a.Default()
	state.TotalRedirections = 4
	a.Save(ctx, models.DefaultScope, state)
	require.NoError(t, b.Close())

	b, err = Open(path)
	require.NoError(t, err)
	defer b.Close()
	a = storage.NewAdapter(b, nil, models.DefaultThresholds())

	assert.Equal(t, 4, a.Load(ctx, models.DefaultScope).TotalRedirections)
}

func TestMigrateIdempotent(t *testing.T) {
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, Migrate(b.db))

	var n int
	require.NoError(t, b.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}
