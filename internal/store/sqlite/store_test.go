package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/storetest"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "data", "priceingest.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.ProductStore { return setupTestStore(t) })
}

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priceingest.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)

	rec, err := core.NewRecord("Laptop", 1299.99)
	require.NoError(t, err)
	saved, err := first.Save(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	version, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	got, err := second.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, path, second.Path())
}

func TestOpen_InMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
