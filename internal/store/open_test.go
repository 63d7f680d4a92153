package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/config"
	"github.com/JonMunkholm/priceingest/internal/store/memory"
	"github.com/JonMunkholm/priceingest/internal/store/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	for _, driver := range []string{"", "memory", "MEMORY"} {
		s, err := Open(context.Background(), config.DatabaseConfig{Driver: driver})
		require.NoError(t, err, driver)
		assert.IsType(t, &memory.Store{}, s)
		assert.NoError(t, s.Close())
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.db")

	s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer s.Close()

	require.IsType(t, &sqlite.Store{}, s)
	assert.Equal(t, path, s.(*sqlite.Store).Path())
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
