package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/storetest"
)

// setupTestStore connects to PRICEINGEST_TEST_DATABASE_URL and empties the
// tables. The test is skipped when the variable is unset.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("PRICEINGEST_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PRICEINGEST_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, url, PoolOptions{MaxConns: 4})
	require.NoError(t, err)

	_, err = store.pool.Exec(ctx, "TRUNCATE products, ingest_runs")
	require.NoError(t, err)
	return store
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.ProductStore { return setupTestStore(t) })
}
