// Package storetest holds the behaviour every core.ProductStore must share.
// Each store package runs it against its own implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) core.ProductStore

// Run executes the full suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Runs", func(t *testing.T) { testRuns(t, newStore(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, newStore(t)) })
}

func record(t *testing.T, name string, price float64) core.Record {
	t.Helper()
	rec, err := core.NewRecord(name, price)
	require.NoError(t, err)
	return rec
}

func closeStore(t *testing.T, s core.ProductStore) {
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
}

func testSaveAndGet(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()

	saved, err := s.Save(ctx, record(t, "Laptop", 1299.99))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Laptop", saved.Name)
	assert.Equal(t, 1299.99, saved.Price)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, 1299.99, got.Price)
	assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Second)
}

func testListOrder(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"Laptop", "Mouse", "Keyboard"} {
		_, err := s.Save(ctx, record(t, name, 10))
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Laptop", list[0].Name)
	assert.Equal(t, "Mouse", list[1].Name)
	assert.Equal(t, "Keyboard", list[2].Name)
}

func testUpdate(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()

	saved, err := s.Save(ctx, record(t, "Desk", 450))
	require.NoError(t, err)

	updated, err := s.Update(ctx, saved.ID, record(t, "Standing Desk", 650.5))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "Standing Desk", updated.Name)
	assert.Equal(t, 650.5, updated.Price)
	assert.False(t, updated.UpdatedAt.Before(saved.UpdatedAt))

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standing Desk", got.Name)
}

func testDelete(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()

	a, err := s.Save(ctx, record(t, "A", 1))
	require.NoError(t, err)
	b, err := s.Save(ctx, record(t, "B", 2))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func testNotFound(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	_, err := s.Get(ctx, missing)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Update(ctx, missing, record(t, "X", 1))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, missing), core.ErrNotFound)

	_, err = s.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testRuns(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222", "33333333-3333-3333-3333-333333333333"} {
		err := s.SaveRun(ctx, core.RunSummary{
			ID:        id,
			Input:     "products.csv",
			Output:    "expensive_products.csv",
			RejectLog: "invalid_products.csv",
			Threshold: 1000,
			Summary:   core.BatchSummary{TotalLines: 20, Accepted: 14, Rejected: 6},
			Filtered:  i,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", runs[0].ID)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", runs[1].ID)
	assert.Equal(t, core.BatchSummary{TotalLines: 20, Accepted: 14, Rejected: 6}, runs[0].Summary)
	assert.Equal(t, 2, runs[0].Filtered)
	assert.Equal(t, 1000.0, runs[0].Threshold)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Minute)))

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testConcurrent(t *testing.T, s core.ProductStore) {
	closeStore(t, s)
	ctx := context.Background()

	rec := record(t, "Widget", 5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := s.Save(ctx, rec)
				assert.NoError(t, err)
				_, err = s.List(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 40)
}
