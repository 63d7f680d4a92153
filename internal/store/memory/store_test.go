package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.ProductStore { return New() })
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := core.NewRecord("Laptop", 1)
	require.NoError(t, err)

	_, err = s.Save(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
