package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, price := range []float64{0, 0.01, 19.99, 1299.99, 5000, 1000000} {
		n, err := ToPgNumeric(price)
		require.NoError(t, err)
		assert.True(t, n.Valid)

		got, err := NumericToFloat(n)
		require.NoError(t, err)
		assert.Equal(t, price, got)
	}
}

func TestNumericToFloat_Invalid(t *testing.T) {
	_, err := NumericToFloat(pgtype.Numeric{})
	assert.Error(t, err)

	_, err = NumericToFloat(pgtype.Numeric{NaN: true, Valid: true})
	assert.Error(t, err)
}

func TestToPgUUID(t *testing.T) {
	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

	u := ToPgUUID(id)
	require.True(t, u.Valid)
	assert.Equal(t, id, PgUUIDToString(u))

	assert.False(t, ToPgUUID("").Valid)
	assert.False(t, ToPgUUID("not-a-uuid").Valid)
	assert.Equal(t, "", PgUUIDToString(pgtype.UUID{}))
}

func TestToPgTimestamptz(t *testing.T) {
	assert.False(t, ToPgTimestamptz(time.Time{}).Valid)

	now := time.Now()
	ts := ToPgTimestamptz(now)
	assert.True(t, ts.Valid)
	assert.True(t, ts.Time.Equal(now))
}
