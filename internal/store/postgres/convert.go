package postgres

// convert.go maps between domain values and pgtype values.
//
// Prices are NUMERIC in the database so they keep their decimal form. They
// go in through their shortest decimal string and come back as float64.

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgNumeric converts a price to pgtype.Numeric.
func ToPgNumeric(price float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(price, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{Valid: false}, fmt.Errorf("numeric %v: %w", price, err)
	}
	return n, nil
}

// NumericToFloat converts a pgtype.Numeric back to a price.
// NULL and NaN read as an error.
func NumericToFloat(n pgtype.Numeric) (float64, error) {
	if !n.Valid || n.NaN {
		return 0, fmt.Errorf("numeric is not a number")
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0, err
	}
	return f.Float64, nil
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// ToPgTimestamptz converts a time to pgtype.Timestamptz.
// The zero time is stored as NULL.
func ToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
