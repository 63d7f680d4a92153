package core

// validation.go turns raw field strings into Records.
//
// Rules are checked in a fixed order and the first failure wins:
//  1. at least two fields
//  2. non-empty name
//  3. price is a finite decimal
//  4. price is not negative
//  5. price is not above MaxPrice
//
// Failures are returned as *ValidationError values, never panics, so callers
// can branch on the Code without string matching.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ValidationError describes why fields could not become a Record.
type ValidationError struct {
	Code   ReasonCode
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func invalid(code ReasonCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// NewRecord builds a Record from a name and a parsed price.
// The name is trimmed. Returns a *ValidationError if the values break a domain rule.
func NewRecord(name string, price float64) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, invalid(ReasonEmptyName, "Product name is empty")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Record{}, invalid(ReasonMalformedPrice, "Price is not a finite number")
	}
	if price < 0 {
		return Record{}, invalid(ReasonNegativePrice, "Product price cannot be negative: %s", formatPrice(price))
	}
	if price > MaxPrice {
		return Record{}, invalid(ReasonPriceOutOfRange, "Product price seems unreasonably high: %s", formatPrice(price))
	}
	if price == 0 {
		price = 0 // drop negative zero
	}
	return Record{name: name, price: price}, nil
}

// Validate converts split fields into a Record.
// Fields beyond the second are ignored.
func Validate(fields []string) (Record, error) {
	// A trailing empty field counts: "Null Price," has two fields and
	// fails on its price.
	if len(fields) < 2 {
		return Record{}, invalid(ReasonInsufficientFields,
			"Insufficient data fields (expected 2, got %d)", len(fields))
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return Record{}, invalid(ReasonEmptyName, "Product name is empty")
	}

	price, err := ParsePrice(fields[1])
	if err != nil {
		return Record{}, err
	}

	return NewRecord(name, price)
}

// ParsePrice parses a trimmed decimal price.
// Currency symbols, thousands separators, hex floats, NaN and Inf are all rejected.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if !numericRegex.MatchString(s) {
		return 0, invalid(ReasonMalformedPrice, "Invalid price format: '%s'", s)
	}

	price, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(price, 0) {
		return 0, invalid(ReasonMalformedPrice, "Invalid price format: '%s'", s)
	}
	return price, nil
}

// formatPrice renders a price as a plain decimal with no currency formatting.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
