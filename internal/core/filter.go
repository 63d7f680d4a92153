package core

import (
	"encoding/csv"
	"fmt"
	"io"
)

// RecordsHeader is the header row of accepted/filtered output files.
var RecordsHeader = []string{"Name", "Price"}

// FilterByThreshold returns the records whose price is strictly greater than
// threshold, in their original order. records itself is never modified.
func FilterByThreshold(records []Record, threshold float64) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.price > threshold {
			out = append(out, r)
		}
	}
	return out
}

// WriteRecordsCSV writes a Name,Price header followed by one row per record.
// Prices are plain decimals with no currency formatting.
func WriteRecordsCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.name, formatPrice(r.price)}); err != nil {
			return fmt.Errorf("write record %q: %w", r.name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}
