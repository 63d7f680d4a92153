package core

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// ============================================================================
// Validation Benchmarks
// ============================================================================

// BenchmarkValidate benchmarks field validation across accepted and rejected shapes.
func BenchmarkValidate(b *testing.B) {
	testCases := [][]string{
		{"Laptop", "1299.99"},
		{"  Monitor ", " 399.99 "},
		{"Gadget", "abc"},
		{"Thing", "-5"},
		{"", "10"},
		{"Invalid Product"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			Validate(tc)
		}
	}
}

// BenchmarkParsePrice_Simple benchmarks the most common case: a plain decimal.
func BenchmarkParsePrice_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ParsePrice("1299.99")
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func generateInput(rows int) string {
	var sb strings.Builder
	sb.WriteString("Name,Price\n")
	for i := 0; i < rows; i++ {
		if i%10 == 0 {
			fmt.Fprintf(&sb, "Broken %d,abc\n", i)
			continue
		}
		fmt.Fprintf(&sb, "Product %d,%d.99\n", i, i%5000)
	}
	return sb.String()
}

// BenchmarkPipeline benchmarks a 10k line run with a discarding sink.
func BenchmarkPipeline(b *testing.B) {
	input := generateInput(10_000)
	p := Pipeline{Logger: slog.New(slog.DiscardHandler)}

	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink := NewCSVRejectionSink(io.Discard, p.Logger)
		if _, err := p.Run(strings.NewReader(input), sink); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFilterByThreshold benchmarks filtering 10k records.
func BenchmarkFilterByThreshold(b *testing.B) {
	records := make([]Record, 10_000)
	for i := range records {
		records[i] = Record{name: "p", price: float64(i % 3000)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FilterByThreshold(records, DefaultThreshold)
	}
}
