package core

import (
	"bytes"
	"reflect"
	"testing"
)

func mustRecord(t *testing.T, name string, price float64) Record {
	t.Helper()
	rec, err := NewRecord(name, price)
	if err != nil {
		t.Fatalf("NewRecord(%q, %v) error = %v", name, price, err)
	}
	return rec
}

func TestFilterByThreshold(t *testing.T) {
	records := []Record{
		mustRecord(t, "Laptop", 1299.99),
		mustRecord(t, "Mouse", 25.5),
		mustRecord(t, "Exact", 1000),
		mustRecord(t, "Server", 5000),
	}
	before := append([]Record(nil), records...)

	tests := []struct {
		name      string
		threshold float64
		want      []string
	}{
		{name: "default threshold is strict", threshold: DefaultThreshold, want: []string{"Laptop", "Server"}},
		{name: "zero keeps positive prices", threshold: 0, want: []string{"Laptop", "Mouse", "Exact", "Server"}},
		{name: "above everything", threshold: 10_000, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByThreshold(records, tt.threshold)
			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.Name())
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("FilterByThreshold(%v) = %v, want %v", tt.threshold, names, tt.want)
			}
		})
	}

	if !reflect.DeepEqual(records, before) {
		t.Error("FilterByThreshold modified its input")
	}
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{
		mustRecord(t, "Laptop", 1299.99),
		mustRecord(t, "Desk, Oak", 450),
	}

	if err := WriteRecordsCSV(&buf, records); err != nil {
		t.Fatalf("WriteRecordsCSV() error = %v", err)
	}

	want := "Name,Price\nLaptop,1299.99\n\"Desk, Oak\",450\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteRecordsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteRecordsCSV() error = %v", err)
	}
	if buf.String() != "Name,Price\n" {
		t.Errorf("output = %q, want header only", buf.String())
	}
}
