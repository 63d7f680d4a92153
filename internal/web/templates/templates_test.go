package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/core"
)

func TestRunHistory(t *testing.T) {
	runs := []core.RunSummary{{
		Input:     "<script>.csv",
		Threshold: 1000,
		Summary:   core.BatchSummary{TotalLines: 20, Accepted: 14, Rejected: 6},
		Filtered:  3,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}}

	var buf bytes.Buffer
	require.NoError(t, RunHistory(runs).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "<title>Ingestion runs</title>")
	assert.Contains(t, out, "&lt;script&gt;.csv")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "70.0%")
	assert.Contains(t, out, "2026-03-01T12:00:00Z")
	assert.Contains(t, out, "1.5s")
}

func TestRunTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunTable(nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No runs recorded yet.")
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Product not found", "Check the product id", "DB001").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Product not found")
	assert.Contains(t, buf.String(), "Code: DB001")
}

func TestErrorAlert_EscapesAndOmitsEmptyAction(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert(`<b>"bad"</b>`, "", "ERR000").Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "&lt;b&gt;&#34;bad&#34;&lt;/b&gt;")
	assert.Equal(t, 1, strings.Count(out, "<p>"))
}
