// Package templates holds the templ components served by the web package.
//
// Edit the .templ files and regenerate with `templ generate`; the
// *_templ.go files are generated output.
package templates

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/priceingest/internal/core"
)

func startedAt(r core.RunSummary) string {
	return r.StartedAt.Format(time.RFC3339)
}

func successRate(r core.RunSummary) string {
	return fmt.Sprintf("%.1f%%", r.Summary.SuccessRate())
}

func threshold(r core.RunSummary) string {
	return strconv.FormatFloat(r.Threshold, 'f', -1, 64)
}

func duration(r core.RunSummary) string {
	return r.Duration.Round(time.Millisecond).String()
}
