package core

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// RejectionLogHeader is the first line of every rejection log.
const RejectionLogHeader = "Line,Data,Error"

// RejectionSink receives rejections in input order.
// Record never fails from the caller's point of view: a sink that cannot
// persist an entry reports it to the operator itself.
type RejectionSink interface {
	Record(rej Rejection)
}

// CSVRejectionSink appends rejections to a CSV log. Each entry is handed to
// the writer in a single Write before the next line is processed, and a failed
// entry does not affect the ones after it.
type CSVRejectionSink struct {
	w        io.Writer
	logger   *slog.Logger
	failures int
}

// NewCSVRejectionSink writes the log header to w and returns the sink.
// A header write failure is counted and warned like any entry failure.
func NewCSVRejectionSink(w io.Writer, logger *slog.Logger) *CSVRejectionSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CSVRejectionSink{w: w, logger: logger}
	s.write(RejectionLogHeader+"\n", 0)
	return s
}

// Record appends one entry: line number, quoted raw text, quoted reason.
func (s *CSVRejectionSink) Record(rej Rejection) {
	entry := fmt.Sprintf("%d,%s,%s\n", rej.Line, quoteField(rej.Raw), quoteField(reasonText(rej)))
	s.write(entry, rej.Line)
}

// Failures returns how many entries could not be written.
func (s *CSVRejectionSink) Failures() int {
	return s.failures
}

func (s *CSVRejectionSink) write(entry string, line int) {
	if _, err := io.WriteString(s.w, entry); err != nil {
		s.warn(err, line)
	}
}

func (s *CSVRejectionSink) warn(err error, line int) {
	s.failures++
	s.logger.Warn("could not write rejection log entry", "line", line, "error", err)
}

// MemorySink keeps rejections in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []Rejection
}

// Record implements RejectionSink.
func (s *MemorySink) Record(rej Rejection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, rej)
}

// Entries returns a copy of the recorded rejections.
func (s *MemorySink) Entries() []Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Rejection, len(s.entries))
	copy(out, s.entries)
	return out
}

// quoteField wraps s in double quotes and doubles any quote inside it.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func reasonText(rej Rejection) string {
	if rej.Detail == "" {
		return string(rej.Code)
	}
	return string(rej.Code) + ": " + rej.Detail
}
