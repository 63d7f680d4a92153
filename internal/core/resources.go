package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ResourceGuard owns every file handle of a run and releases them together.
// Use it with defer so handles are closed on every exit path:
//
//	guard := core.NewResourceGuard(logger)
//	defer guard.Close()
//	in, err := guard.Open(path)
type ResourceGuard struct {
	logger *slog.Logger

	mu      sync.Mutex
	handles []guardedHandle
	closed  bool
}

type guardedHandle struct {
	name   string
	closer io.Closer
}

// NewResourceGuard creates an empty guard. A nil logger uses slog.Default.
func NewResourceGuard(logger *slog.Logger) *ResourceGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceGuard{logger: logger}
}

// Track registers c to be closed by Close. Tracking after Close closes c
// immediately so nothing leaks.
func (g *ResourceGuard) Track(name string, c io.Closer) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.closeOne(guardedHandle{name: name, closer: c})
		return
	}
	g.handles = append(g.handles, guardedHandle{name: name, closer: c})
	g.mu.Unlock()
}

// Open opens path for reading and tracks the handle.
func (g *ResourceGuard) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	g.Track(path, f)
	return f, nil
}

// Create creates or truncates path and tracks the handle.
func (g *ResourceGuard) Create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	g.Track(path, f)
	return f, nil
}

// Close closes every tracked handle exactly once, most recent first.
// A failing handle is logged as a warning and does not stop the others.
// The joined close errors are returned for callers that want them; later
// calls return nil.
func (g *ResourceGuard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()

	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := g.closeOne(handles[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *ResourceGuard) closeOne(h guardedHandle) error {
	if err := h.closer.Close(); err != nil {
		g.logger.Warn("error closing resource", "resource", h.name, "error", err)
		return fmt.Errorf("close %s: %w", h.name, err)
	}
	g.logger.Debug("resource closed", "resource", h.name)
	return nil
}
