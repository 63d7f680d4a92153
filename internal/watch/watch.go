// Package watch runs the ingestion pipeline on CSV files dropped into an
// inbox directory.
//
// Files present at start are processed first, then new or rewritten files
// once they have been quiet for the debounce interval. All runs happen on the
// watcher's goroutine, one at a time. A processed file is moved to
// <inbox>/processed; a file whose run fails fatally stays where it is.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// ProcessedDir is the inbox subdirectory that receives finished inputs.
const ProcessedDir = "processed"

// Output file suffixes. Inbox files carrying them are never treated as input.
const (
	AboveThresholdSuffix = " - above-threshold.csv"
	RejectedSuffix       = " - rejected.csv"
)

// ErrOutDirIsInbox is returned by Run when results would be written into the
// watched directory.
var ErrOutDirIsInbox = errors.New("watch: output directory must differ from the inbox")

// Runner executes one ingestion run. *core.Service implements it.
type Runner interface {
	Run(ctx context.Context, req core.RunRequest) (*core.RunReport, error)
}

// Options configures a Watcher.
type Options struct {
	Inbox     string
	OutDir    string
	Threshold float64
	Persist   bool
	Debounce  time.Duration
}

// Watcher feeds inbox files to a Runner.
type Watcher struct {
	runner Runner
	opts   Options
	logger *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a Watcher. A nil logger uses slog.Default.
func New(runner Runner, opts Options, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		runner: runner,
		opts:   opts,
		logger: logger.With("component", "watch", "inbox", opts.Inbox),
	}
}

// Processed returns the number of files that completed a run.
func (w *Watcher) Processed() int64 { return w.processed.Load() }

// Failed returns the number of runs that ended with a fatal error.
func (w *Watcher) Failed() int64 { return w.failed.Load() }

// OutputPaths returns the file names for the records above the threshold and
// for the rejection log of an input.
func OutputPaths(outDir, input string) (aboveThreshold, rejected string) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+AboveThresholdSuffix), filepath.Join(outDir, base+RejectedSuffix)
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if filepath.Clean(w.opts.Inbox) == filepath.Clean(w.opts.OutDir) {
		return ErrOutDirIsInbox
	}
	for _, dir := range []string{w.opts.Inbox, filepath.Join(w.opts.Inbox, ProcessedDir), w.opts.OutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Inbox); err != nil {
		return fmt.Errorf("watching %s: %w", w.opts.Inbox, err)
	}

	w.logger.Info("watching inbox", "out_dir", w.opts.OutDir, "debounce", w.opts.Debounce)

	existing, err := w.existing()
	if err != nil {
		return err
	}
	for _, path := range existing {
		if ctx.Err() != nil {
			return nil
		}
		w.process(ctx, path)
	}

	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.tickInterval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				pending[event.Name] = time.Now().Add(w.opts.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case now := <-tick.C:
			for _, path := range due(pending, now) {
				delete(pending, path)
				if ctx.Err() != nil {
					return nil
				}
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) tickInterval() time.Duration {
	interval := w.opts.Debounce / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// due returns the pending paths whose quiet period has passed, sorted.
func due(pending map[string]time.Time, now time.Time) []string {
	var paths []string
	for path, deadline := range pending {
		if !now.Before(deadline) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// existing lists the CSV files already in the inbox.
func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.opts.Inbox)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && isInput(e.Name()) {
			paths = append(paths, filepath.Join(w.opts.Inbox, e.Name()))
		}
	}
	return paths, nil
}

// relevant reports whether an event should (re)schedule a run.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return isInput(event.Name)
}

// isInput reports whether name is a CSV file that is not a run output.
func isInput(name string) bool {
	base := filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(base), ".csv") {
		return false
	}
	return !strings.HasSuffix(base, AboveThresholdSuffix) && !strings.HasSuffix(base, RejectedSuffix)
}

// process runs one file and moves it to the processed directory.
func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		// Moved or deleted while pending.
		return
	}

	output, rejected := OutputPaths(w.opts.OutDir, path)
	report, err := w.runner.Run(ctx, core.RunRequest{
		Input:     path,
		Output:    output,
		RejectLog: rejected,
		Threshold: w.opts.Threshold,
		Persist:   w.opts.Persist,
	})
	if err != nil {
		w.failed.Add(1)
		w.logger.Error("run failed, file left in inbox", "file", path, "error", err)
		return
	}

	dest := filepath.Join(w.opts.Inbox, ProcessedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("could not move processed file", "file", path, "error", err)
	}

	w.processed.Add(1)
	w.logger.Info("file processed",
		"file", filepath.Base(path),
		"accepted", report.Summary.Accepted,
		"rejected", report.Summary.Rejected,
		"output", output,
	)
}
