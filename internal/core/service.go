package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoStore is returned by product operations when the service has no store.
var ErrNoStore = errors.New("no product store configured")

// Service provides the core business logic for ingestion runs and product management.
type Service struct {
	store    ProductStore
	logger   *slog.Logger
	pipeline Pipeline
}

// NewService creates a new Service. store may be nil, in which case runs are
// not persisted and product operations return ErrNoStore.
func NewService(store ProductStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		logger:   logger,
		pipeline: Pipeline{Logger: logger},
	}
}

// RunRequest describes one file-to-file run.
type RunRequest struct {
	Input     string  // CSV to ingest
	Output    string  // receives records priced above Threshold
	RejectLog string  // recreated on every run
	Threshold float64 // strict lower bound for Output
	Persist   bool    // save accepted records to the store
}

// RunReport is the outcome of a run that read its input to the end.
type RunReport struct {
	RunSummary
	Accepted []Record
	Filtered []Record
	Rejected []Rejection

	// OutputErr is set when the output file could not be written completely.
	OutputErr error
	// CloseErr holds handle close failures. They do not affect the data outcome.
	CloseErr error
}

// Run ingests req.Input, logs rejections to req.RejectLog and writes the
// records priced above req.Threshold to req.Output.
//
// The only error returned wraps ErrInputUnreadable: the input could not be
// opened or read and no report exists. Every other problem (rejection log,
// output file, store, closing handles) is logged as a warning and recorded
// on the report.
func (s *Service) Run(ctx context.Context, req RunRequest) (report *RunReport, err error) {
	started := time.Now()
	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID, "input", req.Input)

	guard := NewResourceGuard(logger)
	defer func() {
		closeErr := guard.Close()
		if report != nil {
			report.CloseErr = closeErr
		}
	}()

	in, err := guard.Open(req.Input)
	if err != nil {
		logger.Error("cannot open input", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}

	rejectLog, err := guard.Create(req.RejectLog)
	if err != nil {
		logger.Warn("rejection log unavailable, rejections will not be recorded", "path", req.RejectLog, "error", err)
		rejectLog = nil
	}
	var sink *CSVRejectionSink
	if rejectLog != nil {
		sink = NewCSVRejectionSink(rejectLog, logger)
	} else {
		sink = NewCSVRejectionSink(failingWriter{err: err}, logger)
	}

	p := s.pipeline
	p.Logger = logger
	batch, err := p.Run(in, sink)
	if err != nil {
		logger.Error("input read failed", "error", err)
		return nil, err
	}

	report = &RunReport{
		RunSummary: RunSummary{
			ID:           runID,
			Input:        req.Input,
			Output:       req.Output,
			RejectLog:    req.RejectLog,
			Threshold:    req.Threshold,
			Summary:      batch.Summary,
			SinkFailures: sink.Failures(),
			StartedAt:    started.UTC(),
		},
		Accepted: batch.Accepted,
		Rejected: batch.Rejected,
	}

	if req.Persist {
		s.persist(ctx, logger, report)
	}

	report.Filtered = FilterByThreshold(batch.Accepted, req.Threshold)
	report.RunSummary.Filtered = len(report.Filtered)
	if err := s.writeOutput(guard, req.Output, report.Filtered); err != nil {
		logger.Warn("output file incomplete", "path", req.Output, "error", err)
		report.OutputErr = err
	}

	report.Duration = time.Since(started)
	if s.store != nil {
		if err := s.store.SaveRun(ctx, report.RunSummary); err != nil {
			logger.Warn("could not record run history", "error", err)
		}
	}

	logger.Info("run complete",
		"accepted", report.Summary.Accepted,
		"rejected", report.Summary.Rejected,
		"filtered", report.RunSummary.Filtered,
		"persisted", report.Persisted,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// persist saves accepted records one by one. A failed save is a warning.
func (s *Service) persist(ctx context.Context, logger *slog.Logger, report *RunReport) {
	if s.store == nil {
		logger.Warn("persistence requested but no store is configured")
		report.PersistFailures = len(report.Accepted)
		return
	}
	for _, rec := range report.Accepted {
		if _, err := s.store.Save(ctx, rec); err != nil {
			report.PersistFailures++
			logger.Warn("could not persist record", "name", rec.Name(), "error", err)
			continue
		}
		report.Persisted++
	}
}

func (s *Service) writeOutput(guard *ResourceGuard, path string, records []Record) error {
	out, err := guard.Create(path)
	if err != nil {
		return err
	}
	return WriteRecordsCSV(out, records)
}

// failingWriter stands in for a log file that could not be created, so every
// entry is still reported as a failed write.
type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

// CheckResult is the classification of a single line.
type CheckResult struct {
	Accepted bool       `json:"accepted"`
	Name     string     `json:"name,omitempty"`
	Price    float64    `json:"price,omitempty"`
	Code     ReasonCode `json:"code,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

// CheckLine classifies one raw data line exactly as a run would.
func (s *Service) CheckLine(line string) CheckResult {
	if strings.TrimSpace(line) == "" {
		return CheckResult{Code: ReasonEmptyLine, Detail: "Empty line"}
	}
	rec, rej := processLine(RawLine{Number: 1, Text: line}, SplitFields, Validate)
	if rej != nil {
		return CheckResult{Code: rej.Code, Detail: rej.Detail}
	}
	return CheckResult{Accepted: true, Name: rec.Name(), Price: rec.Price()}
}

// CreateProduct validates name/price fields and saves the record.
// Validation runs before the store is touched.
func (s *Service) CreateProduct(ctx context.Context, fields []string) (StoredProduct, error) {
	rec, err := Validate(fields)
	if err != nil {
		return StoredProduct{}, err
	}
	if s.store == nil {
		return StoredProduct{}, ErrNoStore
	}
	p, err := s.store.Save(ctx, rec)
	if err != nil {
		return StoredProduct{}, fmt.Errorf("save product: %w", err)
	}
	auditLogger(ctx, s.logger).Info("product created", "id", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProduct validates name/price fields and replaces the stored product.
func (s *Service) UpdateProduct(ctx context.Context, id string, fields []string) (StoredProduct, error) {
	rec, err := Validate(fields)
	if err != nil {
		return StoredProduct{}, err
	}
	if s.store == nil {
		return StoredProduct{}, ErrNoStore
	}
	p, err := s.store.Update(ctx, id, rec)
	if err != nil {
		return StoredProduct{}, fmt.Errorf("update product %s: %w", id, err)
	}
	auditLogger(ctx, s.logger).Info("product updated", "id", p.ID, "name", p.Name)
	return p, nil
}

// GetProduct returns one stored product.
func (s *Service) GetProduct(ctx context.Context, id string) (StoredProduct, error) {
	if s.store == nil {
		return StoredProduct{}, ErrNoStore
	}
	return s.store.Get(ctx, id)
}

// ListProducts returns all stored products in creation order.
func (s *Service) ListProducts(ctx context.Context) ([]StoredProduct, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx)
}

// DeleteProduct removes a stored product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	auditLogger(ctx, s.logger).Info("product deleted", "id", id)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListRuns(ctx, limit)
}
