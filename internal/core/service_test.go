package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStore is a minimal ProductStore for service tests.
type fakeStore struct {
	mu       sync.Mutex
	products map[string]StoredProduct
	runs     []RunSummary
	nextID   int
	failSave func(Record) error
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[string]StoredProduct)}
}

func (s *fakeStore) Save(_ context.Context, rec Record) (StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSave != nil {
		if err := s.failSave(rec); err != nil {
			return StoredProduct{}, err
		}
	}
	s.nextID++
	p := StoredProduct{ID: fmt.Sprint(s.nextID), Name: rec.Name(), Price: rec.Price(), CreatedAt: time.Now()}
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeStore) Update(_ context.Context, id string, rec Record) (StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return StoredProduct{}, ErrNotFound
	}
	p.Name, p.Price, p.UpdatedAt = rec.Name(), rec.Price(), time.Now()
	s.products[id] = p
	return p, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return StoredProduct{}, ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) List(context.Context) ([]StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredProduct, 0, len(s.products))
	for i := 1; i <= s.nextID; i++ {
		if p, ok := s.products[fmt.Sprint(i)]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *fakeStore) SaveRun(_ context.Context, run RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	return append([]RunSummary(nil), s.runs[len(s.runs)-limit:]...), nil
}

func (s *fakeStore) Close() error { return nil }

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "products.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func runRequest(dir, input string) RunRequest {
	return RunRequest{
		Input:     input,
		Output:    filepath.Join(dir, "expensive_products.csv"),
		RejectLog: filepath.Join(dir, "invalid_products.csv"),
		Threshold: DefaultThreshold,
	}
}

func TestServiceRun(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	svc := NewService(store, slog.New(slog.DiscardHandler))

	req := runRequest(dir, writeInput(t, dir, mixedInput))
	req.Persist = true
	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Summary != (BatchSummary{TotalLines: 20, Accepted: 14, Rejected: 6}) {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if report.Persisted != 14 || report.PersistFailures != 0 {
		t.Errorf("Persisted = %d, PersistFailures = %d, want 14 and 0", report.Persisted, report.PersistFailures)
	}
	if report.OutputErr != nil || report.CloseErr != nil {
		t.Errorf("OutputErr = %v, CloseErr = %v", report.OutputErr, report.CloseErr)
	}

	out, err := os.ReadFile(req.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	wantOut := "Name,Price\nLaptop,1299.99\nServer,5000\n"
	if string(out) != wantOut {
		t.Errorf("output = %q, want %q", out, wantOut)
	}
	if report.RunSummary.Filtered != 2 || len(report.Filtered) != 2 {
		t.Errorf("filtered = %d/%d, want 2", report.RunSummary.Filtered, len(report.Filtered))
	}

	rejects, err := os.ReadFile(req.RejectLog)
	if err != nil {
		t.Fatalf("read rejection log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(rejects), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("rejection log has %d lines, want header + 6:\n%s", len(lines), rejects)
	}
	if lines[0] != RejectionLogHeader {
		t.Errorf("rejection log header = %q", lines[0])
	}
	if want := `9,"Gadget,abc","MALFORMED_PRICE: Invalid price format: 'abc'"`; lines[3] != want {
		t.Errorf("rejection log line = %q, want %q", lines[3], want)
	}

	if len(store.runs) != 1 || store.runs[0].ID != report.ID {
		t.Errorf("run history = %+v, want the report's run", store.runs)
	}
}

func TestServiceRunRecreatesRejectLog(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil, slog.New(slog.DiscardHandler))
	req := runRequest(dir, writeInput(t, dir, header+"bad\n"))

	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), req); err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
	}

	rejects, err := os.ReadFile(req.RejectLog)
	if err != nil {
		t.Fatalf("read rejection log: %v", err)
	}
	if got := strings.Count(string(rejects), RejectionLogHeader); got != 1 {
		t.Errorf("rejection log written %d times, want recreated once per run:\n%s", got, rejects)
	}
}

func TestServiceRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil, slog.New(slog.DiscardHandler))
	req := runRequest(dir, filepath.Join(dir, "nope.csv"))

	report, err := svc.Run(context.Background(), req)
	if !errors.Is(err, ErrInputUnreadable) {
		t.Fatalf("Run() error = %v, want ErrInputUnreadable", err)
	}
	if report != nil {
		t.Errorf("Run() report = %+v, want nil", report)
	}
	for _, p := range []string{req.Output, req.RejectLog} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s exists after fatal run (stat err = %v)", p, err)
		}
	}
}

func TestServiceRunDegradedOutputs(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil, slog.New(slog.DiscardHandler))
	req := runRequest(dir, writeInput(t, dir, header+"Laptop,1299.99\nbroken\n"))
	req.Output = filepath.Join(dir, "missing-dir", "out.csv")
	req.RejectLog = filepath.Join(dir, "missing-dir", "rejects.csv")

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v, want degraded success", err)
	}
	if report.Summary.Accepted != 1 || report.Summary.Rejected != 1 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if report.OutputErr == nil {
		t.Error("OutputErr = nil, want create failure")
	}
	// header plus one entry
	if report.SinkFailures != 2 {
		t.Errorf("SinkFailures = %d, want 2", report.SinkFailures)
	}
}

func TestServiceRunPersistFailures(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	store.failSave = func(rec Record) error {
		if rec.Name() == "Mouse" {
			return errors.New("connection reset by peer")
		}
		return nil
	}
	svc := NewService(store, slog.New(slog.DiscardHandler))
	req := runRequest(dir, writeInput(t, dir, header+"Laptop,1299.99\nMouse,25\nDesk,450\n"))
	req.Persist = true

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Persisted != 2 || report.PersistFailures != 1 {
		t.Errorf("Persisted = %d, PersistFailures = %d, want 2 and 1", report.Persisted, report.PersistFailures)
	}
	if report.Summary.Accepted != 3 {
		t.Errorf("persist failure changed the batch: %+v", report.Summary)
	}
}

func TestServiceProducts(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, slog.New(slog.DiscardHandler))

	p, err := svc.CreateProduct(ctx, []string{" Laptop ", "1299.99"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if p.Name != "Laptop" || p.Price != 1299.99 {
		t.Errorf("CreateProduct() = %+v", p)
	}

	_, err = svc.CreateProduct(ctx, []string{"Laptop", "-1"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Code != ReasonNegativePrice {
		t.Errorf("CreateProduct(negative) error = %v, want NEGATIVE_PRICE", err)
	}
	if store.saves != 1 {
		t.Errorf("store saw %d saves, want invalid input rejected before storage", store.saves)
	}

	updated, err := svc.UpdateProduct(ctx, p.ID, []string{"Laptop Pro", "1999"})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.Name != "Laptop Pro" || updated.Price != 1999 {
		t.Errorf("UpdateProduct() = %+v", updated)
	}

	if _, err := svc.UpdateProduct(ctx, "missing", []string{"X", "1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct(missing) error = %v, want ErrNotFound", err)
	}

	list, err := svc.ListProducts(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProducts() = %v, %v", list, err)
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if _, err := svc.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, []string{"Laptop", "1"}); !errors.Is(err, ErrNoStore) {
		t.Errorf("CreateProduct() error = %v, want ErrNoStore", err)
	}
	if _, err := svc.CreateProduct(ctx, []string{"", "1"}); !errors.As(err, new(*ValidationError)) {
		t.Errorf("CreateProduct(empty name) error = %v, want validation before store check", err)
	}
	if _, err := svc.ListRuns(ctx, 10); !errors.Is(err, ErrNoStore) {
		t.Errorf("ListRuns() error = %v, want ErrNoStore", err)
	}
}

func TestServiceCheckLine(t *testing.T) {
	svc := NewService(nil, nil)

	tests := []struct {
		line     string
		accepted bool
		code     ReasonCode
	}{
		{line: "Widget,49.99", accepted: true},
		{line: ",199.99", code: ReasonEmptyName},
		{line: "Rare,2000000", code: ReasonPriceOutOfRange},
		{line: "  ", code: ReasonEmptyLine},
		{line: "only", code: ReasonInsufficientFields},
	}

	for _, tt := range tests {
		got := svc.CheckLine(tt.line)
		if got.Accepted != tt.accepted || got.Code != tt.code {
			t.Errorf("CheckLine(%q) = %+v, want accepted=%v code=%s", tt.line, got, tt.accepted, tt.code)
		}
	}
}
