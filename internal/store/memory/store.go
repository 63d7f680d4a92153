// Package memory provides an in-process ProductStore. Data lives for the
// lifetime of the process only.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// Ensure Store implements the interface.
var _ core.ProductStore = (*Store)(nil)

// Store keeps products in a map and remembers insertion order.
type Store struct {
	mu       sync.RWMutex
	products map[string]core.StoredProduct
	order    []string
	runs     []core.RunSummary
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		products: make(map[string]core.StoredProduct),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Save(ctx context.Context, rec core.Record) (core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredProduct{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := core.StoredProduct{
		ID:        uuid.NewString(),
		Name:      rec.Name(),
		Price:     rec.Price(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, rec core.Record) (core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredProduct{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return core.StoredProduct{}, core.ErrNotFound
	}
	p.Name = rec.Name()
	p.Price = rec.Price()
	p.UpdatedAt = s.now()
	s.products[id] = p
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredProduct{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return core.StoredProduct{}, core.ErrNotFound
	}
	return p, nil
}

// List returns products in insertion order.
func (s *Store) List(ctx context.Context) ([]core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.StoredProduct, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.products, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run core.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, run)
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.RunSummary, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
