// Package postgres provides a PostgreSQL-backed core.ProductStore using a
// pgx connection pool. The schema is created on open if it does not exist.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/priceingest/internal/core"
)

// Ensure Store implements the interface.
var _ core.ProductStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    seq        BIGSERIAL,
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name       TEXT NOT NULL,
    price      NUMERIC NOT NULL CHECK (price >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_runs (
    id               UUID PRIMARY KEY,
    input            TEXT NOT NULL,
    output           TEXT NOT NULL,
    reject_log       TEXT NOT NULL,
    threshold        NUMERIC NOT NULL,
    total_lines      INTEGER NOT NULL,
    accepted         INTEGER NOT NULL,
    rejected         INTEGER NOT NULL,
    filtered         INTEGER NOT NULL,
    persisted        INTEGER NOT NULL,
    persist_failures INTEGER NOT NULL,
    sink_failures    INTEGER NOT NULL,
    started_at       TIMESTAMPTZ NOT NULL,
    duration_ms      BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs (started_at DESC);
`

// PoolOptions mirrors the pool settings of config.DatabaseConfig.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a PostgreSQL-backed product store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to url, verifies the connection and ensures the schema.
func Open(ctx context.Context, url string, opts PoolOptions) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s, err := New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool and ensures the schema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ----------------------------------------------------------------------------
// Products
// ----------------------------------------------------------------------------

const productColumns = "id, name, price, created_at, updated_at"

func (s *Store) Save(ctx context.Context, rec core.Record) (core.StoredProduct, error) {
	price, err := ToPgNumeric(rec.Price())
	if err != nil {
		return core.StoredProduct{}, err
	}

	row := s.pool.QueryRow(ctx,
		"INSERT INTO products (name, price) VALUES ($1, $2) RETURNING "+productColumns,
		rec.Name(), price)

	p, err := scanProduct(row)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, rec core.Record) (core.StoredProduct, error) {
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return core.StoredProduct{}, core.ErrNotFound
	}
	price, err := ToPgNumeric(rec.Price())
	if err != nil {
		return core.StoredProduct{}, err
	}

	row := s.pool.QueryRow(ctx,
		"UPDATE products SET name = $1, price = $2, updated_at = now() WHERE id = $3 RETURNING "+productColumns,
		rec.Name(), price, pgID)

	p, err := scanProduct(row)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.StoredProduct, error) {
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return core.StoredProduct{}, core.ErrNotFound
	}

	row := s.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", pgID)
	p, err := scanProduct(row)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// List returns products in insertion order.
func (s *Store) List(ctx context.Context) ([]core.StoredProduct, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := make([]core.StoredProduct, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return core.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", pgID)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// scanProduct scans a single products row. pgx.Row and pgx.Rows both qualify.
func scanProduct(row pgx.Row) (core.StoredProduct, error) {
	var (
		id                   pgtype.UUID
		name                 string
		price                pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &price, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.StoredProduct{}, core.ErrNotFound
		}
		return core.StoredProduct{}, err
	}

	f, err := NumericToFloat(price)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("price: %w", err)
	}

	return core.StoredProduct{
		ID:        PgUUIDToString(id),
		Name:      name,
		Price:     f,
		CreatedAt: createdAt.Time.UTC(),
		UpdatedAt: updatedAt.Time.UTC(),
	}, nil
}

// ----------------------------------------------------------------------------
// Runs
// ----------------------------------------------------------------------------

func (s *Store) SaveRun(ctx context.Context, run core.RunSummary) error {
	threshold, err := ToPgNumeric(run.Threshold)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ingest_runs (id, input, output, reject_log, threshold,
			total_lines, accepted, rejected, filtered, persisted,
			persist_failures, sink_failures, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		ToPgUUID(run.ID), run.Input, run.Output, run.RejectLog, threshold,
		run.Summary.TotalLines, run.Summary.Accepted, run.Summary.Rejected,
		run.Filtered, run.Persisted, run.PersistFailures, run.SinkFailures,
		ToPgTimestamptz(run.StartedAt), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	var limitArg pgtype.Int4
	if limit > 0 {
		limitArg = pgtype.Int4{Int32: int32(limit), Valid: true}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, input, output, reject_log, threshold,
			total_lines, accepted, rejected, filtered, persisted,
			persist_failures, sink_failures, started_at, duration_ms
		FROM ingest_runs ORDER BY started_at DESC LIMIT $1
	`, limitArg)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.RunSummary, 0)
	for rows.Next() {
		var (
			r          core.RunSummary
			id         pgtype.UUID
			threshold  pgtype.Numeric
			startedAt  pgtype.Timestamptz
			durationMs int64
		)
		if err := rows.Scan(&id, &r.Input, &r.Output, &r.RejectLog, &threshold,
			&r.Summary.TotalLines, &r.Summary.Accepted, &r.Summary.Rejected,
			&r.Filtered, &r.Persisted, &r.PersistFailures, &r.SinkFailures,
			&startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.Threshold, err = NumericToFloat(threshold); err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		r.ID = PgUUIDToString(id)
		r.StartedAt = startedAt.Time.UTC()
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
