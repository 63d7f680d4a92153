package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/sqlite/migrations"
)

// Ensure Store implements the interface.
var _ core.ProductStore = (*Store)(nil)

// Store is a SQLite-backed product store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
// The parent directory is created if needed. ":memory:" opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every *.up.sql file newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== Products ====================

const productColumns = "id, name, price, created_at, updated_at"

func (s *Store) Save(ctx context.Context, rec core.Record) (core.StoredProduct, error) {
	now := time.Now().UTC()
	p := core.StoredProduct{
		ID:        uuid.NewString(),
		Name:      rec.Name(),
		Price:     rec.Price(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Price, now.UnixNano(), now.UnixNano())
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, rec core.Record) (core.StoredProduct, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET name = ?, price = ?, updated_at = ? WHERE id = ? RETURNING "+productColumns,
		rec.Name(), rec.Price(), time.Now().UTC().UnixNano(), id)

	p, err := scanProduct(row)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.StoredProduct, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)

	p, err := scanProduct(row)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// List returns products in insertion order.
func (s *Store) List(ctx context.Context) ([]core.StoredProduct, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY rowid")
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
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (core.StoredProduct, error) {
	var (
		p                    core.StoredProduct
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.StoredProduct{}, core.ErrNotFound
		}
		return core.StoredProduct{}, err
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return p, nil
}

// ==================== Runs ====================

func (s *Store) SaveRun(ctx context.Context, run core.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, input, output, reject_log, threshold,
			total_lines, accepted, rejected, filtered, persisted,
			persist_failures, sink_failures, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Input, run.Output, run.RejectLog, run.Threshold,
		run.Summary.TotalLines, run.Summary.Accepted, run.Summary.Rejected,
		run.Filtered, run.Persisted, run.PersistFailures, run.SinkFailures,
		run.StartedAt.UnixNano(), int64(run.Duration),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, output, reject_log, threshold,
			total_lines, accepted, rejected, filtered, persisted,
			persist_failures, sink_failures, started_at, duration_ns
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.RunSummary, 0)
	for rows.Next() {
		var (
			r                   core.RunSummary
			startedAt, duration int64
		)
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &r.RejectLog, &r.Threshold,
			&r.Summary.TotalLines, &r.Summary.Accepted, &r.Summary.Rejected,
			&r.Filtered, &r.Persisted, &r.PersistFailures, &r.SinkFailures,
			&startedAt, &duration); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Duration = time.Duration(duration)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
