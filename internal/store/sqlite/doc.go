// Package sqlite provides a SQLite-backed core.ProductStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. The database runs in WAL mode with a busy timeout, and all
// access goes through a single connection, so writes are serialised.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Applied versions are recorded in schema_migrations.
//
// Timestamps are stored as Unix nanoseconds so they sort numerically.
package sqlite
