// Package storage provides the tenant-scoped document persistence layer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/rentbook/internal/metrics"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage owns the single database handle shared by every repository.
type SQLiteStorage struct {
	db      *sql.DB
	metrics *metrics.Metrics
	clock   func() time.Time
	dbPath  string
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithMetrics records repository operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SQLiteStorage) {
		s.metrics = m
	}
}

// WithClock overrides the time source used to stamp documents.
func WithClock(clock func() time.Time) Option {
	return func(s *SQLiteStorage) {
		s.clock = clock
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Metrics returns the metrics sink, which may be nil.
func (s *SQLiteStorage) Metrics() *metrics.Metrics {
	return s.metrics
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// now returns the current time in UTC without a monotonic reading.
func (s *SQLiteStorage) now() time.Time {
	return s.clock().UTC()
}
