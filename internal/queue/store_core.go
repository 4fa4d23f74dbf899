package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/services"
)

const component = "queue"

// Store manages content persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	schema content.Schema
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// classify maps driver failures onto the store error taxonomy. A database
// still busy after retries is locked by another writer.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isSQLiteBusy(err) {
		return services.Wrap(services.ErrStoreLocked, component, operation, "database is locked by another writer", err)
	}
	return services.Wrap(nil, component, operation, "sqlite query failed", err)
}

// Open initializes or connects to the configured content database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Store.DatabasePath, content.SchemaFromConfig(cfg), logger)
}

// OpenPath opens the database at dbPath, creating it and its schema if needed.
func OpenPath(dbPath string, schema content.Schema, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "open", "database path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, component, "open", "create database directory", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, component, "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStoreUnavailable, component, "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		schema: schema,
		logger: logging.NewComponentLogger(logger, component),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStoreUnavailable, component, "open", "initialize schema", err)
	}

	return store, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
