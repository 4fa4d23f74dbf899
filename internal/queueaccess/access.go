package queueaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/content/sheets"
	"quill/internal/content/workbook"
	"quill/internal/queue"
	"quill/internal/services"
)

// ErrAddUnsupported is returned when the backend is edited outside quill.
var ErrAddUnsupported = errors.New("adding content is only supported by the sqlite backend")

// Open returns the content store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (content.Store, error) {
	var (
		store content.Store
		err   error
	)
	switch cfg.Store.Backend {
	case config.BackendSheets:
		store, err = unwrap(sheets.Open(ctx, cfg, logger))
	case config.BackendWorkbook:
		store, err = unwrap(workbook.Open(cfg, logger))
	case config.BackendSQLite:
		store, err = unwrap(queue.Open(cfg, logger))
	default:
		err = services.Wrap(services.ErrConfiguration, "queueaccess", "open", fmt.Sprintf("unknown backend %q", cfg.Store.Backend), nil)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// unwrap keeps a failed constructor from leaking a typed nil into the interface.
func unwrap[S content.Store](store S, err error) (content.Store, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Access provides operator queries regardless of the backing store.
type Access interface {
	List(ctx context.Context) ([]content.Row, error)
	Stats(ctx context.Context) (map[string]int, error)
	Add(ctx context.Context, text string) (int64, error)
}

type adder interface {
	Add(ctx context.Context, text string) (int64, error)
}

type statser interface {
	Stats(ctx context.Context) (map[string]int, error)
}

// NewStoreAccess returns an Access backed by a content store.
func NewStoreAccess(store content.Store) Access {
	return &storeAccess{store: store}
}

type storeAccess struct {
	store content.Store
}

func (a *storeAccess) List(ctx context.Context) ([]content.Row, error) {
	lister, ok := a.store.(content.Lister)
	if !ok {
		return nil, fmt.Errorf("content store %T cannot list rows", a.store)
	}
	return lister.List(ctx)
}

// Stats prefers the store's own aggregate and otherwise tallies List.
// Statuses are trimmed so stray spaces do not split a bucket.
func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	if s, ok := a.store.(statser); ok {
		return s.Stats(ctx)
	}
	rows, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int)
	for _, row := range rows {
		stats[strings.TrimSpace(row.Status)]++
	}
	return stats, nil
}

func (a *storeAccess) Add(ctx context.Context, text string) (int64, error) {
	add, ok := a.store.(adder)
	if !ok {
		return 0, ErrAddUnsupported
	}
	return add.Add(ctx, text)
}
