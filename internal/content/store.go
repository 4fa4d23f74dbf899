package content

import (
	"context"

	"quill/internal/config"
)

// Item is the next piece of content to publish.
type Item struct {
	// Ref identifies the row inside its store: the 1-based sheet row for
	// spreadsheet backends (the header occupies row 1), the row id for SQLite.
	Ref     int64
	Content string
}

// Row is a full table row, as shown by operator tooling.
type Row struct {
	Ref     int64
	Content string
	Status  string
}

// Store is the capability the poster loop needs from a content backend.
type Store interface {
	// NextPending returns the first pending row in table order, or nil when
	// none remain.
	NextPending(ctx context.Context) (*Item, error)
	// MarkDone sets the row's status to done and persists it before returning.
	// Marking an already-done row succeeds.
	MarkDone(ctx context.Context, ref int64) error
	Close() error
}

// Lister is implemented by stores that can enumerate every row.
type Lister interface {
	List(ctx context.Context) ([]Row, error)
}

// Schema is the column and sentinel contract a tabular store must satisfy.
type Schema struct {
	ContentColumn string
	StatusColumn  string
	PendingValue  string
	DoneValue     string
}

// SchemaFromConfig extracts the column contract from the store configuration.
func SchemaFromConfig(cfg *config.Config) Schema {
	return Schema{
		ContentColumn: cfg.Store.ContentColumn,
		StatusColumn:  cfg.Store.StatusColumn,
		PendingValue:  cfg.Store.PendingValue,
		DoneValue:     cfg.Store.DoneValue,
	}
}
