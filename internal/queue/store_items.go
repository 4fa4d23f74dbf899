package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/services"
)

// Add enqueues a pending row and returns its reference.
func (s *Store) Add(ctx context.Context, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, services.Wrap(services.ErrConfiguration, component, "add", "content is empty", nil)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO content_items (content, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		text,
		s.schema.PendingValue,
		timestamp,
		timestamp,
	)
	if err != nil {
		return 0, classify("add", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	s.logger.Info("content enqueued", logging.Int64(logging.FieldRow, id))
	return id, nil
}

// NextPending returns the lowest-id pending row with non-blank content, or nil.
func (s *Store) NextPending(ctx context.Context) (*content.Item, error) {
	ctx = ensureContext(ctx)
	var item content.Item
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(
			ctx,
			`SELECT id, content FROM content_items
             WHERE TRIM(status) = ? AND TRIM(content) <> ''
             ORDER BY id LIMIT 1`,
			s.schema.PendingValue,
		).Scan(&item.Ref, &item.Content)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("next pending", err)
	}
	return &item, nil
}

// MarkDone sets the row's status to the done sentinel. Marking a done row is a no-op.
func (s *Store) MarkDone(ctx context.Context, ref int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE content_items SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		s.schema.DoneValue,
		time.Now().UTC().Format(time.RFC3339Nano),
		ref,
		s.schema.DoneValue,
	)
	if err != nil {
		return classify("mark done", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM content_items WHERE id = ?`, ref).Scan(&exists); err != nil {
		return classify("mark done", err)
	}
	if exists == 0 {
		return services.Wrap(services.ErrStoreUnavailable, component, "mark done", fmt.Sprintf("row %d does not exist", ref), nil)
	}
	return nil
}

// List returns every row in id order.
func (s *Store) List(ctx context.Context) ([]content.Row, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id, content, status FROM content_items ORDER BY id`)
	if err != nil {
		return nil, classify("list", err)
	}
	defer rows.Close()

	var out []content.Row
	for rows.Next() {
		var row content.Row
		if err := rows.Scan(&row.Ref, &row.Content, &row.Status); err != nil {
			return nil, classify("list", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", err)
	}
	return out, nil
}

// Stats returns a count of rows grouped by trimmed status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT TRIM(status), COUNT(1) FROM content_items GROUP BY TRIM(status)`)
	if err != nil {
		return nil, classify("stats", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, classify("stats", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
