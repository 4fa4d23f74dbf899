package queueaccess

import (
	"context"
	"fmt"
	"log/slog"

	"quill/internal/config"
	"quill/internal/content"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSession opens the configured store for operator commands.
func OpenSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Session, error) {
	store, err := Open(ctx, cfg, logger)
	if err != nil {
		return Session{}, fmt.Errorf("open content store: %w", err)
	}
	return NewSession(store), nil
}

// NewSession wraps an already opened store.
func NewSession(store content.Store) Session {
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}
}
