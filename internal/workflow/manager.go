package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/poster"
)

// Poster publishes a post and returns the API's confirmation.
type Poster interface {
	Post(ctx context.Context, text string) (*poster.Result, error)
}

// readiness is implemented by posters that can refuse a post locally, such as
// a daily cap. The loop asks before consuming a row.
type readiness interface {
	Ready() error
}

// Sleeper waits for d or until ctx is done. It reports whether the full wait elapsed.
type Sleeper func(ctx context.Context, d time.Duration) bool

// Manager coordinates the content store and the posting client.
type Manager struct {
	cfg    *config.Config
	store  content.Store
	poster Poster
	logger *slog.Logger

	sleep      Sleeper
	newCycleID func() string

	// cadence is derived once so a long run never re-reads the schedule.
	cadence time.Duration

	mu     sync.RWMutex
	status StatusSummary
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithSleeper replaces the timer-based wait, mainly for tests.
func WithSleeper(sleep Sleeper) ManagerOption {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithCycleIDs replaces the per-cycle correlation id generator.
func WithCycleIDs(next func() string) ManagerOption {
	return func(m *Manager) {
		if next != nil {
			m.newCycleID = next
		}
	}
}

// NewManager constructs a poster loop over store and client.
func NewManager(cfg *config.Config, store content.Store, client Poster, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:        cfg,
		store:      store,
		poster:     client,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		sleep:      sleepContext,
		newCycleID: uuid.NewString,
		cadence:    cfg.Cadence(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cadence returns the wait applied after each successful post.
func (m *Manager) Cadence() time.Duration {
	return m.cadence
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
