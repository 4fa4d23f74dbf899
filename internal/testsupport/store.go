package testsupport

import (
	"context"
	"sync"
	"testing"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg, nil)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MemoryStore is an in-memory content.Store with injectable failures.
type MemoryStore struct {
	mu   sync.Mutex
	rows []content.Row

	// NextErrs and MarkErrs are consumed one per call before normal behavior resumes.
	NextErrs []error
	MarkErrs []error

	NextCalls int
	Marked    []int64
	Closed    bool
}

// NewMemoryStore seeds a store with content rows. Refs follow spreadsheet
// numbering, so the first row is 2.
func NewMemoryStore(rows ...content.Row) *MemoryStore {
	s := &MemoryStore{}
	for i, row := range rows {
		if row.Ref == 0 {
			row.Ref = int64(i + 2)
		}
		s.rows = append(s.rows, row)
	}
	return s
}

func (s *MemoryStore) NextPending(context.Context) (*content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NextCalls++
	if len(s.NextErrs) > 0 {
		err := s.NextErrs[0]
		s.NextErrs = s.NextErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, row := range s.rows {
		if row.Status == "Pending" && row.Content != "" {
			return &content.Item{Ref: row.Ref, Content: row.Content}, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) MarkDone(_ context.Context, ref int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.MarkErrs) > 0 {
		err := s.MarkErrs[0]
		s.MarkErrs = s.MarkErrs[1:]
		if err != nil {
			return err
		}
	}
	s.Marked = append(s.Marked, ref)
	for i := range s.rows {
		if s.rows[i].Ref == ref {
			s.rows[i].Status = "Done"
		}
	}
	return nil
}

func (s *MemoryStore) List(context.Context) ([]content.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]content.Row(nil), s.rows...), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Statuses returns each row's status in table order.
func (s *MemoryStore) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Status
	}
	return out
}
