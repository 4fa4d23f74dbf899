package daemon_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/daemon"
	"quill/internal/poster"
	"quill/internal/testsupport"
	"quill/internal/workflow"
)

type stubPoster struct{ posts int }

func (p *stubPoster) Post(_ context.Context, text string) (*poster.Result, error) {
	p.posts++
	return &poster.Result{ID: "1", Text: text}, nil
}

func newDaemon(t *testing.T, cfg *config.Config, store content.Store, client workflow.Poster) *daemon.Daemon {
	t.Helper()
	wf := workflow.NewManager(cfg, store, client, nil, workflow.WithSleeper(func(context.Context, time.Duration) bool { return true }))
	d, err := daemon.New(cfg, store, nil, wf)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestRunExitsWhenContentExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.OnExhausted = config.ExhaustedTerminate
	store := testsupport.NewMemoryStore(
		content.Row{Content: "one", Status: "Pending"},
		content.Row{Content: "two", Status: "Pending"},
	)
	client := &stubPoster{}
	d := newDaemon(t, cfg, store, client)

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if client.posts != 2 {
		t.Fatalf("expected two posts, got %d", client.posts)
	}
	status := d.Status()
	if status.Running || status.Workflow.Posted != 2 || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status %+v", status)
	}

	// The lock is released after Run returns.
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected lock to be free, ok=%v err=%v", ok, err)
	}
	_ = lock.Unlock()
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file to be removed, stat err=%v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !store.Closed {
		t.Fatal("expected store to be closed")
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	client := &stubPoster{}
	d := newDaemon(t, cfg, testsupport.NewMemoryStore(content.Row{Content: "x", Status: "Pending"}), client)
	if err := d.Run(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if client.posts != 0 {
		t.Fatalf("second instance must not post, got %d", client.posts)
	}
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("second instance must not write a pid file, stat err=%v", err)
	}
}

func TestRunWritesPIDFileWhileRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewMemoryStore()
	wf := workflow.NewManager(cfg, store, &stubPoster{}, nil, workflow.WithSleeper(func(ctx context.Context, _ time.Duration) bool {
		<-ctx.Done()
		return false
	}))
	d, err := daemon.New(cfg, store, nil, wf)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	want := strconv.Itoa(os.Getpid())
	deadline := time.Now().Add(2 * time.Second)
	for {
		data, err := os.ReadFile(cfg.PIDPath())
		if err == nil && strings.TrimSpace(string(data)) == want {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("pid file not written: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestRunLogsFinalStatusOnExit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.OnExhausted = config.ExhaustedTerminate
	store := testsupport.NewMemoryStore(content.Row{Content: "one", Status: "Pending"})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	wf := workflow.NewManager(cfg, store, &stubPoster{}, logger, workflow.WithSleeper(func(context.Context, time.Duration) bool { return true }))
	d, err := daemon.New(cfg, store, logger, wf)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var stopped string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "quill daemon stopped") {
			stopped = line
		}
	}
	for _, want := range []string{`"posted":1`, `"last_outcome":"exhausted"`, `"log_path":"` + cfg.LogPath() + `"`} {
		if !strings.Contains(stopped, want) {
			t.Fatalf("expected %s in shutdown line %q", want, stopped)
		}
	}
}
