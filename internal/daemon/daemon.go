package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/gofrs/flock"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/workflow"
)

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another quilld instance is already running")

// Daemon coordinates the poster loop and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    content.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	LockFilePath string
	LogPath      string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store content.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Run acquires the lock and blocks in the poster loop until ctx is cancelled
// or the loop exits on its own.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	pidPath := d.cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		d.logger.Warn("unable to write pid file", logging.Error(err), logging.String("path", pidPath))
	}
	defer os.Remove(pidPath)

	d.logger.Info("quill daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldBackend, string(d.cfg.Store.Backend)),
	)
	err = d.workflow.Run(ctx)
	status := d.Status()
	attrs := []logging.Attr{
		logging.Int("posted", status.Workflow.Posted),
		logging.Int("cycles", status.Workflow.Cycles),
		logging.String("last_outcome", string(status.Workflow.LastOutcome)),
		logging.String("log_path", status.LogPath),
	}
	if status.Workflow.LastError != "" {
		attrs = append(attrs, logging.String("last_error", status.Workflow.LastError))
	}
	d.logger.Info("quill daemon stopped", logging.Args(attrs...)...)
	return err
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// Close releases the content store.
func (d *Daemon) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(),
		LockFilePath: d.lockPath,
		LogPath:      d.cfg.LogPath(),
	}
}
