package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"quill/internal/config"
	"quill/internal/daemon"
	"quill/internal/logging"
	"quill/internal/poster"
	"quill/internal/preflight"
	"quill/internal/queueaccess"
	"quill/internal/workflow"
)

// ErrPreflight is returned when startup checks fail.
var ErrPreflight = errors.New("preflight checks failed")

// Options configures daemon process runtime behavior.
type Options struct {
	// Logger replaces the logger built from cfg.Logging.
	Logger *slog.Logger
	// ManagerOptions are passed through to the workflow manager.
	ManagerOptions []workflow.ManagerOption
}

// Run starts the quill daemon and blocks until it is signalled or the loop exits.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	if err := runPreflight(signalCtx, cfg, logger); err != nil {
		return err
	}
	logConfigSnapshot(logger, cfg)

	store, err := queueaccess.Open(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}

	client, err := poster.FromConfig(cfg, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("init posting client: %w", err)
	}

	manager := workflow.NewManager(cfg, store, client, logger, opts.ManagerOptions...)
	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("failed to close content store", logging.Error(err))
		}
	}()

	return d.Run(signalCtx)
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, result := range failed {
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `quill status` for the full report"),
		)
		details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(details, "; "))
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String(logging.FieldBackend, string(cfg.Store.Backend)),
		logging.Int("posts_per_day", cfg.Schedule.PostsPerDay),
		logging.Duration("cadence", cfg.Cadence()),
		logging.Duration("idle_interval", cfg.IdleInterval()),
		logging.Duration("rate_limit_backoff", cfg.RateLimitBackoff()),
		logging.Duration("error_retry_interval", cfg.ErrorRetryInterval()),
		logging.Int("daily_cap", cfg.X.DailyCap),
		logging.String("x_base_url", cfg.X.BaseURL),
	)
}
