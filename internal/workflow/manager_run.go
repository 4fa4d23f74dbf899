package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/poster"
	"quill/internal/services"
	"quill/internal/textutil"
)

// Outcome is the result of one loop iteration.
type Outcome string

const (
	OutcomePosted      Outcome = "posted"
	OutcomeIdle        Outcome = "idle"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeUnavailable Outcome = "store_unavailable"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeError       Outcome = "error"
	OutcomeStopped     Outcome = "stopped"
)

// Cycle describes one iteration and the wait that follows it.
type Cycle struct {
	Outcome Outcome
	Wait    time.Duration
	PostID  string
	Err     error
}

// Run drives the loop until ctx is cancelled or, under the terminate policy,
// no pending content remains. Both cases return nil.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("poster loop started",
		logging.Duration("cadence", m.cadence),
		logging.String("mark_policy", string(m.cfg.Schedule.MarkPolicy)),
		logging.String("on_exhausted", string(m.cfg.Schedule.OnExhausted)),
	)
	for {
		if ctx.Err() != nil {
			m.logStopped()
			return nil
		}
		res := m.RunOnce(ctx)
		switch res.Outcome {
		case OutcomeStopped:
			m.logStopped()
			return nil
		case OutcomeExhausted:
			m.logger.Info("no pending content left; exiting",
				logging.String(logging.FieldEventType, "content_exhausted"),
				logging.Int("posted", m.Status().Posted),
			)
			return nil
		}
		if !m.sleep(ctx, res.Wait) {
			m.logStopped()
			return nil
		}
	}
}

// RunOnce performs a single fetch-post iteration and returns its outcome and
// the wait the loop applies before the next one.
func (m *Manager) RunOnce(ctx context.Context) Cycle {
	logger := m.logger.With(logging.String(logging.FieldCycleID, m.newCycleID()))
	res := m.cycle(ctx, logger)
	if res.Outcome != OutcomeStopped {
		m.record(res)
	}
	return res
}

func (m *Manager) cycle(ctx context.Context, logger *slog.Logger) Cycle {
	item, err := m.store.NextPending(ctx)
	if err != nil {
		return m.storeFailure(ctx, logger, "fetch pending content", err)
	}
	if item == nil {
		if m.cfg.Schedule.OnExhausted == config.ExhaustedTerminate {
			return Cycle{Outcome: OutcomeExhausted}
		}
		logger.Info("no pending content",
			logging.String(logging.FieldEventType, "content_idle"),
			logging.Duration("wait", m.cfg.IdleInterval()),
		)
		return Cycle{Outcome: OutcomeIdle, Wait: m.cfg.IdleInterval()}
	}

	logger = logger.With(logging.Int64(logging.FieldRow, item.Ref))
	if r, ok := m.poster.(readiness); ok {
		if err := r.Ready(); err != nil {
			return m.postFailure(ctx, logger, item, false, err)
		}
	}
	logger.Info("posting", logging.String("preview", textutil.Preview(item.Content, textutil.PreviewLength)))

	markBefore := m.cfg.Schedule.MarkPolicy != config.MarkAfterPost
	if markBefore {
		if err := m.store.MarkDone(ctx, item.Ref); err != nil {
			return m.storeFailure(ctx, logger, "mark content done", err)
		}
	}

	result, err := m.poster.Post(ctx, item.Content)
	if err != nil {
		return m.postFailure(ctx, logger, item, markBefore, err)
	}

	logger.Info("post published",
		logging.String(logging.FieldEventType, "post_published"),
		logging.String(logging.FieldPostID, result.ID),
		logging.Duration("next_in", m.cadence),
	)

	if !markBefore {
		if err := m.store.MarkDone(ctx, item.Ref); err != nil {
			// The post is live; waiting the cadence keeps spacing even though the
			// row will be offered again.
			logging.ErrorWithContext(logger, "post published but row not marked done", "mark_after_post_failed",
				logging.Error(err),
				logging.String(logging.FieldPostID, result.ID),
				logging.Alert("row may be posted again"),
				logging.String(logging.FieldErrorHint, "set the row's status to done by hand"),
			)
		}
	}
	return Cycle{Outcome: OutcomePosted, Wait: m.cadence, PostID: result.ID}
}

func (m *Manager) storeFailure(ctx context.Context, logger *slog.Logger, action string, err error) Cycle {
	if ctx.Err() != nil {
		return Cycle{Outcome: OutcomeStopped}
	}
	switch services.Classify(err) {
	case services.KindUnavailable:
		// Schema and missing-store problems need an operator; poll slowly but
		// never treat them as exhaustion.
		logging.ErrorWithContext(logger, action+" failed: content store unavailable", "store_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the store exists and has the content and status columns"),
			logging.Duration("wait", m.cfg.IdleInterval()),
		)
		return Cycle{Outcome: OutcomeUnavailable, Wait: m.cfg.IdleInterval(), Err: err}
	case services.KindLocked:
		logging.WarnWithContext(logger, action+" failed: content store locked", "store_locked",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "close the workbook in other applications"),
			logging.Duration("wait", m.cfg.ErrorRetryInterval()),
		)
	default:
		logging.ErrorWithContext(logger, action+" failed", "store_failed",
			logging.Error(err),
			logging.Duration("wait", m.cfg.ErrorRetryInterval()),
		)
	}
	return Cycle{Outcome: OutcomeError, Wait: m.cfg.ErrorRetryInterval(), Err: err}
}

func (m *Manager) postFailure(ctx context.Context, logger *slog.Logger, item *content.Item, marked bool, err error) Cycle {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		if marked {
			logger.Warn("shutdown interrupted a post of consumed content",
				logging.Alert("content marked done but not confirmed posted"),
			)
		}
		return Cycle{Outcome: OutcomeStopped}
	}

	attrs := []logging.Attr{logging.Error(err)}
	if marked {
		attrs = append(attrs, logging.Alert("content marked done but not posted"),
			logging.String("lost_preview", textutil.Preview(item.Content, textutil.PreviewLength)))
	}

	if services.Classify(err) == services.KindRateLimited {
		wait := m.cfg.RateLimitBackoff()
		if reset, ok := poster.ResetHint(err); ok {
			attrs = append(attrs, logging.Time("reset_at", reset))
		}
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "posting allowance exhausted; waiting for the window to reset"),
			logging.Duration("wait", wait),
		)
		logging.WarnWithContext(logger, "rate limited", "post_rate_limited", attrs...)
		return Cycle{Outcome: OutcomeRateLimited, Wait: wait, Err: err}
	}

	attrs = append(attrs,
		logging.String(logging.FieldErrorHint, "check API credentials and network connectivity"),
		logging.Duration("wait", m.cfg.ErrorRetryInterval()),
	)
	logging.ErrorWithContext(logger, "post failed", "post_failed", attrs...)
	return Cycle{Outcome: OutcomeError, Wait: m.cfg.ErrorRetryInterval(), Err: err}
}

func (m *Manager) logStopped() {
	status := m.Status()
	m.logger.Info("poster loop stopped",
		logging.Int("cycles", status.Cycles),
		logging.Int("posted", status.Posted),
	)
}
