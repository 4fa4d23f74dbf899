// Package logging assembles structured slog loggers and formatting helpers used
// across quill.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standard field keys (component, event_type,
// error_hint, cycle_id, row, post_id) every poster cycle logs with. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
