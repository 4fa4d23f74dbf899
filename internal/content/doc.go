// Package content defines the Content Store capability the poster loop consumes
// and the row-scanning rules shared by the tabular backends.
//
// A Content Store is an ordered table with at least a content column and a
// status column. NextPending returns the first row, in table order, whose
// status equals the pending sentinel; MarkDone flips a row to the done
// sentinel and persists it before returning. Backends live in subpackages
// (sheets, workbook) and in internal/queue (SQLite); internal/queueaccess picks
// one from configuration.
package content
