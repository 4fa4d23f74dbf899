// Package workbook implements the content store over a local .xlsx file.
//
// Every operation reopens the workbook so edits made by an operator between
// cycles are picked up. MarkDone rewrites the whole file atomically (optionally
// keeping a verified .bak of the previous version). A sidecar flock serializes
// quill writers; an Office owner file (~$name.xlsx) or a permission error is
// reported as services.ErrStoreLocked so the poster loop retries shortly.
package workbook
