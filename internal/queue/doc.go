// Package queue keeps post content in SQLite for operators who prefer a local
// database over a spreadsheet.
//
// The Store implements content.Store: rows are returned in id order, the id is
// the row reference, and the status column holds the same pending and done
// sentinels the spreadsheet backends use. Operators enqueue rows through
// "quill queue add" and inspect them through "quill queue list".
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package queue
