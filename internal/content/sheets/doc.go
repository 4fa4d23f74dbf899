// Package sheets implements the content store over a Google spreadsheet.
//
// The spreadsheet is opened by title through a Drive lookup, or directly by
// id, using service-account credentials. Rows are read from one worksheet (the
// first tab unless configured) with the header in row 1; MarkDone writes the
// done sentinel into the status cell with a single RAW value update, which the
// Sheets service persists before answering.
package sheets
