package content

import (
	"fmt"
	"strings"

	"quill/internal/services"
)

// headerRow is the 1-based row holding column names in spreadsheet backends.
const headerRow = 1

// Table is a header row plus data rows read from a spreadsheet or workbook,
// bound to a Schema.
type Table struct {
	schema     Schema
	rows       [][]string
	contentIdx int
	statusIdx  int
}

// Bind locates the schema columns in the first row of values. A missing header
// or column is reported as ErrStoreUnavailable: the operator must fix the data.
func (s Schema) Bind(values [][]string) (*Table, error) {
	if len(values) == 0 {
		return nil, services.Wrap(services.ErrStoreUnavailable, "content", "bind", "table has no header row", nil)
	}
	header := values[0]
	contentIdx := columnIndex(header, s.ContentColumn)
	statusIdx := columnIndex(header, s.StatusColumn)
	var missing []string
	if contentIdx < 0 {
		missing = append(missing, s.ContentColumn)
	}
	if statusIdx < 0 {
		missing = append(missing, s.StatusColumn)
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrStoreUnavailable, "content", "bind",
			fmt.Sprintf("missing column(s) %s", strings.Join(missing, ", ")), nil)
	}
	return &Table{
		schema:     s,
		rows:       values[1:],
		contentIdx: contentIdx,
		statusIdx:  statusIdx,
	}, nil
}

// FirstPending scans data rows in order and returns the first whose status is
// the pending sentinel. Pending rows with blank content are skipped.
func (t *Table) FirstPending() *Item {
	for i, row := range t.rows {
		if !t.isPending(row) {
			continue
		}
		text := cell(row, t.contentIdx)
		if strings.TrimSpace(text) == "" {
			continue
		}
		return &Item{Ref: RowRef(i), Content: text}
	}
	return nil
}

// Status returns the status cell for a 1-based sheet row, and whether that row exists.
func (t *Table) Status(ref int64) (string, bool) {
	idx, ok := t.dataIndex(ref)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(cell(t.rows[idx], t.statusIdx)), true
}

// StatusColumn returns the 1-based column number of the status column.
func (t *Table) StatusColumn() int {
	return t.statusIdx + 1
}

// Rows returns every data row with its sheet reference.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for i, row := range t.rows {
		out = append(out, Row{
			Ref:     RowRef(i),
			Content: cell(row, t.contentIdx),
			Status:  strings.TrimSpace(cell(row, t.statusIdx)),
		})
	}
	return out
}

// CheckRef verifies that ref addresses a data row.
func (t *Table) CheckRef(ref int64) error {
	if _, ok := t.dataIndex(ref); !ok {
		return services.Wrap(services.ErrStoreUnavailable, "content", "mark done",
			fmt.Sprintf("row %d is outside the table (data rows %d-%d)", ref, headerRow+1, int64(len(t.rows))+headerRow), nil)
	}
	return nil
}

// RowRef converts a 0-based data row index into the 1-based sheet row number.
func RowRef(dataIndex int) int64 {
	return int64(dataIndex) + headerRow + 1
}

func (t *Table) dataIndex(ref int64) (int, bool) {
	idx := ref - headerRow - 1
	if idx < 0 || idx >= int64(len(t.rows)) {
		return 0, false
	}
	return int(idx), true
}

func (t *Table) isPending(row []string) bool {
	return strings.TrimSpace(cell(row, t.statusIdx)) == t.schema.PendingValue
}

func columnIndex(header []string, name string) int {
	name = strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// cell tolerates ragged rows: spreadsheet APIs omit trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
