package workbook_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"quill/internal/content"
	"quill/internal/content/workbook"
	"quill/internal/logging"
	"quill/internal/services"
)

var schema = content.Schema{
	ContentColumn: "Content",
	StatusColumn:  "Status",
	PendingValue:  "Pending",
	DoneValue:     "Done",
}

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellName, &values); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func readStatuses(t *testing.T, path string) []string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	var statuses []string
	for _, row := range rows[1:] {
		if len(row) > 1 {
			statuses = append(statuses, row[1])
		} else {
			statuses = append(statuses, "")
		}
	}
	return statuses
}

func newStore(t *testing.T, path string, backup bool) *workbook.Store {
	t.Helper()
	store, err := workbook.New(workbook.Options{Path: path, Schema: schema, BackupOnWrite: backup}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostsSecondRowAndPersistsDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Content", "Status"},
		{"Hello", "Done"},
		{"World", "Pending"},
	})
	store := newStore(t, path, false)
	ctx := context.Background()

	item, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending returned error: %v", err)
	}
	if item == nil || item.Content != "World" || item.Ref != 3 {
		t.Fatalf("unexpected item %+v", item)
	}

	if err := store.MarkDone(ctx, item.Ref); err != nil {
		t.Fatalf("MarkDone returned error: %v", err)
	}
	if got := readStatuses(t, path); fmt.Sprint(got) != "[Done Done]" {
		t.Fatalf("unexpected statuses after MarkDone: %v", got)
	}

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending returned error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected no pending rows, got %+v", next)
	}
}

func TestMarkDoneIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Content", "Status"},
		{"One", "Pending"},
		{"Two", "Pending"},
	})
	store := newStore(t, path, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.MarkDone(ctx, 2); err != nil {
			t.Fatalf("MarkDone #%d returned error: %v", i+1, err)
		}
	}
	if got := readStatuses(t, path); fmt.Sprint(got) != "[Done Pending]" {
		t.Fatalf("unexpected statuses: %v", got)
	}
	item, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending returned error: %v", err)
	}
	if item == nil || item.Ref != 3 {
		t.Fatalf("expected row 3 next, got %+v", item)
	}
}

func TestMarkDoneKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Pending"}})
	store := newStore(t, path, true)

	if err := store.MarkDone(context.Background(), 2); err != nil {
		t.Fatalf("MarkDone returned error: %v", err)
	}
	if got := readStatuses(t, path+".bak"); fmt.Sprint(got) != "[Pending]" {
		t.Fatalf("backup should hold the previous version, got %v", got)
	}
}

func TestMissingWorkbookIsUnavailable(t *testing.T) {
	store := newStore(t, filepath.Join(t.TempDir(), "missing.xlsx"), false)
	_, err := store.NextPending(context.Background())
	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestMissingColumnsIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Text", "State"}, {"One", "Pending"}})
	store := newStore(t, path, false)
	_, err := store.NextPending(context.Background())
	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestHeldWriterLockIsLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Pending"}})
	store := newStore(t, path, false)

	other := flock.New(path + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire competing lock: ok=%v err=%v", ok, err)
	}
	defer other.Unlock()

	err = store.MarkDone(context.Background(), 2)
	if !errors.Is(err, services.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
	if got := readStatuses(t, path); fmt.Sprint(got) != "[Pending]" {
		t.Fatalf("locked store must not be modified, got %v", got)
	}
}

func TestOfficeOwnerFileIsLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Pending"}})
	if err := os.WriteFile(filepath.Join(dir, "~$content.xlsx"), []byte("owner"), 0o644); err != nil {
		t.Fatalf("write owner file: %v", err)
	}
	store := newStore(t, path, false)

	_, err := store.NextPending(context.Background())
	if !errors.Is(err, services.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
}

func TestMarkDoneRejectsUnknownRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Pending"}})
	store := newStore(t, path, false)

	if err := store.MarkDone(context.Background(), 9); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable for out-of-range row, got %v", err)
	}
}

func TestNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Pending"}})

	store, err := workbook.New(workbook.Options{Path: path, Sheet: "Queue", Schema: schema}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := store.NextPending(context.Background()); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected missing sheet to be unavailable, got %v", err)
	}

	store, err = workbook.New(workbook.Options{Path: path, Sheet: "Sheet1", Schema: schema}, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	item, err := store.NextPending(context.Background())
	if err != nil || item == nil || item.Content != "One" {
		t.Fatalf("unexpected result item=%+v err=%v", item, err)
	}
}

func TestListReturnsAllRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.xlsx")
	writeWorkbook(t, path, [][]string{{"Content", "Status"}, {"One", "Done"}, {"Two", "Pending"}})
	store := newStore(t, path, false)

	rows, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != 2 || rows[1].Content != "Two" || rows[1].Status != "Pending" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := workbook.New(workbook.Options{Schema: schema}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
