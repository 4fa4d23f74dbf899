package workbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/fileutil"
	"quill/internal/logging"
	"quill/internal/services"
)

const component = "workbook"

// Store reads and updates content rows in a local workbook.
type Store struct {
	path   string
	sheet  string
	schema content.Schema
	backup bool
	lock   *flock.Flock
	logger *slog.Logger
}

// Options configures a workbook store.
type Options struct {
	Path string
	// Sheet selects a tab by name; empty selects the first tab.
	Sheet         string
	Schema        content.Schema
	BackupOnWrite bool
}

// New returns a store for the workbook at opts.Path. The file is not opened
// until the first operation; a missing file is a per-cycle condition.
func New(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.Path == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "workbook path is required", nil)
	}
	return &Store{
		path:   opts.Path,
		sheet:  opts.Sheet,
		schema: opts.Schema,
		backup: opts.BackupOnWrite,
		lock:   flock.New(opts.Path + ".lock"),
		logger: logging.NewComponentLogger(logger, component),
	}, nil
}

// Open builds a workbook store from configuration.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	return New(Options{
		Path:          cfg.Store.WorkbookPath,
		Sheet:         cfg.Store.Worksheet,
		Schema:        content.SchemaFromConfig(cfg),
		BackupOnWrite: cfg.Store.BackupOnWrite,
	}, logger)
}

// Path returns the workbook location.
func (s *Store) Path() string { return s.path }

// NextPending returns the first pending row in the workbook, or nil.
func (s *Store) NextPending(ctx context.Context) (*content.Item, error) {
	var item *content.Item
	err := s.withLock(ctx, false, "next pending", func() error {
		f, _, table, err := s.load()
		if err != nil {
			return err
		}
		defer f.Close()
		item = table.FirstPending()
		return nil
	})
	return item, err
}

// List returns every data row in the workbook.
func (s *Store) List(ctx context.Context) ([]content.Row, error) {
	var rows []content.Row
	err := s.withLock(ctx, false, "list", func() error {
		f, _, table, err := s.load()
		if err != nil {
			return err
		}
		defer f.Close()
		rows = table.Rows()
		return nil
	})
	return rows, err
}

// MarkDone sets the status cell of ref to the done sentinel and rewrites the
// workbook. A row that is already done is left untouched.
func (s *Store) MarkDone(ctx context.Context, ref int64) error {
	return s.withLock(ctx, true, "mark done", func() error {
		f, sheet, table, err := s.load()
		if err != nil {
			return err
		}
		defer f.Close()

		if err := table.CheckRef(ref); err != nil {
			return err
		}
		if status, _ := table.Status(ref); status == s.schema.DoneValue {
			return nil
		}

		cellName, err := excelize.CoordinatesToCellName(table.StatusColumn(), int(ref))
		if err != nil {
			return services.Wrap(services.ErrStoreUnavailable, component, "mark done", "resolve status cell", err)
		}
		if err := f.SetCellValue(sheet, cellName, s.schema.DoneValue); err != nil {
			return services.Wrap(nil, component, "mark done", "set "+cellName, err)
		}
		return s.save(f)
	})
}

// Close releases nothing; locks are held only for the duration of an operation.
func (s *Store) Close() error { return nil }

func (s *Store) withLock(ctx context.Context, exclusive bool, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOfficeOwner(); err != nil {
		return err
	}

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLock()
	} else {
		ok, err = s.lock.TryRLock()
	}
	if err != nil {
		return s.classifyFSError(op, err)
	}
	if !ok {
		return services.Wrap(services.ErrStoreLocked, component, op, "another writer holds "+s.lock.Path(), nil)
	}
	defer func() {
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.logger.Warn("release workbook lock failed", logging.Error(unlockErr))
		}
	}()
	return fn()
}

// checkOfficeOwner detects the owner file Office creates next to an open workbook.
func (s *Store) checkOfficeOwner() error {
	owner := filepath.Join(filepath.Dir(s.path), "~$"+filepath.Base(s.path))
	if _, err := os.Stat(owner); err == nil {
		return services.Wrap(services.ErrStoreLocked, component, "open", "workbook is open in another program ("+filepath.Base(owner)+")", nil)
	}
	return nil
}

func (s *Store) load() (*excelize.File, string, *content.Table, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, "", nil, s.classifyFSError("open", err)
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, "", nil, s.classifyFSError("open", err)
		}
		return nil, "", nil, services.Wrap(services.ErrStoreUnavailable, component, "open", s.path, err)
	}

	sheet, err := s.resolveSheet(f)
	if err != nil {
		_ = f.Close()
		return nil, "", nil, err
	}
	values, err := f.GetRows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, "", nil, services.Wrap(services.ErrStoreUnavailable, component, "read rows", sheet, err)
	}
	table, err := s.schema.Bind(values)
	if err != nil {
		_ = f.Close()
		return nil, "", nil, fmt.Errorf("%s sheet %q: %w", s.path, sheet, err)
	}
	return f, sheet, table, nil
}

func (s *Store) resolveSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", services.Wrap(services.ErrStoreUnavailable, component, "open", "workbook has no sheets", nil)
	}
	if s.sheet == "" {
		return sheets[0], nil
	}
	if !slices.Contains(sheets, s.sheet) {
		return "", services.Wrap(services.ErrStoreUnavailable, component, "open", fmt.Sprintf("sheet %q not found", s.sheet), nil)
	}
	return s.sheet, nil
}

func (s *Store) save(f *excelize.File) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if s.backup {
		if err := fileutil.CopyFileVerified(s.path, s.path+".bak"); err != nil {
			return s.classifyFSError("backup", err)
		}
	}
	err := fileutil.WriteAtomic(s.path, mode, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return s.classifyFSError("save", err)
	}
	return nil
}

func (s *Store) classifyFSError(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrStoreUnavailable, component, op, s.path+" not found", err)
	case errors.Is(err, fs.ErrPermission):
		return services.Wrap(services.ErrStoreLocked, component, op, s.path+" is not accessible", err)
	default:
		return services.Wrap(nil, component, op, s.path, err)
	}
}
