package sheets

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"quill/internal/config"
	"quill/internal/content"
	"quill/internal/logging"
	"quill/internal/services"
)

const component = "sheets"

// Options configures a spreadsheet store.
type Options struct {
	// Title is resolved through Drive when SpreadsheetID is empty.
	Title         string
	SpreadsheetID string
	// Worksheet selects a tab by title; empty selects the first tab.
	Worksheet string
	Schema    content.Schema
}

// Store reads and updates content rows in a Google spreadsheet.
type Store struct {
	api    API
	opts   Options
	logger *slog.Logger

	mu            sync.Mutex
	spreadsheetID string
	worksheet     string
}

// New returns a store over the given API.
func New(api API, opts Options, logger *slog.Logger) (*Store, error) {
	if api == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "sheets API is required", nil)
	}
	if opts.Title == "" && opts.SpreadsheetID == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "spreadsheet title or id is required", nil)
	}
	return &Store{
		api:           api,
		opts:          opts,
		logger:        logging.NewComponentLogger(logger, component),
		spreadsheetID: opts.SpreadsheetID,
		worksheet:     opts.Worksheet,
	}, nil
}

// Open authenticates with the configured service-account key and returns a store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	api, err := NewGoogleAPI(ctx, cfg.Store.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return New(api, Options{
		Title:         cfg.Store.SheetName,
		SpreadsheetID: cfg.Store.SpreadsheetID,
		Worksheet:     cfg.Store.Worksheet,
		Schema:        content.SchemaFromConfig(cfg),
	}, logger)
}

// NextPending returns the first pending row of the worksheet, or nil.
func (s *Store) NextPending(ctx context.Context) (*content.Item, error) {
	_, _, table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return table.FirstPending(), nil
}

// List returns every data row of the worksheet.
func (s *Store) List(ctx context.Context) ([]content.Row, error) {
	_, _, table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Rows(), nil
}

// MarkDone writes the done sentinel into the status cell of ref.
func (s *Store) MarkDone(ctx context.Context, ref int64) error {
	id, worksheet, table, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := table.CheckRef(ref); err != nil {
		return err
	}
	if status, _ := table.Status(ref); status == s.opts.Schema.DoneValue {
		return nil
	}
	cellName, err := excelize.CoordinatesToCellName(table.StatusColumn(), int(ref))
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, component, "mark done", "resolve status cell", err)
	}
	if err := s.api.UpdateCell(ctx, id, worksheet, cellName, s.opts.Schema.DoneValue); err != nil {
		s.forgetOnMissing(err)
		return err
	}
	return nil
}

// Close releases nothing; the HTTP clients are stateless.
func (s *Store) Close() error { return nil }

func (s *Store) load(ctx context.Context) (string, string, *content.Table, error) {
	id, worksheet, err := s.resolve(ctx)
	if err != nil {
		return "", "", nil, err
	}
	values, err := s.api.ReadValues(ctx, id, worksheet)
	if err != nil {
		s.forgetOnMissing(err)
		return "", "", nil, err
	}
	table, err := s.opts.Schema.Bind(values)
	if err != nil {
		return "", "", nil, err
	}
	return id, worksheet, table, nil
}

// resolve looks up the spreadsheet id and worksheet title once and caches them.
func (s *Store) resolve(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spreadsheetID == "" {
		id, err := s.api.FindSpreadsheet(ctx, s.opts.Title)
		if err != nil {
			return "", "", err
		}
		s.logger.Info("resolved spreadsheet", logging.String("title", s.opts.Title), logging.String("spreadsheet_id", id))
		s.spreadsheetID = id
	}
	if s.worksheet == "" {
		title, err := s.api.FirstWorksheet(ctx, s.spreadsheetID)
		if err != nil {
			s.forgetLocked(err)
			return "", "", err
		}
		s.worksheet = title
	}
	return s.spreadsheetID, s.worksheet, nil
}

// forgetOnMissing drops cached lookups after a not-found style failure so the
// next cycle re-resolves a renamed or replaced document.
func (s *Store) forgetOnMissing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgetLocked(err)
}

func (s *Store) forgetLocked(err error) {
	if !errors.Is(err, services.ErrStoreUnavailable) {
		return
	}
	s.spreadsheetID = s.opts.SpreadsheetID
	s.worksheet = s.opts.Worksheet
}
