package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"quill/internal/services"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// API is the subset of the Sheets and Drive services the store needs.
type API interface {
	// FindSpreadsheet resolves a spreadsheet title to its id.
	FindSpreadsheet(ctx context.Context, title string) (string, error)
	// FirstWorksheet returns the title of the first tab.
	FirstWorksheet(ctx context.Context, spreadsheetID string) (string, error)
	// ReadValues returns every populated row of a worksheet as formatted strings.
	ReadValues(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error)
	// UpdateCell writes a single raw value at an A1 cell of a worksheet.
	UpdateCell(ctx context.Context, spreadsheetID, worksheet, cell, value string) error
}

type googleAPI struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// NewGoogleAPI authenticates with a service-account key file and returns the
// Sheets/Drive backed API. Extra client options are appended (endpoints in tests).
func NewGoogleAPI(ctx context.Context, credentialsFile string, extra ...option.ClientOption) (API, error) {
	opts := []option.ClientOption{
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, extra...)

	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return &googleAPI{sheets: sheetsSvc, drive: driveSvc}, nil
}

func (g *googleAPI) FindSpreadsheet(ctx context.Context, title string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(title, "'", `\'`), spreadsheetMimeType)
	resp, err := g.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("find spreadsheet", err)
	}
	if len(resp.Files) == 0 {
		return "", services.Wrap(services.ErrStoreUnavailable, component, "find spreadsheet",
			fmt.Sprintf("no spreadsheet named %q is shared with the service account", title), nil)
	}
	return resp.Files[0].Id, nil
}

func (g *googleAPI) FirstWorksheet(ctx context.Context, spreadsheetID string) (string, error) {
	resp, err := g.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("get spreadsheet", err)
	}
	if len(resp.Sheets) == 0 || resp.Sheets[0].Properties == nil {
		return "", services.Wrap(services.ErrStoreUnavailable, component, "get spreadsheet", "spreadsheet has no worksheets", nil)
	}
	return resp.Sheets[0].Properties.Title, nil
}

func (g *googleAPI) ReadValues(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	resp, err := g.sheets.Spreadsheets.Values.Get(spreadsheetID, quoteSheet(worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("read values", err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (g *googleAPI) UpdateCell(ctx context.Context, spreadsheetID, worksheet, cell, value string) error {
	rng := quoteSheet(worksheet) + "!" + cell
	_, err := g.sheets.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{
		Values: [][]any{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return classify("update cell", err)
	}
	return nil
}

// quoteSheet renders a worksheet title as an A1 range prefix.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// classify maps Google API failures onto the store error taxonomy: missing or
// unshared documents need an operator; throttling and server errors are transient.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && !isQuotaError(apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest:
			return services.Wrap(services.ErrStoreUnavailable, component, op, apiErr.Message, err)
		}
	}
	return services.Wrap(nil, component, op, "", err)
}

func isQuotaError(apiErr *googleapi.Error) bool {
	if apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}
