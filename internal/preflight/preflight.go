package preflight

import (
	"context"
	"path/filepath"

	"quill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the startup checks that apply to the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckPostingCredentials(cfg),
	}

	switch cfg.Store.Backend {
	case config.BackendSheets:
		results = append(results, CheckFileReadable("Service account key", cfg.Store.CredentialsFile))
	case config.BackendWorkbook:
		// The file itself may be missing or open elsewhere; the poster loop
		// waits that out per cycle.
		results = append(results, CheckDirectoryAccess("Workbook directory", filepath.Dir(cfg.Store.WorkbookPath)))
	case config.BackendSQLite:
		results = append(results, CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Store.DatabasePath)))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
