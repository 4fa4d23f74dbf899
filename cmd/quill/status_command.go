package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/daemonctl"
	"quill/internal/preflight"
	"quill/internal/queueaccess"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, store access, and posting API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, renderConfigSummary(cfg, colorize)...)
			if info, err := daemonctl.Inspect(cfg); err == nil {
				lines = append(lines, renderDaemonLine(info, colorize))
			} else {
				lines = append(lines, renderStatusLine("Daemon", statusError, err.Error(), colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if !offline {
				results = append(results, preflight.CheckPostingAPI(cmd.Context(), cfg.X.BaseURL))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, result := range results {
				lines = append(lines, renderCheck(result, colorize))
			}
			if cfg.Store.Backend == config.BackendWorkbook {
				// quilld starts without the file and retries each cycle, so this only warns.
				if file := preflight.CheckFileWritable("Workbook", cfg.Store.WorkbookPath); !file.Passed {
					lines = append(lines, renderStatusLine(file.Name, statusWarn, file.Detail, colorize))
				} else {
					lines = append(lines, renderCheck(file, colorize))
				}
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Queue", colorize)...)
			lines = append(lines, renderQueueSummary(cmd.Context(), ctx, cfg, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the posting API reachability probe")
	return cmd
}

func renderConfigSummary(cfg *config.Config, colorize bool) []string {
	var source string
	lines := []string{
		renderStatusLine("Backend", statusInfo, string(cfg.Store.Backend), colorize),
	}
	switch cfg.Store.Backend {
	case config.BackendSheets:
		source = cfg.Store.SheetName
		if cfg.Store.SpreadsheetID != "" {
			source = cfg.Store.SpreadsheetID
		}
	case config.BackendWorkbook:
		source = cfg.Store.WorkbookPath
		lines = append(lines, renderStatusLine("Backup on write", statusInfo, yesNo(cfg.Store.BackupOnWrite), colorize))
	case config.BackendSQLite:
		source = cfg.Store.DatabasePath
	}
	lines = append(lines,
		renderStatusLine("Source", statusInfo, source, colorize),
		renderStatusLine("Cadence", statusInfo, fmt.Sprintf("%s (%d posts/day)", cfg.Cadence(), cfg.Schedule.PostsPerDay), colorize),
		renderStatusLine("When exhausted", statusInfo, string(cfg.Schedule.OnExhausted), colorize),
		renderStatusLine("Mark policy", statusInfo, string(cfg.Schedule.MarkPolicy), colorize),
	)
	return lines
}

func renderQueueSummary(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, colorize bool) []string {
	var stats map[string]int
	err := cmdCtx.withSession(ctx, func(access queueaccess.Access) error {
		var statsErr error
		stats, statsErr = access.Stats(ctx)
		return statsErr
	})
	if err != nil {
		return []string{renderStatusLine("Store", statusError, err.Error(), colorize)}
	}
	pending := stats[cfg.Store.PendingValue]
	kind := statusOK
	if pending == 0 {
		kind = statusWarn
	}
	return []string{
		renderStatusLine("Pending", kind, strconv.Itoa(pending), colorize),
		renderStatusLine("Done", statusInfo, strconv.Itoa(stats[cfg.Store.DoneValue]), colorize),
	}
}
