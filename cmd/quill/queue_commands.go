package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/content"
	"quill/internal/queueaccess"
	"quill/internal/textutil"
)

const listPreviewWidth = 60

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and edit the content queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var pendingOnly bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content rows with their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			filter := strings.TrimSpace(statusFilter)
			if pendingOnly {
				filter = cfg.Store.PendingValue
			}
			return ctx.withSession(cmd.Context(), func(access queueaccess.Access) error {
				rows, err := access.List(cmd.Context())
				if err != nil {
					return err
				}
				rows = filterRows(rows, filter, limit)
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(tableLayout{
					Headers: []string{"Ref", "Status", "Content"},
					Rows:    formatRows(rows),
					Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft},
				}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show rows with this status")
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show rows waiting to be posted")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many rows (0 for all)")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count content rows by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(stats) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				statuses := make([]string, 0, len(stats))
				total := 0
				for status, count := range stats {
					statuses = append(statuses, status)
					total += count
				}
				slices.Sort(statuses)
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					label := status
					if label == "" {
						label = "(blank)"
					}
					rows = append(rows, []string{label, strconv.Itoa(stats[status])})
				}
				fmt.Fprintln(out, renderTable(tableLayout{
					Headers: []string{"Status", "Count"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignRight},
					Footer:  []string{"Total", strconv.Itoa(total)},
				}))
				return nil
			})
		},
	}
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Append a pending post (sqlite backend only)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("post text must not be blank")
			}
			return ctx.withSession(cmd.Context(), func(access queueaccess.Access) error {
				ref, err := addWithHint(cmd.Context(), access, text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued #%d: %s\n", ref, textutil.Preview(text, textutil.PreviewLength))
				return nil
			})
		},
	}
}

func addWithHint(ctx context.Context, access queueaccess.Access, text string) (int64, error) {
	ref, err := access.Add(ctx, text)
	if errors.Is(err, queueaccess.ErrAddUnsupported) {
		return 0, fmt.Errorf("%w; edit the spreadsheet or workbook directly", err)
	}
	return ref, err
}

func filterRows(rows []content.Row, status string, limit int) []content.Row {
	var out []content.Row
	for _, row := range rows {
		if status != "" && strings.TrimSpace(row.Status) != status {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func formatRows(rows []content.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			strconv.FormatInt(row.Ref, 10),
			strings.TrimSpace(row.Status),
			textutil.Preview(row.Content, listPreviewWidth),
		})
	}
	return out
}
