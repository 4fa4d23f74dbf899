package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/daemonctl"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect or stop a running quilld",
	}
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether quilld is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := daemonctl.Inspect(ctx.configValue())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderDaemonLine(info, shouldColorize(out)))
			return nil
		},
	}
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask quilld to exit, killing it after the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := daemonctl.Stop(cmd.Context(), ctx.configValue(), grace)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !res.WasRunning:
				fmt.Fprintln(out, "quilld is not running")
			case res.ForcedKill:
				fmt.Fprintf(out, "quilld (pid %d) did not exit within %s and was killed\n", res.PID, grace)
			default:
				fmt.Fprintf(out, "quilld (pid %d) stopped\n", res.PID)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 10*time.Second, "How long to wait for a clean exit")
	return cmd
}

func renderDaemonLine(info daemonctl.ProcessInfo, colorize bool) string {
	if !info.Running {
		return renderStatusLine("Daemon", statusWarn, "not running", colorize)
	}
	msg := "running"
	if info.PID > 0 {
		msg = fmt.Sprintf("running (pid %d)", info.PID)
	}
	return renderStatusLine("Daemon", statusOK, msg, colorize)
}
