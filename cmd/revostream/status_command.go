package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"revostream/internal/apiclient"
	"revostream/internal/daemonctl"
	"revostream/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showChecks bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, engine and output state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), client, ctx.configValue())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snap)
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			for _, line := range renderStatus(snap, showChecks, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showChecks, "checks", false, "Include preflight checks")
	return cmd
}

func renderStatus(snap daemonctl.Snapshot, showChecks, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	if !snap.Reachable {
		lines = append(lines, renderStatusLine("RevoStream", statusWarn, "Not running (run `revostream daemon start`)", colorize))
	} else {
		st := snap.Status
		lines = append(lines, renderStatusLine("RevoStream", statusOK, fmt.Sprintf("Running (pid %d)", st.Daemon.PID), colorize))
		if st.Daemon.StartedAt != "" {
			lines = append(lines, renderStatusLine("Started", statusInfo, st.Daemon.StartedAt, colorize))
		}
		monitor := statusWarn
		monitorDetail := "Inactive"
		if st.Daemon.DeviceMonitor {
			monitor, monitorDetail = statusOK, "Watching video4linux"
		}
		lines = append(lines, renderStatusLine("Device Monitor", monitor, monitorDetail, colorize))

		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Engine", colorize)...)
		switch {
		case st.Poisoned:
			lines = append(lines, renderStatusLine("Engine", statusError, "State poisoned; restart the daemon", colorize))
		case st.Initialized:
			lines = append(lines, renderStatusLine("Engine", statusOK, "Initialized", colorize))
		default:
			lines = append(lines, renderStatusLine("Engine", statusInfo, "Not initialized (run `revostream start`)", colorize))
		}
		if st.Initialized {
			lines = append(lines,
				renderStatusLine("Scene", statusInfo, fmt.Sprintf("%s (%d total)", st.CurrentScene, st.SceneCount), colorize),
				renderStatusLine("Resolution", statusInfo, st.SceneResolution, colorize),
			)
		}
		lines = append(lines, renderStatusLine("Encoders", statusInfo, fmt.Sprintf("%s (%s)", st.EncoderPreference, st.EncoderDefaults), colorize))
		if st.Recording {
			lines = append(lines, renderStatusLine("Recording", statusLive, st.RecordingPath, colorize))
		} else {
			lines = append(lines, renderStatusLine("Recording", statusInfo, "Idle", colorize))
		}
		if st.Streaming {
			lines = append(lines, renderStatusLine("Streaming", statusLive, "On air", colorize))
		} else {
			lines = append(lines, renderStatusLine("Streaming", statusInfo, "Idle", colorize))
		}
	}

	if showChecks {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Checks", colorize)...)
		for _, check := range snap.Checks {
			lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
		}
	}
	return lines
}

func checkKind(check preflight.Result) statusKind {
	switch {
	case check.Passed:
		return statusOK
	case check.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func newRuntimeCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Initialize the engine inside the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.Start(c)
			})
		},
	}
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Shut the engine down, stopping any recording or stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.Shutdown(c)
			})
		},
	}
	return []*cobra.Command{startCmd, stopCmd}
}

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Launch or terminate revostreamd",
	}

	var autoStart bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Launch revostreamd in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			exe, err := daemonctl.ResolveExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonctl.LaunchOptions{
				ConfigPath: strings.TrimSpace(ctx.flags.config),
				AutoStart:  autoStart,
			}, 10*time.Second)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(out, "Daemon already running")
			default:
				fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	startCmd.Flags().BoolVar(&autoStart, "autostart", false, "Initialize the engine once the daemon is up")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop revostreamd (shuts the engine down first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), client, ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	daemonCmd.AddCommand(startCmd, stopCmd)
	return daemonCmd
}
