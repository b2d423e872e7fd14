package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"revostream/internal/api"
	"revostream/internal/apiclient"
	"revostream/internal/logs"
)

const (
	defaultLogLines   = 10
	followBatchLimit  = 200
	logFilePollPeriod = 500 * time.Millisecond
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices the daemon can see",
	}
	devicesCmd.AddCommand(&cobra.Command{
		Use:   "video",
		Short: "List V4L2 video capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				devices, err := client.VideoDevices(c)
				if err != nil {
					return err
				}
				return printDevices(cmd, ctx, devices, "No video devices found")
			})
		},
	})

	var kind string
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "List PulseAudio inputs or outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				devices, err := client.AudioDevices(c, kind)
				if err != nil {
					return err
				}
				return printDevices(cmd, ctx, devices, "No audio devices found")
			})
		},
	}
	audioCmd.Flags().StringVar(&kind, "kind", "input", "Device direction: input or output")
	devicesCmd.AddCommand(audioCmd)
	return devicesCmd
}

func printDevices(cmd *cobra.Command, ctx *commandContext, devices []api.Device, empty string) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.DeviceListResponse{Devices: devices})
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), empty)
		return nil
	}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, d.Label})
	}
	printTable(cmd, []string{"ID", "Label"}, rows, nil)
	return nil
}

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var (
		tail   int
		since  uint64
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent runtime actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				var (
					entries []api.JournalEntry
					err     error
				)
				if cmd.Flags().Changed("since") {
					entries, err = client.JournalSince(c, since)
				} else {
					entries, err = client.Journal(c, tail)
				}
				if err != nil {
					return err
				}
				if !follow {
					if ctx.jsonOutput() {
						return writeJSON(cmd, api.JournalResponse{Entries: entries})
					}
					if len(entries) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No journal entries")
						return nil
					}
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, []string{
							strconv.FormatUint(e.Seq, 10),
							formatJournalTime(e.TimestampMS),
							e.Action,
							formatDetail(e.Detail),
						})
					}
					printTable(cmd, []string{"Seq", "Time", "Action", "Detail"}, rows, []columnAlignment{alignRight})
					return nil
				}

				out := cmd.OutOrStdout()
				cursor := since
				for _, e := range entries {
					printJournalLine(out, ctx, e)
					cursor = e.Seq
				}
				streamCtx, stop := signal.NotifyContext(c, os.Interrupt, syscall.SIGTERM)
				defer stop()
				err = client.Events(streamCtx, apiclient.EventOptions{Replay: true, Since: cursor}, func(evt api.Event) error {
					if evt.Type == api.EventTypeJournal && evt.Journal != nil {
						printJournalLine(out, ctx, *evt.Journal)
					}
					return nil
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&tail, "tail", "n", 20, "Number of recent entries to show")
	cmd.Flags().Uint64Var(&since, "since", 0, "Show entries after this sequence number")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new entries as they happen")
	return cmd
}

func printJournalLine(out io.Writer, ctx *commandContext, e api.JournalEntry) {
	if ctx.jsonOutput() {
		_ = writeJSONTo(out, e)
		return
	}
	line := fmt.Sprintf("%6d %s %s", e.Seq, formatJournalTime(e.TimestampMS), e.Action)
	if detail := formatDetail(e.Detail); detail != "" {
		line += " " + detail
	}
	fmt.Fprintln(out, line)
}

func formatJournalTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}

func formatDetail(detail map[string]any) string {
	if len(detail) == 0 {
		return ""
	}
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, detail[k]))
	}
	return strings.Join(parts, " ")
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		component string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			if follow {
				var stop context.CancelFunc
				runCtx, stop = signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}
			err := streamLogsFromAPI(runCtx, cmd, ctx, lines, follow, component)
			if err == nil || !apiclient.IsUnavailable(err) {
				return err
			}
			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			return tailLogFile(runCtx, cmd.OutOrStdout(), cfg.CurrentLogPath(), lines, follow, component)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", defaultLogLines, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().StringVar(&component, "component", "", "Only show events from this component")
	return cmd
}

// streamLogsFromAPI prints events from the daemon's in-memory log stream.
func streamLogsFromAPI(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, lines int, follow bool, component string) error {
	client, err := ctx.client()
	if err != nil {
		return err
	}

	query := apiclient.LogQuery{Limit: lines, Tail: true, Component: component}
	if query.Limit <= 0 {
		query.Limit = followBatchLimit
	}
	out := cmd.OutOrStdout()
	printed := false
	for {
		resp, err := client.Logs(runCtx, query)
		if err != nil {
			if follow && runCtx.Err() != nil {
				return nil
			}
			return err
		}
		for _, evt := range resp.Events {
			fmt.Fprintln(out, formatLogEvent(evt))
			printed = true
		}
		if !follow {
			if !printed {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		}
		query.Since = resp.Next
		query.Limit = followBatchLimit
		query.Tail = false
		query.Follow = true
	}
}

// tailLogFile reads the current log file directly for when the daemon is
// not answering.
func tailLogFile(runCtx context.Context, out io.Writer, path string, lines int, follow bool, component string) error {
	emit := func(line logs.Line) {
		if component != "" && !strings.EqualFold(component, line.Component()) {
			return
		}
		if line.Event != nil {
			fmt.Fprintln(out, formatLogEvent(*line.Event))
			return
		}
		fmt.Fprintln(out, line.Raw)
	}

	recent, offset, err := logs.Last(path, lines)
	if err != nil {
		return err
	}
	for _, line := range recent {
		emit(line)
	}
	if !follow {
		if len(recent) == 0 {
			fmt.Fprintf(out, "No log entries available (daemon not running; looked in %s)\n", path)
		}
		return nil
	}
	return logs.Follow(runCtx, path, offset, logFilePollPeriod, emit)
}

func formatLogEvent(evt api.LogEvent) string {
	ts := evt.Timestamp.Local().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " " + message
	}
	if len(evt.Fields) == 0 {
		return line
	}
	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(line)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(evt.Fields[k])
	}
	return b.String()
}
