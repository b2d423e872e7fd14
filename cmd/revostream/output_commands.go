package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"revostream/internal/apiclient"
	"revostream/internal/fileutil"
)

const pngDataURLPrefix = "data:image/png;base64,"

func newRecordCommand(ctx *commandContext) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Control local recording",
	}
	recordCmd.AddCommand(&cobra.Command{
		Use:   "start [path]",
		Short: "Start recording (defaults to recording.path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.StartRecording(c, path)
			})
		},
	})
	recordCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.StopRecording(c)
			})
		},
	})
	return recordCmd
}

func newStreamCommand(ctx *commandContext) *cobra.Command {
	streamCmd := &cobra.Command{
		Use:   "stream",
		Short: "Control live streaming",
	}
	streamCmd.AddCommand(&cobra.Command{
		Use:   "start [url]",
		Short: "Start streaming (defaults to the configured target)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.StartStreaming(c, target)
			})
		},
	})
	streamCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop streaming",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.StopStreaming(c)
			})
		},
	})
	return streamCmd
}

func newEncoderCommand(ctx *commandContext) *cobra.Command {
	encoderCmd := &cobra.Command{
		Use:   "encoder",
		Short: "Inspect or change the video encoder preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				status, err := client.Status(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{
						"encoder_preference": status.EncoderPreference,
						"encoder_defaults":   status.EncoderDefaults,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preference: %s\nDefaults:   %s\n", status.EncoderPreference, status.EncoderDefaults)
				return nil
			})
		},
	}
	encoderCmd.AddCommand(&cobra.Command{
		Use:       "set <hardware|software>",
		Short:     "Set the encoder preference applied to outputs started later",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"hardware", "software"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.SetEncoderPreference(c, args[0])
			})
		},
	})
	return encoderCmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		source string
		width  uint32
		height uint32
		output string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Capture a PNG of the program output or one source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				dataURL, err := client.Preview(c, source, width, height)
				if err != nil {
					return err
				}
				if output == "" {
					if ctx.jsonOutput() {
						return writeJSON(cmd, map[string]string{"data_url": dataURL})
					}
					fmt.Fprintln(cmd.OutOrStdout(), dataURL)
					return nil
				}
				size, err := writeDataURL(dataURL, output)
				if err != nil {
					return err
				}
				return ctx.printMessage(cmd, fmt.Sprintf("Wrote %d bytes to %s", size, output))
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "Source id to capture (default: program output)")
	cmd.Flags().Uint32Var(&width, "width", 0, "Image width (default: canvas width)")
	cmd.Flags().Uint32Var(&height, "height", 0, "Image height (default: canvas height)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the decoded PNG to this file")
	return cmd
}

// writeDataURL decodes a base64 PNG data URL into path.
func writeDataURL(dataURL, path string) (int, error) {
	encoded, ok := strings.CutPrefix(dataURL, pngDataURLPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected preview payload")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("decode preview: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write preview: %w", err)
	}
	return len(data), nil
}
