package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"revostream/internal/api"
	"revostream/internal/apiclient"
	"revostream/internal/fileutil"
)

func newCollectionCommand(ctx *commandContext) *cobra.Command {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"scenes-file"},
		Short:   "Export, import, and validate scene collections",
	}
	collectionCmd.AddCommand(
		newCollectionExportCommand(ctx),
		newCollectionImportCommand(ctx),
		newCollectionValidateCommand(ctx),
		newCollectionSchemaCommand(ctx),
	)
	return collectionCmd
}

func newCollectionExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
		to     string
		uiJSON string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current scenes as a collection document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != apiclient.FormatOwn && format != apiclient.FormatNative {
				return fmt.Errorf("unknown format %q (want own or native)", format)
			}
			if to != "" {
				req := api.ExportRequest{Path: to, UIJSON: uiJSON, Native: format == apiclient.FormatNative}
				return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
					return client.ExportCollectionFile(c, req)
				})
			}
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				doc, err := client.ExportCollection(c, format)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err := cmd.OutOrStdout().Write(append(doc, '\n'))
					return err
				}
				if err := fileutil.WriteFileAtomic(output, doc, 0o644); err != nil {
					return fmt.Errorf("write collection: %w", err)
				}
				return ctx.printMessage(cmd, "Collection written to "+output)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", apiclient.FormatOwn, "Document format: own or native")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a local file (default: stdout)")
	cmd.Flags().StringVar(&to, "to", "", "Have the daemon write the document to this path on its host")
	cmd.Flags().StringVar(&uiJSON, "ui-json", "", "UI state JSON merged into a daemon-side export")
	cmd.MarkFlagsMutuallyExclusive("output", "to")
	return cmd
}

func newCollectionImportCommand(ctx *commandContext) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the current scenes with a collection document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				result, err := client.ImportCollection(c, doc, strict)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, result.Message)
				if len(result.Skips) > 0 {
					rows := make([][]string, 0, len(result.Skips))
					for _, skip := range result.Skips {
						rows = append(rows, []string{skip.Scene, skip.Source, skip.Reason})
					}
					printTable(cmd, []string{"Scene", "Source", "Skipped because"}, rows, nil)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject documents that do not match the collection schema")
	return cmd
}

func newCollectionValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a collection document against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				result, err := client.ValidateCollection(c, doc)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else if result.Valid {
					fmt.Fprintln(cmd.OutOrStdout(), "Collection is valid")
				} else {
					rows := make([][]string, 0, len(result.Violations))
					for _, v := range result.Violations {
						rows = append(rows, []string{v.Location, v.Message})
					}
					printTable(cmd, []string{"Location", "Problem"}, rows, nil)
				}
				if !result.Valid {
					return fmt.Errorf("collection has %d schema violation(s)", len(result.Violations))
				}
				return nil
			})
		},
	}
}

func newCollectionSchemaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the collection document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				schema, err := client.CollectionSchema(c)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
				return err
			})
		},
	}
}

// readDocument reads path, or stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("collection document is empty")
	}
	return data, nil
}
