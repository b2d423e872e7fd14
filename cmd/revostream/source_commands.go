package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"revostream/internal/api"
	"revostream/internal/apiclient"
)

func newSourceCommand(ctx *commandContext) *cobra.Command {
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Manage sources in the current scene",
	}
	sourceCmd.AddCommand(
		newSourceListCommand(ctx),
		newSourceCreateCommand(ctx),
		newSourceUpdateCommand(ctx),
		newSourceRemoveCommand(ctx),
		newSourceVisibilityCommand(ctx, "show", true),
		newSourceVisibilityCommand(ctx, "hide", false),
		newSourceMoveCommand(ctx),
		newSourceOrderCommand(ctx),
		newSourceSettingsCommand(ctx),
		newSourceFiltersCommand(ctx),
		newSourceTypesCommand(ctx),
	)
	return sourceCmd
}

func newSourceListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sources of the current scene, top first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				sources, err := client.Sources(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SourceListResponse{Sources: sources})
				}
				if len(sources) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sources in the current scene")
					return nil
				}
				rows := make([][]string, 0, len(sources))
				for _, src := range sources {
					rows = append(rows, []string{src.ID, src.Name, src.SourceType, yesNo(src.Visible), formatParams(src.Params)})
				}
				printTable(cmd, []string{"ID", "Name", "Type", "Visible", "Params"}, rows, nil)
				return nil
			})
		},
	}
}

func newSourceCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		name       string
		sourceType string
		params     []string
		hidden     bool
	)
	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a source and add it to the current scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			req := api.CreateSourceRequest{
				ID:         args[0],
				Name:       name,
				SourceType: sourceType,
				Params:     parsed,
			}
			if hidden {
				visible := false
				req.Visible = &visible
			}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.CreateSource(c, req)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the id)")
	cmd.Flags().StringVarP(&sourceType, "type", "t", "", "Source type id (see `revostream source types`)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Source parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Create the item hidden")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newSourceUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		name       string
		sourceType string
		params     []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a source, change its type, or apply parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			req := api.UpdateSourceRequest{Name: name, SourceType: sourceType, Params: parsed}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.UpdateSource(c, args[0], req)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVarP(&sourceType, "type", "t", "", "New source type id")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Source parameter as key=value (repeatable)")
	return cmd
}

func newSourceRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a source from the current scene",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.RemoveSource(c, args[0])
			})
		},
	}
}

func newSourceVisibilityCommand(ctx *commandContext, use string, visible bool) *cobra.Command {
	short := "Hide a source"
	if visible {
		short = "Show a source"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.SetSourceVisible(c, args[0], visible)
			})
		},
	}
}

func newSourceMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "move <id> <up|down|top|bottom>",
		Short:     "Move a source one step, or to the top or bottom",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down", "top", "bottom"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.MoveSource(c, args[0], args[1])
			})
		},
	}
}

func newSourceOrderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "order <id> <index>",
		Short: "Move a source to a position, 0 being the top",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.ReorderSource(c, args[0], index)
			})
		},
	}
}

func newSourceSettingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "settings <id>",
		Short: "Show stored parameters and the property sheet of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				settings, err := client.SourceSettings(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, settings)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name: %s\nType: %s\n", settings.Name, settings.SourceType)
				printTable(cmd, []string{"Key", "Label", "Kind", "Value", "Options"}, propertyRows(settings.Properties, settings.Params), nil)
				return nil
			})
		},
	}
}

func newSourceFiltersCommand(ctx *commandContext) *cobra.Command {
	var (
		setFile string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "filters <id>",
		Short: "List or replace the filter chain of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if setFile != "" || clearAll {
				var filters []api.Filter
				if setFile != "" {
					loaded, err := readFilters(setFile)
					if err != nil {
						return err
					}
					filters = loaded
				}
				return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
					return client.SetFilters(c, args[0], filters)
				})
			}
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				filters, err := client.Filters(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FiltersPayload{Filters: filters})
				}
				if len(filters) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No filters")
					return nil
				}
				rows := make([][]string, 0, len(filters))
				for _, f := range filters {
					rows = append(rows, []string{f.Name, f.Kind, yesNo(f.Enabled), formatParams(f.Params)})
				}
				printTable(cmd, []string{"Name", "Kind", "Enabled", "Params"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&setFile, "set", "", "Replace the chain with filters from a JSON file")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every filter")
	cmd.MarkFlagsMutuallyExclusive("set", "clear")
	return cmd
}

func newSourceTypesCommand(ctx *commandContext) *cobra.Command {
	var properties string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List creatable source types, or the properties of one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				if properties != "" {
					props, err := client.SourceProperties(c, properties)
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, api.PropertyListResponse{Properties: props})
					}
					printTable(cmd, []string{"Key", "Label", "Kind", "Value", "Options"}, propertyRows(props, nil), nil)
					return nil
				}
				types, err := client.SourceTypes(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SourceTypeListResponse{Types: types})
				}
				rows := make([][]string, 0, len(types))
				for _, t := range types {
					rows = append(rows, []string{t.ID, t.Label})
				}
				printTable(cmd, []string{"Type", "Label"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&properties, "properties", "", "Show the property sheet of this type")
	return cmd
}

// parseParams turns repeated key=value flags into a map. Later keys win.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", pair)
		}
		params[key] = value
	}
	return params, nil
}

func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}

func propertyRows(props []api.Property, values map[string]string) [][]string {
	rows := make([][]string, 0, len(props))
	for _, p := range props {
		options := make([]string, 0, len(p.Options))
		for _, o := range p.Options {
			options = append(options, o.Value)
		}
		rows = append(rows, []string{p.Key, p.Label, p.Kind, values[p.Key], strings.Join(options, ", ")})
	}
	return rows
}

// readFilters accepts either {"filters": [...]} or a bare array.
func readFilters(path string) ([]api.Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var filters []api.Filter
		if err := json.Unmarshal(data, &filters); err != nil {
			return nil, fmt.Errorf("parse filters: %w", err)
		}
		return filters, nil
	}
	var payload api.FiltersPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse filters: %w", err)
	}
	return payload.Filters, nil
}
