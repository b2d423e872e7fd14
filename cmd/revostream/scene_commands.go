package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"revostream/internal/api"
	"revostream/internal/apiclient"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "Manage scenes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scenes in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				scenes, err := client.Scenes(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SceneListResponse{Scenes: scenes})
				}
				if len(scenes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No scenes")
					return nil
				}
				printTable(cmd, []string{"#", "Name", "Active", "Locked"}, sceneRows(scenes), []columnAlignment{alignRight})
				return nil
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.CreateScene(c, args[0])
			})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.RenameScene(c, args[0], args[1])
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a scene",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.RemoveScene(c, args[0])
			})
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a scene the program scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.SetCurrentScene(c, args[0])
			})
		},
	}

	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Print the program scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				name, err := client.CurrentScene(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SceneRequest{Name: name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	lockCmd := &cobra.Command{
		Use:   "lock <name>",
		Short: "Lock a scene against edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.SetSceneLock(c, args[0], true)
			})
		},
	}

	unlockCmd := &cobra.Command{
		Use:   "unlock <name>",
		Short: "Unlock a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.SetSceneLock(c, args[0], false)
			})
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <name> <index>",
		Short: "Move a scene to a position in the list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			return ctx.message(cmd, func(c context.Context, client *apiclient.Client) (string, error) {
				return client.ReorderScene(c, args[0], index)
			})
		},
	}

	resolutionCmd := &cobra.Command{
		Use:   "resolution",
		Short: "Print the canvas resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *apiclient.Client) error {
				res, err := client.SceneResolution(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ResolutionResponse{Resolution: res})
				}
				fmt.Fprintln(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}

	sceneCmd.AddCommand(listCmd, createCmd, renameCmd, removeCmd, useCmd, currentCmd, lockCmd, unlockCmd, moveCmd, resolutionCmd)
	return sceneCmd
}

func sceneRows(scenes []api.Scene) [][]string {
	rows := make([][]string, 0, len(scenes))
	for i, scene := range scenes {
		active := ""
		if scene.Active {
			active = "*"
		}
		rows = append(rows, []string{strconv.Itoa(i), scene.Name, active, yesNo(scene.Locked)})
	}
	return rows
}
