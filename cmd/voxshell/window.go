package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/dbus"
	"github.com/jmylchreest/voxshell/internal/window"
)

var windowsOpts struct {
	format string
}

var showCmd = &cobra.Command{
	Use:   "show <window>",
	Short: "Show a window",
	Long: `Show a named window, creating it on first use.

Known windows are "floating" (the floating widget) and "voice-popup".`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: window.Names(window.DefaultDescriptors()),
	RunE: func(cmd *cobra.Command, args []string) error {
		return windowAction(args[0], (*dbus.Client).ShowWindow)
	},
}

var hideCmd = &cobra.Command{
	Use:       "hide <window>",
	Short:     "Hide a window",
	Long:      `Hide a named window. The window is kept and can be shown again quickly.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: window.Names(window.DefaultDescriptors()),
	RunE: func(cmd *cobra.Command, args []string) error {
		return windowAction(args[0], (*dbus.Client).HideWindow)
	},
}

var toggleCmd = &cobra.Command{
	Use:       "toggle <window>",
	Short:     "Toggle a window",
	Long:      `Hide the window if it is visible, otherwise show it.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: window.Names(window.DefaultDescriptors()),
	RunE: func(cmd *cobra.Command, args []string) error {
		return windowAction(args[0], (*dbus.Client).ToggleWindow)
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List windows and their state",
	Long: `List every window voxshelld knows about with its lifecycle state,
position and when it was created and last shown.`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

func init() {
	rootCmd.AddCommand(showCmd, hideCmd, toggleCmd, windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsOpts.format, "format", "f", "table",
		"Output format (table, json, yaml)")
}

func windowAction(name string, call func(*dbus.Client, context.Context, string) error) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		logger.Debug("calling window action", "window", name)
		return call(client, ctx, name)
	})
}

func runWindows(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		windows, err := client.ListWindows(ctx)
		if err != nil {
			return err
		}

		switch strings.ToLower(windowsOpts.format) {
		case "table":
			fmt.Println(renderWindowTable(windows))
			return nil
		case "json", "yaml":
			return encode(os.Stdout, windowsOpts.format, windowRecords(windows))
		default:
			return fmt.Errorf("unknown format %q", windowsOpts.format)
		}
	})
}
