package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/dbus"
)

var permissionOpts struct {
	quiet bool // Suppress output, return exit code only
}

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Request microphone permission",
	Long: `Ask voxshelld for microphone permission, the same request the
front-end makes before it starts recording.

Exit code: 0=granted, 1=denied.`,
	Args: cobra.NoArgs,
	RunE: permissionRun,
}

func init() {
	rootCmd.AddCommand(permissionCmd)

	permissionCmd.Flags().BoolVarP(&permissionOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=granted, 1=denied)")
}

func permissionRun(cmd *cobra.Command, args []string) error {
	var granted bool
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		var err error
		granted, err = client.RequestMicrophonePermission(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if !permissionOpts.quiet {
		fmt.Println("Microphone:", permissionWord(granted))
	}
	if !granted {
		os.Exit(1)
	}
	return nil
}

func permissionWord(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}
