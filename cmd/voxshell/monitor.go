package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/dbus"
)

var monitorOpts struct {
	format string
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print window and store events as they happen",
	Long: `Follow the signals voxshelld emits until interrupted.

Each WindowStateChanged and StoreChanged signal is printed on its own line,
or as one JSON object per line with --format json.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVarP(&monitorOpts.format, "format", "f", "text",
		"Output format (text, json)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(monitorOpts.format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", monitorOpts.format)
	}

	client, err := dbus.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder := json.NewEncoder(os.Stdout)
	err = client.Monitor(ctx, func(e dbus.Event) {
		if format == "json" {
			if err := encoder.Encode(eventRecord(e)); err != nil {
				logger.Warn("failed to encode event", "error", err)
			}
			return
		}
		fmt.Println(formatEvent(e))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
