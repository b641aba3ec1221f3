package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/dbus"
	"github.com/jmylchreest/voxshell/internal/window"
)

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

// daemonStatus is what status gathers from the bus.
type daemonStatus struct {
	Running bool
	Server  dbus.ServerInfo
	Windows []dbus.WindowStatus
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether voxshelld is running",
	Long: `Show whether voxshelld is running, its version and the state of
each window.

With --format waybar the output is a Waybar custom module JSON object:

  "custom/voxshell": {
    "exec": "voxshell status --format waybar",
    "interval": 2,
    "return-type": "json",
    "on-click": "voxshell toggle voice-popup"
  }

The alt and class fields are "stopped", "idle" or "listening" (the voice
popup is visible).`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "text",
		"Output format (text, waybar)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	var st daemonStatus
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		running, err := client.Running(ctx)
		if err != nil {
			return err
		}
		st.Running = running
		if !running {
			return nil
		}

		if st.Server, err = client.ServerInformation(ctx); err != nil {
			return err
		}
		st.Windows, err = client.ListWindows(ctx)
		return err
	})

	switch strings.ToLower(statusOpts.format) {
	case "waybar":
		if err != nil {
			return outputStatus(WaybarStatus{Text: "", Alt: "error", Class: "error", Tooltip: err.Error()})
		}
		return outputStatus(generateWaybarStatus(st))
	case "text":
		if err != nil {
			return err
		}
		fmt.Print(formatStatusText(st))
		return nil
	default:
		return fmt.Errorf("unknown format %q", statusOpts.format)
	}
}

// generateWaybarStatus creates a WaybarStatus from the daemon status.
func generateWaybarStatus(st daemonStatus) WaybarStatus {
	if !st.Running {
		return WaybarStatus{
			Text:    "",
			Alt:     "stopped",
			Class:   "stopped",
			Tooltip: "voxshelld is not running",
		}
	}

	class := "idle"
	for _, w := range st.Windows {
		if w.Name == window.NameVoicePopup && w.State == window.StateVisible.String() {
			class = "listening"
		}
	}

	return WaybarStatus{
		Text:    class,
		Alt:     class,
		Class:   class,
		Tooltip: strings.TrimRight(formatStatusText(st), "\n"),
	}
}

// formatStatusText renders the status as plain lines.
func formatStatusText(st daemonStatus) string {
	if !st.Running {
		return "voxshelld: not running\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: running\n", st.Server.Name, st.Server.Version)
	for _, w := range st.Windows {
		fmt.Fprintf(&b, "  %s: %s\n", w.Name, w.State)
	}
	return b.String()
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
