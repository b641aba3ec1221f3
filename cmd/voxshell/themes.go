package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/config"
	"github.com/jmylchreest/voxshell/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the surface themes voxshelld can load",
	Long: `List bundled themes and the user themes in ~/.config/voxshell/themes.

A user theme named like a bundled one replaces it. The theme voxshelld
loads is set with windows.theme in voxshelld.toml and is marked with *.
This command reads the local files and does not need a running daemon.`,
	Args: cobra.NoArgs,
	RunE: themesRun,
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func themesRun(cmd *cobra.Command, args []string) error {
	dir, err := theme.ThemesDir()
	if err != nil {
		return err
	}
	themes, err := theme.ListAvailableThemes(dir)
	if err != nil {
		return fmt.Errorf("failed to list themes in %s: %w", dir, err)
	}

	active := theme.DefaultThemeName
	if cfg, err := config.Load(""); err != nil {
		logger.Warn("failed to read config, marking the default theme", "error", err)
	} else if cfg.Windows.Theme != "" {
		active = cfg.Windows.Theme
	}

	return writeThemes(os.Stdout, themes, active)
}

func writeThemes(w io.Writer, themes []theme.ThemeInfo, active string) error {
	for _, t := range themes {
		mark := " "
		if t.Name == active {
			mark = "*"
		}
		source := "bundled"
		if !t.Bundled {
			source = t.Path
		}
		if _, err := fmt.Fprintf(w, "%s %-12s %s\n", mark, t.Name, source); err != nil {
			return err
		}
	}
	return nil
}
