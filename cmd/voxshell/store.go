package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxshell/internal/dbus"
)

var storeOpts struct {
	format string
	quiet  bool
}

// storeCmd represents the store command group.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Read and write the shared settings store",
	Long: `Read and write the key-value settings store held by voxshelld.

Values are JSON. Strings must be quoted:

  voxshell store set apiKey '"sk-123"'
  voxshell store set autoSave true
  voxshell store get apiKey`,
}

var storeGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Long:  `Print the JSON value stored under a key. Exits 1 if the key is not set.`,
	Args:  cobra.ExactArgs(1),
	RunE:  storeGetRun,
}

var storeSetCmd = &cobra.Command{
	Use:   "set <key> <json>",
	Short: "Store a JSON value under a key",
	Args:  cobra.ExactArgs(2),
	RunE:  storeSetRun,
}

var storeDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"rm"},
	Short:   "Remove a key",
	Args:    cobra.ExactArgs(1),
	RunE:    storeDeleteRun,
}

var storeKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List stored keys",
	Args:  cobra.NoArgs,
	RunE:  storeKeysRun,
}

var storeDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every key and value",
	Args:  cobra.NoArgs,
	RunE:  storeDumpRun,
}

var storeSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Flush the store to disk",
	Args:  cobra.NoArgs,
	RunE:  storeSaveRun,
}

func init() {
	storeCmd.AddCommand(storeGetCmd, storeSetCmd, storeDeleteCmd, storeKeysCmd, storeDumpCmd, storeSaveCmd)
	rootCmd.AddCommand(storeCmd)

	storeGetCmd.Flags().BoolVarP(&storeOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only")
	storeDumpCmd.Flags().StringVarP(&storeOpts.format, "format", "f", "json",
		"Output format (json, yaml)")
}

func storeGetRun(cmd *cobra.Command, args []string) error {
	var (
		value string
		found bool
	)
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		var err error
		value, found, err = client.StoreGet(ctx, args[0])
		return err
	})
	if err != nil {
		return err
	}

	if !found {
		if !storeOpts.quiet {
			fmt.Fprintf(os.Stderr, "%s: not set\n", args[0])
		}
		os.Exit(1)
	}
	if !storeOpts.quiet {
		fmt.Println(value)
	}
	return nil
}

func storeSetRun(cmd *cobra.Command, args []string) error {
	value, err := normalizeValue(args[1])
	if err != nil {
		return err
	}
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		return client.StoreSet(ctx, args[0], value)
	})
}

func storeDeleteRun(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		existed, err := client.StoreDelete(ctx, args[0])
		if err != nil {
			return err
		}
		if !existed {
			logger.Info("key was not set", "key", args[0])
		}
		return nil
	})
}

func storeKeysRun(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		keys, err := client.StoreKeys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	})
}

func storeDumpRun(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		keys, err := client.StoreKeys(ctx)
		if err != nil {
			return err
		}

		values := make(map[string]json.RawMessage, len(keys))
		for _, k := range keys {
			v, found, err := client.StoreGet(ctx, k)
			if err != nil {
				return err
			}
			// Deleted between StoreKeys and StoreGet.
			if !found {
				continue
			}
			values[k] = json.RawMessage(v)
		}

		return encodeStore(os.Stdout, storeOpts.format, values)
	})
}

func storeSaveRun(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *dbus.Client) error {
		return client.StoreSave(ctx)
	})
}
