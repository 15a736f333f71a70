package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookwatch/internal/api"
	"github.com/jackzampolin/bookwatch/internal/config"
	"github.com/jackzampolin/bookwatch/internal/home"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize configuration",
	Long: `Configuration is read from ./config.yaml or ~/.bookwatch/config.yaml,
then BOOKWATCH_* environment variables (also loaded from .env files), then
command-line flags.

Examples:
  bookwatch config init             # Write ~/.bookwatch/config.yaml
  bookwatch config show -o json     # Effective configuration
  bookwatch config get poll.interval
  bookwatch config keys             # Every key with its default`,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with every default",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path = h.ConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		api.Notice("wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := cfgManager.ConfigFileUsed(); used != "" {
			api.Notice("# from %s", used)
		}
		return api.Output(cfgManager.Get())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfgManager.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List every key with its default and description",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(config.DefaultEntries())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
