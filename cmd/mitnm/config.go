package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitnm/internal/config"
	"github.com/jackzampolin/mitnm/internal/output"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage configuration.

Values are resolved from, in increasing priority: built-in defaults, the
config file, MITNM_* environment variables (e.g. MITNM_INFERENCE_MODEL), and
command flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mitnmHome.EnsureExists(); err != nil {
			return err
		}
		path := mitnmHome.ConfigPath()
		if mitnmHome.ConfigExists() && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		logger.Info("config.written", "path", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(cfgMgr.Get())
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key with its default and effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		type keyInfo struct {
			Key         string `json:"key" yaml:"key"`
			Value       any    `json:"value" yaml:"value"`
			Default     any    `json:"default" yaml:"default"`
			Description string `json:"description" yaml:"description"`
		}
		var keys []keyInfo
		for _, e := range config.DefaultEntries() {
			v, err := cfgMgr.Value(e.Key)
			if err != nil {
				return err
			}
			keys = append(keys, keyInfo{Key: e.Key, Value: v, Default: e.Value, Description: e.Description})
		}
		return output.Print(keys)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfgMgr.Value(args[0])
		if err != nil {
			return err
		}
		return output.Print(map[string]any{args[0]: v})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the config file",
	Long: `Set a key in the loaded config file, or in the home directory config
when no file was loaded.

Examples:
  mitnm config set inference.model llama3.1:8b
  mitnm config set inference.format schema
  mitnm config set -- summary.max_preview_chars -1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfgMgr.Set(args[0], args[1], mitnmHome.ConfigPath())
		if err != nil {
			return err
		}
		logger.Info("config.written", "path", path, "key", args[0])
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
