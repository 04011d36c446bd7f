package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitnm/internal/config"
	"github.com/jackzampolin/mitnm/internal/home"
	"github.com/jackzampolin/mitnm/internal/output"
	"github.com/jackzampolin/mitnm/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

// Set by the root command before any subcommand runs.
var (
	logger    *slog.Logger
	mitnmHome *home.Dir
	cfgMgr    *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "mitnm",
	Short: "Extract miTNM staging signatures from clinical reports with a local LLM",
	Long: `mitnm reads free-text nuclear medicine reports and asks a locally hosted
language model for the molecular imaging TNM signature (miT, miN, miM), a
confidence score and a short rationale.

The workflow:
  - generate: extract a signature per report (single file or directory)
  - summarize: join reports with their signatures into CSV or XLSX
  - trace: inspect the recorded inference calls`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := output.ParseFormat(outputFormat); err != nil {
			return err
		}
		output.SetFormat(outputFormat)

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		mitnmHome = h

		mgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		cfgMgr = mgr
		if used := mgr.ConfigFileUsed(); used != "" {
			logger.Debug("config.loaded", "path", used)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mitnm/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mitnm home directory (default: ~/.mitnm)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// bindFlags lets explicitly set flags override the given config keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag --%s", name)
		}
		if err := cfgMgr.BindFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
