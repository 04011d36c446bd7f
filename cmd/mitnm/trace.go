package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitnm/internal/llmcall"
	"github.com/jackzampolin/mitnm/internal/metrics"
	"github.com/jackzampolin/mitnm/internal/output"
)

var (
	traceDoc    string
	traceModel  string
	traceFailed bool
	traceSince  time.Duration
	traceLimit  int
	traceOffset int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect recorded inference calls",
	Long: `Inspect the inference calls recorded in the home directory trace
(~/.mitnm/traces/calls.jsonl). Every attempt is recorded, including retries
and failed calls.`,
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calls",
	Long: `List recorded calls, oldest first.

Examples:
  mitnm trace list --doc p001
  mitnm trace list --failed --since 24h
  mitnm trace list --limit 20 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := llmcall.QueryFilter{
			DocumentID: traceDoc,
			Model:      traceModel,
			Limit:      traceLimit,
			Offset:     traceOffset,
		}
		if traceFailed {
			success := false
			filter.Success = &success
		}
		if traceSince > 0 {
			after := time.Now().Add(-traceSince)
			filter.After = &after
		}

		calls, err := llmcall.NewStore(mitnmHome.TracePath()).List(filter)
		if err != nil {
			return err
		}
		return output.Print(calls)
	},
}

var traceShowCmd = &cobra.Command{
	Use:   "show <call-id>",
	Short: "Show a single recorded call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := llmcall.NewStore(mitnmHome.TracePath()).Get(args[0])
		if err != nil {
			return err
		}
		return output.Print(call)
	},
}

var traceStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded calls",
	Long: `Summarize recorded calls: latency percentiles, token usage, retries,
a per-model breakdown and the documents with failed calls.

Examples:
  mitnm trace stats
  mitnm trace stats --since 24h --doc p001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := llmcall.QueryFilter{DocumentID: traceDoc, Model: traceModel}
		if traceSince > 0 {
			after := time.Now().Add(-traceSince)
			filter.After = &after
		}

		calls, err := llmcall.NewStore(mitnmHome.TracePath()).List(filter)
		if err != nil {
			return err
		}
		return output.Print(struct {
			Overall *metrics.Stats            `json:"overall" yaml:"overall"`
			ByModel map[string]*metrics.Stats `json:"by_model" yaml:"by_model"`
			Errors  []metrics.DocumentErrors  `json:"errors,omitempty" yaml:"errors,omitempty"`
		}{
			Overall: metrics.Compute(calls),
			ByModel: metrics.ByModel(calls),
			Errors:  metrics.ErrorsByDocument(calls),
		})
	},
}

func init() {
	traceListCmd.Flags().StringVar(&traceDoc, "doc", "", "only calls for this document id")
	traceListCmd.Flags().StringVar(&traceModel, "model", "", "only calls to this model")
	traceListCmd.Flags().BoolVar(&traceFailed, "failed", false, "only failed calls")
	traceListCmd.Flags().DurationVar(&traceSince, "since", 0, "only calls newer than this, e.g. 2h")
	traceListCmd.Flags().IntVar(&traceLimit, "limit", 50, "maximum number of calls (0 for all)")
	traceListCmd.Flags().IntVar(&traceOffset, "offset", 0, "skip this many matching calls")

	traceCmd.AddCommand(traceListCmd)
	traceStatsCmd.Flags().StringVar(&traceDoc, "doc", "", "only calls for this document id")
	traceStatsCmd.Flags().StringVar(&traceModel, "model", "", "only calls to this model")
	traceStatsCmd.Flags().DurationVar(&traceSince, "since", 0, "only calls newer than this, e.g. 2h")

	traceCmd.AddCommand(traceShowCmd)
	traceCmd.AddCommand(traceStatsCmd)
}
