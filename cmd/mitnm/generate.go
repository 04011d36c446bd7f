package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitnm/internal/batch"
	"github.com/jackzampolin/mitnm/internal/extract"
	"github.com/jackzampolin/mitnm/internal/ingest"
	"github.com/jackzampolin/mitnm/internal/llmcall"
	"github.com/jackzampolin/mitnm/internal/output"
	"github.com/jackzampolin/mitnm/internal/providers"
	"github.com/jackzampolin/mitnm/internal/results"
	"github.com/jackzampolin/mitnm/internal/types"
)

var (
	genReportFile string
	genReportDir  string
	genPromptFile string
	genOut        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Extract miTNM signatures from reports",
	Long: `Extract a miTNM signature from one report or from every report in a directory.

Single-file mode writes the signature to --out, or to stdout when --out is
omitted. Batch mode writes <stem>.json for every report into --output-dir, or
next to each report when no output directory is configured. A failing report
never stops the batch; failures are listed at the end and the command exits
non-zero only when no report succeeded.

Examples:
  mitnm generate --report-file patient.txt
  mitnm generate --report-file patient.txt --out output.json
  mitnm generate --report-dir reports --output-dir outputs
  mitnm generate --report-dir reports --model llama3.1:8b --format schema`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (genReportFile == "") == (genReportDir == "") {
			return fmt.Errorf("provide exactly one of --report-file or --report-dir")
		}
		if err := bindFlags(cmd, map[string]string{
			"inference.provider":        "provider",
			"inference.endpoint":        "endpoint",
			"inference.model":           "model",
			"inference.temperature":     "temperature",
			"inference.timeout_seconds": "timeout",
			"inference.format":          "format",
			"batch.pattern":             "pattern",
			"batch.output_dir":          "output-dir",
		}); err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		if err := cfg.Validate(); err != nil {
			return err
		}

		prompt, err := extract.LoadPrompt(genPromptFile)
		if err != nil {
			return err
		}

		client, err := providers.NewClient(cfg.Inference.ClientConfig())
		if err != nil {
			return err
		}

		var recorder *llmcall.Recorder
		if cfg.Trace.Enabled {
			recorder, err = llmcall.OpenFile(mitnmHome.TracePath(), logger)
			if err != nil {
				return err
			}
			defer recorder.Close()
		}

		extractor, err := extract.NewExtractor(extract.ExtractorConfig{
			Client:      client,
			Logger:      logger,
			Recorder:    recorder,
			Model:       cfg.Inference.Model,
			Temperature: cfg.Inference.Temperature,
			Timeout:     cfg.Inference.Timeout(),
			RetryDelay:  cfg.Inference.RetryDelay(),
			Format:      cfg.Inference.Format,
		})
		if err != nil {
			return err
		}

		if genReportFile != "" {
			return generateOne(cmd, extractor, prompt)
		}
		return generateBatch(cmd, extractor, prompt)
	},
}

func generateOne(cmd *cobra.Command, extractor *extract.Extractor, prompt extract.Prompt) error {
	doc, err := ingest.LoadFile(genReportFile)
	if err != nil {
		return err
	}

	out := extractor.Extract(cmd.Context(), doc, prompt)
	if !out.OK() {
		return fmt.Errorf("%s: %w", doc.ID, out.Failure)
	}

	if genOut == "" {
		return results.Encode(os.Stdout, out.Signature)
	}
	if err := results.WriteFile(genOut, out.Signature); err != nil {
		return err
	}
	logger.Info("generate.saved", "doc_id", doc.ID.String(), "path", genOut)
	return nil
}

func generateBatch(cmd *cobra.Command, extractor *extract.Extractor, prompt extract.Prompt) error {
	cfg := cfgMgr.Get()

	loaded, err := ingest.LoadDir(ingest.Request{
		Dir:     genReportDir,
		Pattern: cfg.Batch.Pattern,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	store := results.NewStore(cfg.Batch.OutputDir)
	runner := batch.NewRunner(batch.RunnerConfig{
		Extractor: extractor,
		Logger:    logger,
		Sink: batch.SinkFunc(func(doc types.Document, out extract.Outcome) error {
			if !out.OK() {
				return nil
			}
			path, err := store.Put(doc, out.Signature)
			if err != nil {
				return err
			}
			logger.Info("generate.saved", "doc_id", doc.ID.String(), "path", path)
			return nil
		}),
	})

	res := runner.Run(cmd.Context(), loaded.Documents, prompt)

	report := output.NewRunReport(res, cfg.Batch.OutputDir)
	for _, s := range loaded.Skipped {
		report.AddSkipped(s.Path, s.Err)
	}
	if err := output.Print(report); err != nil {
		return err
	}

	if res.Succeeded == 0 {
		return fmt.Errorf("no report was processed successfully (%d failed)", report.Failed)
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&genReportFile, "report-file", "", "single report text file")
	generateCmd.Flags().StringVar(&genReportDir, "report-dir", "", "directory of report files (batch mode)")
	generateCmd.Flags().StringVar(&genPromptFile, "prompt-file", "prompt.txt", "instruction prompt text file")
	generateCmd.Flags().StringVar(&genOut, "out", "", "single-file mode: write the signature here instead of stdout")
	generateCmd.Flags().String("pattern", "*.txt", "batch mode: glob pattern for report files")
	generateCmd.Flags().String("output-dir", "", "batch mode: directory for signature files (default: next to each report)")
	generateCmd.Flags().String("provider", providers.OllamaName, "inference client: ollama, openai or mock")
	generateCmd.Flags().String("endpoint", providers.OllamaDefaultEndpoint, "inference server base URL")
	generateCmd.Flags().String("model", providers.OllamaDefaultModel, "model name")
	generateCmd.Flags().Float64("temperature", extract.DefaultTemperature, "sampling temperature")
	generateCmd.Flags().Int("timeout", int(extract.DefaultTimeout.Seconds()), "per-call timeout in seconds")
	generateCmd.Flags().String("format", providers.FormatJSON, "response constraint: json or schema")
}
