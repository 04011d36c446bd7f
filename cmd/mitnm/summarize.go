package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitnm/internal/ingest"
	"github.com/jackzampolin/mitnm/internal/output"
	"github.com/jackzampolin/mitnm/internal/results"
	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/summary"
	"github.com/jackzampolin/mitnm/internal/types"
)

// defaultOutputsDir is probed for results when no output dir is configured.
const defaultOutputsDir = "outputs"

var (
	sumReportFile string
	sumReportDir  string
	sumJSONFile   string
	sumJSONDir    string
	sumOut        string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Combine reports and their signatures into a CSV or XLSX table",
	Long: `Combine reports with their signature files into one table.

For every report the signature is looked up as <stem>.json next to the
report, then in --json-dir, then in the configured output directory (or
./outputs). Reports without a signature get an "unknown" row.

The CSV "full" layout has one column per signature field and a text preview;
the "overview" layout shows the patient header, the impression and clinical
summary sections, and the signature on one line. XLSX always uses the full
layout.

Examples:
  mitnm summarize --report-dir reports --json-dir outputs
  mitnm summarize --report-dir reports --layout overview --out overview.csv
  mitnm summarize --report-dir reports --format xlsx --max-preview-chars -1
  mitnm summarize --report-file patient.txt --json-file output.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (sumReportFile == "") == (sumReportDir == "") {
			return fmt.Errorf("provide exactly one of --report-file or --report-dir")
		}
		if err := bindFlags(cmd, map[string]string{
			"batch.pattern":             "pattern",
			"summary.format":            "format",
			"summary.layout":            "layout",
			"summary.max_preview_chars": "max-preview-chars",
		}); err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		if err := cfg.Validate(); err != nil {
			return err
		}
		layout, err := summary.ParseLayout(cfg.Summary.Layout)
		if err != nil {
			return err
		}

		docs, sigs, err := loadForSummary(cfg.Batch.Pattern, cfg.Batch.OutputDir)
		if err != nil {
			return err
		}
		rows := summary.Aggregate(docs, sigs, cfg.Summary.MaxPreviewChars)

		path := sumOut
		if path == "" {
			path = "miTNM_summary." + cfg.Summary.Format
		}
		if err := writeSummary(path, cfg.Summary.Format, rows, layout); err != nil {
			return err
		}

		report := output.SummaryReport{
			Path:   path,
			Format: cfg.Summary.Format,
			Rows:   len(rows),
		}
		if cfg.Summary.Format == "csv" {
			report.Layout = string(layout)
		}
		for _, row := range rows {
			if row.Matched() {
				report.Matched++
			} else {
				report.Unmatched++
			}
		}
		return output.Print(report)
	},
}

func loadForSummary(pattern, outputDir string) ([]types.Document, map[types.DocumentID]signature.Signature, error) {
	if sumReportFile != "" {
		doc, err := ingest.LoadFile(sumReportFile)
		if err != nil {
			return nil, nil, err
		}
		docs := []types.Document{doc}
		if sumJSONFile == "" {
			return docs, lookup(outputDir).LoadAll(docs), nil
		}
		sig, anomalies, err := results.Load(sumJSONFile)
		if err != nil {
			logger.Warn("results.unreadable", "doc_id", doc.ID.String(), "path", sumJSONFile, "error", err)
			return docs, nil, nil
		}
		for _, a := range anomalies {
			logger.Warn("results.schema_anomaly", "doc_id", doc.ID.String(), "field", a.Field, "kind", a.Kind, "value", a.Value)
		}
		return docs, map[types.DocumentID]signature.Signature{doc.ID: sig}, nil
	}

	loaded, err := ingest.LoadDir(ingest.Request{Dir: sumReportDir, Pattern: pattern, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return loaded.Documents, lookup(outputDir).LoadAll(loaded.Documents), nil
}

func lookup(outputDir string) results.Lookup {
	if outputDir == "" {
		outputDir = defaultOutputsDir
	}
	return results.Lookup{
		JSONDir:    sumJSONDir,
		OutputsDir: outputDir,
		Logger:     logger,
	}
}

func writeSummary(path, format string, rows []summary.Row, layout summary.Layout) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "xlsx":
		err = summary.WriteXLSX(f, rows)
	default:
		err = summary.WriteCSV(f, rows, layout)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func init() {
	summarizeCmd.Flags().StringVar(&sumReportFile, "report-file", "", "single report text file")
	summarizeCmd.Flags().StringVar(&sumReportDir, "report-dir", "", "directory of report files")
	summarizeCmd.Flags().StringVar(&sumJSONFile, "json-file", "", "single-file mode: signature file of --report-file")
	summarizeCmd.Flags().StringVar(&sumJSONDir, "json-dir", "", "directory searched for <stem>.json signature files")
	summarizeCmd.Flags().StringVar(&sumOut, "out", "", "summary file (default: miTNM_summary.<format>)")
	summarizeCmd.Flags().String("pattern", "*.txt", "glob pattern for report files")
	summarizeCmd.Flags().String("format", "csv", "summary format: csv or xlsx")
	summarizeCmd.Flags().String("layout", string(summary.LayoutFull), "CSV layout: full or overview")
	summarizeCmd.Flags().Int("max-preview-chars", 500, "characters of report text in the preview column (-1 for all)")
}
