package output

import (
	"github.com/jackzampolin/mitnm/internal/batch"
)

// ReasonReadError marks a report file that could not be read.
const ReasonReadError = "read_error"

// RunReport summarizes a batch run.
type RunReport struct {
	Documents  int             `json:"documents" yaml:"documents"`
	Succeeded  int             `json:"succeeded" yaml:"succeeded"`
	Failed     int             `json:"failed" yaml:"failed"`
	Duplicates []string        `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	ElapsedMs  int64           `json:"elapsed_ms" yaml:"elapsed_ms"`
	OutputDir  string          `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Failures   []FailureReport `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// FailureReport describes one failed document.
type FailureReport struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Reason     string `json:"reason" yaml:"reason"`
	Message    string `json:"message" yaml:"message"`
}

// NewRunReport builds the report of a batch result.
func NewRunReport(res *batch.Result, outputDir string) RunReport {
	r := RunReport{
		Documents: len(res.Order),
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		ElapsedMs: res.Elapsed.Milliseconds(),
		OutputDir: outputDir,
	}
	for _, id := range res.Duplicates {
		r.Duplicates = append(r.Duplicates, id.String())
	}
	for _, o := range res.Failures() {
		r.Failures = append(r.Failures, FailureReport{
			DocumentID: o.DocumentID.String(),
			Reason:     string(o.Failure.Reason),
			Message:    o.Failure.Message,
		})
	}
	return r
}

// SummaryReport describes a written summary file.
type SummaryReport struct {
	Path      string `json:"path" yaml:"path"`
	Format    string `json:"format" yaml:"format"`
	Layout    string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Rows      int    `json:"rows" yaml:"rows"`
	Matched   int    `json:"matched" yaml:"matched"`
	Unmatched int    `json:"unmatched" yaml:"unmatched"`
}

// AddSkipped records a report that could not be read. It counts as a
// failed document.
func (r *RunReport) AddSkipped(path string, err error) {
	r.Documents++
	r.Failed++
	r.Failures = append(r.Failures, FailureReport{
		DocumentID: path,
		Reason:     ReasonReadError,
		Message:    err.Error(),
	})
}
