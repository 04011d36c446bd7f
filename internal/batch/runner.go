// Package batch runs extraction over an ordered set of documents with
// partial-failure semantics: one document failing never stops the others.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/mitnm/internal/extract"
	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

// Extractor produces the outcome for one document.
type Extractor interface {
	Extract(ctx context.Context, doc types.Document, prompt extract.Prompt) extract.Outcome
}

// Sink receives each outcome as soon as it is known, so results survive an
// interrupted run.
type Sink interface {
	Save(doc types.Document, out extract.Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(doc types.Document, out extract.Outcome) error

// Save calls f.
func (f SinkFunc) Save(doc types.Document, out extract.Outcome) error {
	return f(doc, out)
}

// Result holds one outcome per distinct input document.
type Result struct {
	Order      []types.DocumentID                   `json:"order"`
	Outcomes   map[types.DocumentID]extract.Outcome `json:"outcomes"`
	Duplicates []types.DocumentID                   `json:"duplicates,omitempty"`
	Succeeded  int                                  `json:"succeeded"`
	Failed     int                                  `json:"failed"`
	Elapsed    time.Duration                        `json:"elapsed"`
}

// Failures returns the failed outcomes in input order.
func (r *Result) Failures() []extract.Outcome {
	var out []extract.Outcome
	for _, id := range r.Order {
		if o := r.Outcomes[id]; !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Signatures returns the signatures of the successful documents.
func (r *Result) Signatures() map[types.DocumentID]signature.Signature {
	sigs := make(map[types.DocumentID]signature.Signature, r.Succeeded)
	for id, o := range r.Outcomes {
		if o.OK() {
			sigs[id] = o.Signature
		}
	}
	return sigs
}

// RunnerConfig configures a new Runner.
type RunnerConfig struct {
	Extractor Extractor
	Logger    *slog.Logger

	// Sink for incremental persistence (optional)
	Sink Sink
}

// Runner processes documents sequentially.
type Runner struct {
	extractor Extractor
	sink      Sink
	logger    *slog.Logger
}

// NewRunner creates a new Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		extractor: cfg.Extractor,
		sink:      cfg.Sink,
		logger:    logger,
	}
}

// Run extracts every document in order. Every distinct id gets exactly one
// outcome; a repeated id keeps its first document and the rest are logged
// and skipped. Once ctx is done, the remaining documents are marked
// canceled without contacting the endpoint.
func (r *Runner) Run(ctx context.Context, docs []types.Document, prompt extract.Prompt) *Result {
	start := time.Now()
	result := &Result{
		Order:    make([]types.DocumentID, 0, len(docs)),
		Outcomes: make(map[types.DocumentID]extract.Outcome, len(docs)),
	}

	r.logger.Info("batch.start", "documents", len(docs))

	for i, doc := range docs {
		if _, seen := result.Outcomes[doc.ID]; seen {
			r.logger.Warn("batch.duplicate", "doc_id", doc.ID.String(), "path", doc.Path)
			result.Duplicates = append(result.Duplicates, doc.ID)
			continue
		}

		var out extract.Outcome
		if err := ctx.Err(); err != nil {
			out = extract.Failed(doc.ID, extract.ReasonCanceled, err.Error())
		} else {
			r.logger.Debug("batch.document", "doc_id", doc.ID.String(), "index", i+1, "of", len(docs))
			out = r.extractor.Extract(ctx, doc, prompt)
			out.DocumentID = doc.ID
		}

		result.Order = append(result.Order, doc.ID)
		result.Outcomes[doc.ID] = out
		if out.OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}

		if r.sink != nil {
			if err := r.sink.Save(doc, out); err != nil {
				r.logger.Error("batch.sink_error", "doc_id", doc.ID.String(), "error", err)
			}
		}
	}

	result.Elapsed = time.Since(start)

	r.logger.Info("batch.complete",
		"documents", len(result.Order),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duplicates", len(result.Duplicates),
		"elapsed_ms", result.Elapsed.Milliseconds())
	for _, o := range result.Failures() {
		r.logger.Warn("batch.failure",
			"doc_id", o.DocumentID.String(),
			"reason", o.Failure.Reason,
			"error", o.Failure.Message)
	}

	return result
}
