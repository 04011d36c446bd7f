// Package extract turns one clinical report into a validated miTNM
// Signature: it builds the inference request, dispatches it with a single
// retry on transient failures, and repairs the model response.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/jackzampolin/mitnm/internal/llmcall"
	"github.com/jackzampolin/mitnm/internal/providers"
	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

// Defaults for a local Ollama server.
const (
	DefaultTemperature = 0.1
	DefaultTimeout     = 120 * time.Second

	// One initial attempt plus exactly one retry.
	maxAttempts = 2
)

// ExtractorConfig configures a new Extractor.
type ExtractorConfig struct {
	Client providers.LLMClient
	Logger *slog.Logger

	// Recorder receives every inference call (optional)
	Recorder *llmcall.Recorder

	Model       string        // Empty uses the client default
	Temperature float64       // Sampling temperature
	Timeout     time.Duration // Per-call bound; 0 uses DefaultTimeout
	RetryDelay  time.Duration // Pause before the single retry
	Format      string        // providers.FormatJSON (default) or providers.FormatSchema
}

// Extractor runs the request → retry → parse → validate chain for one
// document at a time. It holds no per-document state.
type Extractor struct {
	client      providers.LLMClient
	logger      *slog.Logger
	recorder    *llmcall.Recorder
	model       string
	temperature float64
	timeout     time.Duration
	retryDelay  time.Duration
	format      *providers.ResponseFormat
}

// NewExtractor creates a new Extractor.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("extractor requires an LLM client")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("retry delay must not be negative")
	}

	var format *providers.ResponseFormat
	switch cfg.Format {
	case "", providers.FormatJSON:
		format = &providers.ResponseFormat{Type: providers.FormatJSON}
	case providers.FormatSchema:
		format = &providers.ResponseFormat{
			Type:       providers.FormatSchema,
			JSONSchema: signature.JSONSchema(),
		}
	default:
		return nil, fmt.Errorf("unknown response format %q (want %s or %s)", cfg.Format, providers.FormatJSON, providers.FormatSchema)
	}

	return &Extractor{
		client:      cfg.Client,
		logger:      logger,
		recorder:    cfg.Recorder,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		retryDelay:  cfg.RetryDelay,
		format:      format,
	}, nil
}

// BuildRequest assembles the chat request for one document.
func (e *Extractor) BuildRequest(doc types.Document, prompt Prompt) *providers.ChatRequest {
	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: prompt.UserMessage(doc.Text)},
		},
		Model:          e.model,
		Temperature:    e.temperature,
		Timeout:        e.timeout,
		ResponseFormat: e.format,
		RequestID:      uuid.New().String(),
	}
}

// Extract produces the Outcome for one document. Timeouts and transport
// errors get exactly one more attempt; an unparseable response does not.
func (e *Extractor) Extract(ctx context.Context, doc types.Document, prompt Prompt) Outcome {
	start := time.Now()
	req := e.BuildRequest(doc, prompt)
	promptHash := prompt.Hash()

	logger := e.logger.With("doc_id", doc.ID.String(), "req_id", req.RequestID)
	logger.Debug("extract.start", "provider", e.client.Name(), "model", req.Model, "chars", len(doc.Text))

	out := Outcome{DocumentID: doc.ID, RequestID: req.RequestID}

	temp := e.temperature
	result, err := retry.DoWithData(
		func() (*providers.ChatResult, error) {
			out.Attempts++
			callStart := time.Now()
			res, err := e.client.Chat(ctx, req)
			opts := llmcall.RecordOptions{
				DocumentID:  doc.ID.String(),
				RequestID:   req.RequestID,
				Attempt:     out.Attempts,
				PromptHash:  promptHash,
				Provider:    e.client.Name(),
				Model:       req.Model,
				Latency:     time.Since(callStart),
				Temperature: &temp,
			}
			if err != nil {
				e.recorder.RecordError(err, opts)
				return nil, err
			}
			e.recorder.Record(res, opts)
			return res, nil
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.RetryIf(providers.IsTransient),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(e.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("extract.retry", "failed_attempt", n+1, "error", err)
		}),
	)
	out.Elapsed = time.Since(start)

	if err != nil {
		out.Failure = classify(ctx, err)
		logger.Warn("extract.failure",
			"reason", out.Failure.Reason,
			"error", out.Failure.Message,
			"attempts", out.Attempts,
			"elapsed_ms", out.Elapsed.Milliseconds())
		return out
	}

	sig, anomalies, failure := Parse(result.Content)
	if failure != nil {
		out.Failure = failure
		logger.Warn("extract.failure",
			"reason", failure.Reason,
			"error", failure.Message,
			"attempts", out.Attempts,
			"elapsed_ms", out.Elapsed.Milliseconds())
		return out
	}

	out.Signature = sig
	out.Anomalies = anomalies
	for _, a := range anomalies {
		logger.Warn("extract.schema_anomaly", "field", a.Field, "kind", a.Kind, "value", a.Value)
	}

	logger.Info("extract.complete",
		"signature", sig.Display(),
		"confidence", sig.Confidence,
		"anomalies", len(anomalies),
		"attempts", out.Attempts,
		"elapsed_ms", out.Elapsed.Milliseconds())
	return out
}

// classify maps the final dispatch error onto a Failure.
func classify(ctx context.Context, err error) *Failure {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return &Failure{Reason: ReasonCanceled, Message: err.Error()}
	}
	if errors.Is(err, providers.ErrTimeout) {
		return &Failure{Reason: ReasonTimeout, Message: err.Error()}
	}
	// Everything else is a failed exchange with the endpoint, including
	// requests the client refused to build.
	return &Failure{Reason: ReasonTransport, Message: err.Error()}
}
