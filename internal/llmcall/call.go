// Package llmcall provides LLM call recording and querying for traceability.
// Every inference call is recorded with the document it served, the raw
// response and its metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/mitnm/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id" yaml:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	// Context references
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	RequestID  string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Attempt    int    `json:"attempt" yaml:"attempt"`

	// Prompt traceability
	PromptHash string `json:"prompt_hash,omitempty" yaml:"prompt_hash,omitempty"` // SHA256 of the task instruction used

	// Model info
	Provider    string   `json:"provider" yaml:"provider"`
	Model       string   `json:"model" yaml:"model"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`

	// Response
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Response   string `json:"response,omitempty" yaml:"response,omitempty"`

	// Status
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	DocumentID string
	RequestID  string
	Attempt    int
	PromptHash string

	// Used when the call failed before a result existed
	Provider string
	Model    string
	Latency  time.Duration

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	requestID := result.RequestID
	if requestID == "" {
		requestID = opts.RequestID
	}

	return &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		DocumentID:   opts.DocumentID,
		RequestID:    requestID,
		Attempt:      opts.Attempt,
		PromptHash:   opts.PromptHash,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		Temperature:  opts.Temperature,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		StatusCode:   result.StatusCode,
		Response:     result.Content,
		Success:      true,
	}
}

// FromError creates a Call for a request that produced no result.
func FromError(err error, opts RecordOptions) *Call {
	call := &Call{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		LatencyMs:   int(opts.Latency.Milliseconds()),
		DocumentID:  opts.DocumentID,
		RequestID:   opts.RequestID,
		Attempt:     opts.Attempt,
		PromptHash:  opts.PromptHash,
		Provider:    opts.Provider,
		Model:       opts.Model,
		Temperature: opts.Temperature,
	}
	if err != nil {
		call.Error = err.Error()
	}
	if te, ok := providers.IsTransportError(err); ok {
		call.StatusCode = te.StatusCode
	}
	return call
}
