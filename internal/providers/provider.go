package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient sends one synchronous chat request to a model-serving endpoint.
// Implementations never retry; callers own the retry policy.
type LLMClient interface {
	// Chat sends a chat request and returns the raw message content
	// unmodified. It fails with ErrTimeout when req.Timeout elapses and
	// with *TransportError for connection failures and non-2xx statuses.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "ollama").
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Response format modes understood by the clients.
const (
	FormatJSON   = "json"   // Free-form JSON object
	FormatSchema = "schema" // JSON constrained by ResponseFormat.JSONSchema
)

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // FormatJSON or FormatSchema
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM. It is built fresh per document.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"-"` // Per-call bound, 0 means no client-side limit

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the response from a successful LLM call.
type ChatResult struct {
	// Response content, exactly as returned by the model
	Content string `json:"content"`

	// Token counts, when the endpoint reports them
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Transport
	StatusCode    int           `json:"status_code"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
}

// withTimeout derives the per-call context. The returned context reports
// context.DeadlineExceeded when the request timeout (not the parent) fired.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
