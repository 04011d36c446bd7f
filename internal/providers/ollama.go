package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	OllamaName            = "ollama"
	OllamaDefaultEndpoint = "http://localhost:11434"
	OllamaDefaultModel    = "gpt-oss:latest"

	// Error bodies are truncated to this many bytes in TransportError.
	maxErrorBody = 400
)

// OllamaConfig holds configuration for the Ollama native chat client.
type OllamaConfig struct {
	Endpoint     string       // Base URL, e.g. http://localhost:11434
	DefaultModel string       // Used when the request has no model
	HTTPClient   *http.Client // Optional (tests)
}

// OllamaClient implements LLMClient against Ollama's /api/chat endpoint
// with streaming disabled.
type OllamaClient struct {
	endpoint     string
	defaultModel string
	client       *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = OllamaDefaultEndpoint
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = OllamaDefaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Per-call timeouts come from the request context.
		httpClient = &http.Client{}
	}
	return &OllamaClient{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		defaultModel: cfg.DefaultModel,
		client:       httpClient,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// Endpoint returns the configured base URL.
func (c *OllamaClient) Endpoint() string {
	return c.endpoint
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// Chat sends one non-streaming chat request.
func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	body := ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
		Options:  ollamaOptions{Temperature: req.Temperature},
	}
	format, err := ollamaFormat(req.ResponseFormat)
	if err != nil {
		return nil, err
	}
	body.Format = format

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(ctx, callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    ollamaErrorMessage(respBody),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		// The envelope is Ollama's, not the model's; a broken one is a
		// transport problem.
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to unmarshal response: %v", err),
			Err:        err,
		}
	}
	if chatResp.Error != "" {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: chatResp.Error}
	}

	modelUsed := chatResp.Model
	if modelUsed == "" {
		modelUsed = model
	}

	return &ChatResult{
		Content:          chatResp.Message.Content,
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
		TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		StatusCode:       resp.StatusCode,
		ExecutionTime:    time.Since(start),
		Provider:         OllamaName,
		ModelUsed:        modelUsed,
		RequestID:        req.RequestID,
	}, nil
}

// ollamaFormat renders the "format" field: the string "json" or a raw
// JSON Schema document.
func ollamaFormat(rf *ResponseFormat) (json.RawMessage, error) {
	if rf == nil {
		return nil, nil
	}
	switch rf.Type {
	case "", FormatJSON:
		return json.RawMessage(`"json"`), nil
	case FormatSchema:
		if len(rf.JSONSchema) == 0 {
			return nil, fmt.Errorf("response format %q requires a JSON schema", FormatSchema)
		}
		return rf.JSONSchema, nil
	default:
		return nil, fmt.Errorf("unsupported response format: %s", rf.Type)
	}
}

// ollamaErrorMessage prefers Ollama's {"error": "..."} body and falls back
// to the truncated raw body.
func ollamaErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}

var _ LLMClient = (*OllamaClient)(nil)
