package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName = "openai"

	// Local OpenAI-compatible servers ignore the key but the SDK wants one.
	openAIPlaceholderKey = "local"
)

// OpenAIConfig holds configuration for an OpenAI-compatible chat client.
type OpenAIConfig struct {
	BaseURL      string       // e.g. http://localhost:11434/v1
	APIKey       string       // Optional for local servers
	DefaultModel string       // Used when the request has no model
	HTTPClient   *http.Client // Optional (tests)
}

// OpenAIClient implements LLMClient for OpenAI-compatible chat completion
// endpoints (Ollama /v1, LocalAI, vLLM) using the official OpenAI SDK.
// SDK retries are disabled.
type OpenAIClient struct {
	baseURL      string
	defaultModel string
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OllamaDefaultEndpoint + "/v1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = OllamaDefaultModel
	}
	if cfg.APIKey == "" {
		cfg.APIKey = openAIPlaceholderKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
	}

	return &OpenAIClient{
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Chat sends one chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.ResponseFormat != nil {
		rf, err := openAIResponseFormat(req.ResponseFormat)
		if err != nil {
			return nil, err
		}
		params.ResponseFormat = rf
	}

	callCtx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	var httpResp *http.Response
	completion, err := c.client.Chat.Completions.New(callCtx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return nil, mapOpenAIError(ctx, callCtx, err)
	}
	if len(completion.Choices) == 0 {
		return nil, &TransportError{
			StatusCode: statusOf(httpResp),
			Message:    fmt.Sprintf("empty choices in response (model=%s, id=%s)", completion.Model, completion.ID),
		}
	}

	modelUsed := completion.Model
	if modelUsed == "" {
		modelUsed = model
	}

	return &ChatResult{
		Content:          completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
		StatusCode:       statusOf(httpResp),
		ExecutionTime:    time.Since(start),
		Provider:         OpenAIName,
		ModelUsed:        modelUsed,
		RequestID:        req.RequestID,
	}, nil
}

func openAIResponseFormat(rf *ResponseFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	switch rf.Type {
	case "", FormatJSON:
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}, nil
	case FormatSchema:
		var schema map[string]any
		if err := json.Unmarshal(rf.JSONSchema, &schema); err != nil {
			return openai.ChatCompletionNewParamsResponseFormatUnion{}, fmt.Errorf("invalid JSON schema: %w", err)
		}
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "mitnm_signature",
					Schema: schema,
				},
			},
		}, nil
	default:
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, fmt.Errorf("unsupported response format: %s", rf.Type)
	}
}

// mapOpenAIError converts SDK errors into the client error taxonomy.
func mapOpenAIError(parent, call context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &TransportError{
			StatusCode: apiErr.StatusCode,
			Message:    msg,
			Err:        err,
		}
	}
	return classifyError(parent, call, err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return http.StatusOK
	}
	return resp.StatusCode
}

var _ LLMClient = (*OpenAIClient)(nil)
