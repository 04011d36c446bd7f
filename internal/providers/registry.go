package providers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ClientConfig selects and configures an LLM client.
// This mirrors config.InferenceCfg with the API key resolved.
type ClientConfig struct {
	Type       string // "ollama" (default), "openai", "mock"
	Endpoint   string // Base URL of the server
	Model      string // Default model
	APIKey     string // Only used by "openai"
	HTTPClient *http.Client
}

type clientFactory func(cfg ClientConfig) LLMClient

var clientFactories = map[string]clientFactory{
	OllamaName: func(cfg ClientConfig) LLMClient {
		return NewOllamaClient(OllamaConfig{
			Endpoint:     cfg.Endpoint,
			DefaultModel: cfg.Model,
			HTTPClient:   cfg.HTTPClient,
		})
	},
	OpenAIName: func(cfg ClientConfig) LLMClient {
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:      openAIBaseURL(cfg.Endpoint),
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			HTTPClient:   cfg.HTTPClient,
		})
	},
	MockClientName: func(ClientConfig) LLMClient {
		return NewMockClient()
	},
}

// NewClient creates an LLM client based on provider type.
func NewClient(cfg ClientConfig) (LLMClient, error) {
	typ := cfg.Type
	if typ == "" {
		typ = OllamaName
	}
	factory, ok := clientFactories[typ]
	if !ok {
		return nil, fmt.Errorf("unknown provider type %q (available: %s)", typ, strings.Join(ClientTypes(), ", "))
	}
	return factory(cfg), nil
}

// ClientTypes returns the registered provider type names, sorted.
func ClientTypes() []string {
	names := make([]string, 0, len(clientFactories))
	for name := range clientFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// openAIBaseURL appends /v1 to a bare server URL, so one endpoint setting
// works for both the native and the OpenAI-compatible Ollama APIs.
func openAIBaseURL(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(endpoint, "/v1") {
		return endpoint
	}
	return endpoint + "/v1"
}
