package providers

import (
	"os"
)

// TestConfig holds live endpoint settings loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	Endpoint string
	Model    string
}

// LoadTestConfig loads live endpoint settings from environment variables.
// Returns a TestConfig with whatever values are available.
func LoadTestConfig() TestConfig {
	return TestConfig{
		Endpoint: os.Getenv("MITNM_TEST_ENDPOINT"),
		Model:    os.Getenv("MITNM_TEST_MODEL"),
	}
}

// HasOllama returns true if a live Ollama endpoint is configured.
func (c TestConfig) HasOllama() bool {
	return c.Endpoint != ""
}

// NewOllamaClient creates an Ollama client from test config.
// Returns nil if not configured.
func (c TestConfig) NewOllamaClient() *OllamaClient {
	if !c.HasOllama() {
		return nil
	}
	return NewOllamaClient(OllamaConfig{
		Endpoint:     c.Endpoint,
		DefaultModel: c.Model,
	})
}
