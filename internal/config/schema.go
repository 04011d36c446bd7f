package config

import (
	"fmt"
	"time"

	"github.com/jackzampolin/mitnm/internal/providers"
)

// Config holds mitnm configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	Inference InferenceCfg `mapstructure:"inference" yaml:"inference" json:"inference"`
	Batch     BatchCfg     `mapstructure:"batch" yaml:"batch" json:"batch"`
	Summary   SummaryCfg   `mapstructure:"summary" yaml:"summary" json:"summary"`
	Trace     TraceCfg     `mapstructure:"trace" yaml:"trace" json:"trace"`
}

// InferenceCfg configures the inference endpoint and how it is called.
type InferenceCfg struct {
	Provider       string  `mapstructure:"provider" yaml:"provider" json:"provider"`                      // "ollama", "openai", "mock"
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`                      // Base URL of the server
	Model          string  `mapstructure:"model" yaml:"model" json:"model"`                               // Model identifier
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`             // Sampling temperature
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"` // Per-call timeout
	RetryDelayMs   int     `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms" json:"retry_delay_ms"`    // Pause before the single retry
	Format         string  `mapstructure:"format" yaml:"format" json:"format"`                            // "json" or "schema"
	APIKey         string  `mapstructure:"api_key" yaml:"api_key" json:"api_key"`                         // API key (supports ${ENV_VAR} syntax)
}

// BatchCfg configures batch discovery and output.
type BatchCfg struct {
	Pattern   string `mapstructure:"pattern" yaml:"pattern" json:"pattern"`          // Glob for report files
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"` // Empty writes next to each report
}

// SummaryCfg configures the tabular summary.
type SummaryCfg struct {
	MaxPreviewChars int    `mapstructure:"max_preview_chars" yaml:"max_preview_chars" json:"max_preview_chars"` // -1 keeps the full text
	Format          string `mapstructure:"format" yaml:"format" json:"format"`                                  // "csv" or "xlsx"
	Layout          string `mapstructure:"layout" yaml:"layout" json:"layout"`                                  // "full" or "overview"
}

// TraceCfg controls the JSONL call trace.
type TraceCfg struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceCfg{
			Provider:       providers.OllamaName,
			Endpoint:       providers.OllamaDefaultEndpoint,
			Model:          providers.OllamaDefaultModel,
			Temperature:    0.1,
			TimeoutSeconds: 120,
			RetryDelayMs:   1000,
			Format:         providers.FormatJSON,
		},
		Batch: BatchCfg{
			Pattern: "*.txt",
		},
		Summary: SummaryCfg{
			MaxPreviewChars: 500,
			Format:          "csv",
			Layout:          "full",
		},
		Trace: TraceCfg{
			Enabled: true,
		},
	}
}

// Timeout returns the per-call timeout.
func (c InferenceCfg) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause before the retry.
func (c InferenceCfg) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// ClientConfig converts the inference settings to a providers.ClientConfig.
// It resolves ${ENV_VAR} references in the API key.
func (c InferenceCfg) ClientConfig() providers.ClientConfig {
	return providers.ClientConfig{
		Type:     c.Provider,
		Endpoint: c.Endpoint,
		Model:    c.Model,
		APIKey:   ResolveEnvVars(c.APIKey),
	}
}

// Validate checks values that would otherwise fail late, in the middle of
// a batch.
func (c *Config) Validate() error {
	in := c.Inference
	if in.Model == "" {
		return fmt.Errorf("inference.model is required")
	}
	if in.TimeoutSeconds <= 0 {
		return fmt.Errorf("inference.timeout_seconds must be positive, got %d", in.TimeoutSeconds)
	}
	if in.RetryDelayMs < 0 {
		return fmt.Errorf("inference.retry_delay_ms must not be negative, got %d", in.RetryDelayMs)
	}
	if in.Temperature < 0 || in.Temperature > 2 {
		return fmt.Errorf("inference.temperature must be in [0,2], got %v", in.Temperature)
	}
	switch in.Format {
	case providers.FormatJSON, providers.FormatSchema:
	default:
		return fmt.Errorf("inference.format must be %q or %q, got %q", providers.FormatJSON, providers.FormatSchema, in.Format)
	}
	switch c.Summary.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("summary.format must be csv or xlsx, got %q", c.Summary.Format)
	}
	return nil
}
