package config

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry represents a single configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every known configuration key with its default.
// The values come from DefaultConfig so the two never drift apart.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Inference
		// ===================
		{
			Key:         "inference.provider",
			Value:       d.Inference.Provider,
			Description: "Inference client type: ollama, openai or mock",
		},
		{
			Key:         "inference.endpoint",
			Value:       d.Inference.Endpoint,
			Description: "Base URL of the inference server",
		},
		{
			Key:         "inference.model",
			Value:       d.Inference.Model,
			Description: "Model identifier sent with every request",
		},
		{
			Key:         "inference.temperature",
			Value:       d.Inference.Temperature,
			Description: "Sampling temperature (low values keep extraction deterministic)",
		},
		{
			Key:         "inference.timeout_seconds",
			Value:       d.Inference.TimeoutSeconds,
			Description: "Timeout in seconds for a single inference call",
		},
		{
			Key:         "inference.retry_delay_ms",
			Value:       d.Inference.RetryDelayMs,
			Description: "Pause in milliseconds before the single retry of a failed call",
		},
		{
			Key:         "inference.format",
			Value:       d.Inference.Format,
			Description: "Response constraint: json (any JSON object) or schema (signature JSON Schema)",
		},
		{
			Key:         "inference.api_key",
			Value:       d.Inference.APIKey,
			Description: "API key for OpenAI-compatible servers (supports ${ENV_VAR})",
		},

		// ===================
		// Batch
		// ===================
		{
			Key:         "batch.pattern",
			Value:       d.Batch.Pattern,
			Description: "Glob pattern selecting report files in a directory",
		},
		{
			Key:         "batch.output_dir",
			Value:       d.Batch.OutputDir,
			Description: "Directory for signature files (empty writes next to each report)",
		},

		// ===================
		// Summary
		// ===================
		{
			Key:         "summary.max_preview_chars",
			Value:       d.Summary.MaxPreviewChars,
			Description: "Characters of report text in the preview column (-1 for the full text)",
		},
		{
			Key:         "summary.format",
			Value:       d.Summary.Format,
			Description: "Summary file format: csv or xlsx",
		},
		{
			Key:         "summary.layout",
			Value:       d.Summary.Layout,
			Description: "CSV layout: full or overview",
		},

		// ===================
		// Trace
		// ===================
		{
			Key:         "trace.enabled",
			Value:       d.Trace.Enabled,
			Description: "Record every inference call to the JSONL trace in the home directory",
		},
	}
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// ParseValue converts a command-line string to the type of the key's
// default value.
func ParseValue(key, raw string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	def := GetDefault(key)
	if def == nil {
		return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}

	switch def.Value.(type) {
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean: %w", key, err)
		}
		return v, nil
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer: %w", key, err)
		}
		return v, nil
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number: %w", key, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}
