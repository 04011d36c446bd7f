package config

import (
	"errors"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	// Verify required keys exist
	requiredKeys := []string{
		"inference.provider",
		"inference.endpoint",
		"inference.model",
		"inference.temperature",
		"inference.timeout_seconds",
		"inference.retry_delay_ms",
		"inference.format",
		"inference.api_key",
		"batch.pattern",
		"batch.output_dir",
		"summary.max_preview_chars",
		"summary.format",
		"summary.layout",
		"trace.enabled",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("duplicate key %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("%s has no description", e.Key)
		}
		if err := ValidateKey(e.Key); err != nil {
			t.Errorf("%s: %v", e.Key, err)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("inference.provider")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "ollama" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "ollama")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"inference.model", false},
		{"summary.max_preview_chars", false},
		{"a-b.c_d", false},
		{"", true},
		{".leading", true},
		{"trailing.", true},
		{"has space", true},
		{"semi;colon", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		raw     string
		want    any
		wantErr bool
	}{
		{"inference.model", "llama3", "llama3", false},
		{"inference.temperature", "0.25", 0.25, false},
		{"inference.timeout_seconds", "60", 60, false},
		{"summary.max_preview_chars", "-1", -1, false},
		{"trace.enabled", "false", false, false},
		{"inference.timeout_seconds", "1.5", nil, true},
		{"inference.temperature", "warm", nil, true},
		{"trace.enabled", "maybe", nil, true},
		{"unknown.key", "x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.key, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}

	if _, err := ParseValue("unknown.key", "x"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("expected ErrNoDefault, got %v", err)
	}
}
