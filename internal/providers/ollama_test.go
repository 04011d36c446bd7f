package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaChatSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-oss:latest","message":{"role":"assistant","content":"  {\"a\":1}  "},"done":true,"prompt_eval_count":12,"eval_count":5}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{Endpoint: server.URL + "/"})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "report"},
		},
		Temperature:    0.1,
		Timeout:        5 * time.Second,
		ResponseFormat: &ResponseFormat{Type: FormatJSON},
		RequestID:      "req-1",
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	// Content is returned unmodified, whitespace included.
	if result.Content != `  {"a":1}  ` {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.StatusCode)
	}
	if result.TotalTokens != 17 {
		t.Fatalf("expected 17 total tokens, got %d", result.TotalTokens)
	}
	if result.RequestID != "req-1" || result.Provider != OllamaName {
		t.Fatalf("unexpected tracking fields: %+v", result)
	}

	if got, _ := payload["model"].(string); got != OllamaDefaultModel {
		t.Fatalf("expected default model, got %q", got)
	}
	if got, _ := payload["format"].(string); got != "json" {
		t.Fatalf("expected format json, got %v", payload["format"])
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream false, got %v", payload["stream"])
	}
	opts, _ := payload["options"].(map[string]any)
	if got, _ := opts["temperature"].(float64); got != 0.1 {
		t.Fatalf("expected temperature 0.1, got %v", opts["temperature"])
	}
	msgs, _ := payload["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestOllamaChatSchemaFormat(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{}"},"done":true}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{Endpoint: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Model:    "llama3",
		Messages: []Message{{Role: "user", Content: "x"}},
		ResponseFormat: &ResponseFormat{
			Type:       FormatSchema,
			JSONSchema: json.RawMessage(`{"type":"object"}`),
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	format, ok := payload["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Fatalf("expected schema object as format, got %v", payload["format"])
	}
	if payload["model"] != "llama3" {
		t.Fatalf("expected request model to win, got %v", payload["model"])
	}
}

func TestOllamaChatNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{Endpoint: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Model:    "nope",
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	te, ok := IsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", te.StatusCode)
	}
	if te.Message != "model 'nope' not found" {
		t.Fatalf("unexpected message: %q", te.Message)
	}
	if !IsTransient(err) {
		t.Fatal("expected transport error to be transient")
	}
}

func TestOllamaChatConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewOllamaClient(OllamaConfig{Endpoint: url})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
		Timeout:  2 * time.Second,
	})
	te, ok := IsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.StatusCode != 0 {
		t.Fatalf("expected no status for refused connection, got %d", te.StatusCode)
	}
}

// blockingServer returns a server whose handler drains the request body and
// then waits until the client goes away or the test ends.
func blockingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only notices a client disconnect once the body is read.
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	return server
}

func TestOllamaChatTimeout(t *testing.T) {
	server := blockingServer(t)

	client := NewOllamaClient(OllamaConfig{Endpoint: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
		Timeout:  50 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %T: %v", err, err)
	}
	if !IsTransient(err) {
		t.Fatal("expected timeout to be transient")
	}
}

func TestOllamaChatParentCanceled(t *testing.T) {
	server := blockingServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewOllamaClient(OllamaConfig{Endpoint: server.URL})
	_, err := client.Chat(ctx, &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
		Timeout:  5 * time.Second,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsTransient(err) {
		t.Fatal("cancellation must not be transient")
	}
}

func TestOllamaErrorMessageTruncates(t *testing.T) {
	body := strings.Repeat("x", maxErrorBody+50)
	if got := ollamaErrorMessage([]byte(body)); len(got) != maxErrorBody {
		t.Fatalf("expected %d chars, got %d", maxErrorBody, len(got))
	}
}

func TestOllamaLive(t *testing.T) {
	cfg := LoadTestConfig()
	client := cfg.NewOllamaClient()
	if client == nil {
		t.Skip("MITNM_TEST_ENDPOINT not set")
	}

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: `Reply with {"ok": true}`}},
		Timeout:        2 * time.Minute,
		ResponseFormat: &ResponseFormat{Type: FormatJSON},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content == "" {
		t.Fatal("expected non-empty content")
	}
}
