package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockResponse is one scripted reply of a MockClient.
type MockResponse struct {
	Content string
	Err     error
}

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string

	// Responses are consumed in order, one per request. When exhausted
	// the client falls back to ResponseText.
	Responses []MockResponse

	// Respond, when set, decides every reply and overrides Responses.
	Respond func(req *ChatRequest) (string, error)

	// State
	mu           sync.Mutex
	requests     []ChatRequest
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: `{"miTNM_signature":{"miT":"unknown","miN":"unknown","miM":"unknown"},"confidence":0.0,"rationale":"mock response"}`,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the next scripted response.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, *req)
	c.mu.Unlock()

	if c.ShouldFail {
		return nil, &TransportError{Message: "mock client configured to fail"}
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return nil, &TransportError{Message: fmt.Sprintf("mock client failed after %d requests", c.FailAfter)}
	}

	// Simulate latency
	if c.Latency > 0 {
		callCtx, cancel := withTimeout(ctx, req.Timeout)
		defer cancel()
		select {
		case <-time.After(c.Latency):
		case <-callCtx.Done():
			return nil, classifyError(ctx, callCtx, callCtx.Err())
		}
	}

	content, err := c.next(req, int(count))
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Content:       content,
		StatusCode:    200,
		ExecutionTime: time.Since(start),
		Provider:      MockClientName,
		ModelUsed:     req.Model,
		RequestID:     req.RequestID,
	}, nil
}

func (c *MockClient) next(req *ChatRequest, count int) (string, error) {
	if c.Respond != nil {
		return c.Respond(req)
	}
	if count <= len(c.Responses) {
		r := c.Responses[count-1]
		return r.Content, r.Err
	}
	return c.ResponseText, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns a copy of every request received so far.
func (c *MockClient) Requests() []ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset resets the request counter and history.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
