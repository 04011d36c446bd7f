package llmcall

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/mitnm/internal/providers"
)

// Recorder appends LLM call records to a JSON lines stream.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, logger: logger}
}

// OpenFile creates a recorder appending to the file at path, creating
// parent directories as needed.
func OpenFile(path string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	r := NewRecorder(f, logger)
	r.closer = f
	return r, nil
}

// Record captures a successful call.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	if r == nil {
		return
	}
	r.RecordCall(FromChatResult(result, opts))
}

// RecordError captures a failed call.
func (r *Recorder) RecordError(err error, opts RecordOptions) {
	if r == nil {
		return
	}
	r.RecordCall(FromError(err, opts))
}

// RecordCall writes an already-constructed Call. Write failures are logged,
// never returned: tracing must not fail an extraction.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}

	data, err := json.Marshal(call)
	if err != nil {
		r.logger.Warn("failed to serialize LLM call record", "error", err, "call_id", call.ID)
		return
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(data); err != nil {
		r.logger.Warn("failed to write LLM call record", "error", err, "call_id", call.ID)
	}
}

// Close closes the underlying file, if the recorder owns one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
