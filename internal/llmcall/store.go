package llmcall

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Store provides read access to LLM call records in a JSON lines file.
type Store struct {
	path string
}

// NewStore creates a new LLMCall store over the trace file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	DocumentID string
	Provider   string
	Model      string
	After      *time.Time
	Before     *time.Time
	Success    *bool
	Limit      int
	Offset     int
}

func (f QueryFilter) matches(c *Call) bool {
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}

// List returns calls matching the filter in file order. A missing trace
// file yields no calls.
func (s *Store) List(filter QueryFilter) ([]Call, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	calls, err := ReadCalls(f)
	if err != nil {
		return nil, err
	}

	var out []Call
	skipped := 0
	for i := range calls {
		if !filter.matches(&calls[i]) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, calls[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Get retrieves a single LLM call by ID.
func (s *Store) Get(id string) (*Call, error) {
	calls, err := s.List(QueryFilter{})
	if err != nil {
		return nil, err
	}
	for i := range calls {
		if calls[i].ID == id {
			return &calls[i], nil
		}
	}
	return nil, fmt.Errorf("LLM call not found: %s", id)
}

// ReadCalls decodes every record of a JSON lines stream. Lines that do not
// decode, such as one torn by an interrupted write, are logged and skipped.
func ReadCalls(r io.Reader) ([]Call, error) {
	var calls []Call
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var c Call
		if err := json.Unmarshal(b, &c); err != nil {
			slog.Warn("llmcall.skip_line", "line", line, "error", err)
			continue
		}
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return calls, nil
}
