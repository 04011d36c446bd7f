package llmcall

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/mitnm/internal/providers"
)

func TestRecorderWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf, nil)

	temp := 0.1
	rec.Record(&providers.ChatResult{
		Content:          `{"a":1}`,
		PromptTokens:     10,
		CompletionTokens: 3,
		StatusCode:       200,
		ExecutionTime:    1500 * time.Millisecond,
		Provider:         "ollama",
		ModelUsed:        "gpt-oss:latest",
		RequestID:        "req-1",
	}, RecordOptions{DocumentID: "p001", Attempt: 1, Temperature: &temp})
	rec.RecordError(&providers.TransportError{StatusCode: 502, Message: "bad gateway"}, RecordOptions{
		DocumentID: "p002",
		RequestID:  "req-2",
		Attempt:    2,
		Provider:   "ollama",
	})

	calls, err := ReadCalls(&buf)
	if err != nil {
		t.Fatalf("ReadCalls() error = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}

	ok := calls[0]
	if !ok.Success || ok.DocumentID != "p001" || ok.LatencyMs != 1500 || ok.RequestID != "req-1" {
		t.Fatalf("unexpected success record: %+v", ok)
	}
	if ok.Temperature == nil || *ok.Temperature != 0.1 {
		t.Fatalf("expected temperature 0.1, got %v", ok.Temperature)
	}

	failed := calls[1]
	if failed.Success || failed.StatusCode != 502 || failed.Attempt != 2 {
		t.Fatalf("unexpected failure record: %+v", failed)
	}
	if failed.Error == "" || failed.ID == "" || failed.ID == ok.ID {
		t.Fatalf("expected distinct ids and an error message: %+v", failed)
	}
}

func TestReadCallsSkipsTornLine(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf, nil)
	rec.Record(&providers.ChatResult{Provider: "ollama"}, RecordOptions{DocumentID: "p001"})
	buf.WriteString(`{"id":"torn","document_id":"p0` + "\n")
	rec.Record(&providers.ChatResult{Provider: "ollama"}, RecordOptions{DocumentID: "p002"})

	calls, err := ReadCalls(&buf)
	if err != nil {
		t.Fatalf("ReadCalls() error = %v", err)
	}
	if len(calls) != 2 || calls[0].DocumentID != "p001" || calls[1].DocumentID != "p002" {
		t.Fatalf("expected the two intact records, got %+v", calls)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(&providers.ChatResult{}, RecordOptions{})
	rec.RecordError(errors.New("x"), RecordOptions{})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestStoreList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "calls.jsonl")

	rec, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	for _, doc := range []string{"p001", "p002", "p001"} {
		rec.Record(&providers.ChatResult{Provider: "ollama", ModelUsed: "m"}, RecordOptions{DocumentID: doc})
	}
	rec.RecordError(errors.New("boom"), RecordOptions{DocumentID: "p003"})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store := NewStore(path)

	all, err := store.List(QueryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(all))
	}

	byDoc, _ := store.List(QueryFilter{DocumentID: "p001"})
	if len(byDoc) != 2 {
		t.Fatalf("expected 2 calls for p001, got %d", len(byDoc))
	}

	failed := false
	failures, _ := store.List(QueryFilter{Success: &failed})
	if len(failures) != 1 || failures[0].DocumentID != "p003" {
		t.Fatalf("expected the p003 failure, got %+v", failures)
	}

	page, _ := store.List(QueryFilter{Offset: 1, Limit: 2})
	if len(page) != 2 || page[0].ID != all[1].ID {
		t.Fatalf("unexpected page: %+v", page)
	}

	got, err := store.Get(all[2].ID)
	if err != nil || got.DocumentID != "p001" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if _, err := store.Get("missing"); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestStoreMissingFile(t *testing.T) {
	calls, err := NewStore(filepath.Join(t.TempDir(), "none.jsonl")).List(QueryFilter{})
	if err != nil || calls != nil {
		t.Fatalf("expected no calls and no error, got %v, %v", calls, err)
	}
}
