package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/mitnm/internal/types"
)

func TestSortByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted",
			input:    []string{"p1.txt", "p2.txt", "p3.txt"},
			expected: []string{"p1.txt", "p2.txt", "p3.txt"},
		},
		{
			name:     "reverse order",
			input:    []string{"p3.txt", "p2.txt", "p1.txt"},
			expected: []string{"p1.txt", "p2.txt", "p3.txt"},
		},
		{
			name:     "mixed with double digits",
			input:    []string{"p10.txt", "p2.txt", "p1.txt"},
			expected: []string{"p1.txt", "p2.txt", "p10.txt"},
		},
		{
			name:     "zero padded",
			input:    []string{"patient_010.txt", "patient_002.txt", "patient_2.txt"},
			expected: []string{"patient_2.txt", "patient_002.txt", "patient_010.txt"},
		},
		{
			name:     "unnumbered",
			input:    []string{"beta.txt", "alpha.txt"},
			expected: []string{"alpha.txt", "beta.txt"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"report-2.txt", "report.txt", "report-1.txt"},
			expected: []string{"report-1.txt", "report-2.txt", "report.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sortByNumber(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p10.txt", "ten")
	writeFile(t, dir, "p2.txt", "  two\n")
	writeFile(t, dir, "p1.txt", "one")
	writeFile(t, dir, "notes.md", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := LoadDir(Request{Dir: dir})
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	want := []types.DocumentID{"p1", "p2", "p10"}
	if len(result.Documents) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(result.Documents))
	}
	for i, id := range want {
		if result.Documents[i].ID != id {
			t.Errorf("index %d: got %q, want %q", i, result.Documents[i].ID, id)
		}
	}
	if result.Documents[1].Text != "two" {
		t.Errorf("expected trimmed text, got %q", result.Documents[1].Text)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("expected no skipped files, got %v", result.Skipped)
	}
}

func TestLoadDirCustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.report", "x")
	writeFile(t, dir, "b.txt", "y")

	result, err := LoadDir(Request{Dir: dir, Pattern: "*.report"})
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(result.Documents) != 1 || result.Documents[0].ID != "a" {
		t.Fatalf("unexpected documents: %+v", result.Documents)
	}
}

func TestLoadDirSkipsSignatureFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.txt", "report")
	writeFile(t, dir, "p1.json", `{"miTNM_signature":{}}`)
	writeFile(t, dir, "p2.JSON", "{}")

	result, err := LoadDir(Request{Dir: dir, Pattern: "*"})
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(result.Documents) != 1 {
		t.Fatalf("expected only the report, got %+v", result.Documents)
	}
	if doc := result.Documents[0]; doc.ID != "p1" || doc.Text != "report" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestLoadDirErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadDir(Request{Dir: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing directory")
	}
	file := writeFile(t, dir, "file.md", "x")
	if _, err := LoadDir(Request{Dir: file}); err == nil {
		t.Error("expected error when dir is a file")
	}
	if _, err := LoadDir(Request{Dir: dir}); err == nil {
		t.Error("expected error when nothing matches")
	}
	if _, err := LoadDir(Request{Dir: dir, Pattern: "["}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "p001.txt", "\nPSMA PET report\n")

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if doc.ID != "p001" || doc.Path != path || doc.Text != "PSMA PET report" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
