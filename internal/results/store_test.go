package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	sig := signature.Signature{MiT: "miT1", MiN: "miN0", MiM: "miM0", Confidence: 0.5, Rationale: "Läsion < 1 cm"}
	if err := Encode(&buf, sig); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{
  "miTNM_signature": {
    "miT": "miT1",
    "miN": "miN0",
    "miM": "miM0"
  },
  "confidence": 0.5,
  "rationale": "Läsion < 1 cm"
}
`
	if buf.String() != want {
		t.Fatalf("Encode() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestStorePutAndLoad(t *testing.T) {
	tests := []struct {
		name   string
		outDir func(t *testing.T, inputDir string) string
	}{
		{
			name:   "explicit output dir",
			outDir: func(t *testing.T, _ string) string { return filepath.Join(t.TempDir(), "nested", "out") },
		},
		{
			name:   "alongside input",
			outDir: func(*testing.T, string) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputDir := t.TempDir()
			doc := types.Document{ID: "p001", Path: filepath.Join(inputDir, "p001.txt")}
			out := tt.outDir(t, inputDir)

			store := NewStore(out)
			sig := signature.Signature{MiT: "miT3a", MiN: "miN1b", MiM: "miM1a", Confidence: 0.9, Rationale: "r"}
			path, err := store.Put(doc, sig)
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			wantDir := out
			if wantDir == "" {
				wantDir = inputDir
			}
			if path != filepath.Join(wantDir, "p001.json") {
				t.Fatalf("unexpected path %s", path)
			}

			got, anomalies, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got != sig || len(anomalies) != 0 {
				t.Fatalf("Load() = %+v %v, want %+v", got, anomalies, sig)
			}

			entries, _ := os.ReadDir(wantDir)
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".tmp") {
					t.Fatalf("temp file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestStorePutOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	doc := types.Document{ID: "p1"}

	if _, err := store.Put(doc, signature.UnknownSignature("first")); err != nil {
		t.Fatal(err)
	}
	path, err := store.Put(doc, signature.UnknownSignature("second"))
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := Load(path)
	if err != nil || got.Rationale != "second" {
		t.Fatalf("expected second write to win, got %+v, %v", got, err)
	}
}

func writeJSON(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLookupCandidateOrder(t *testing.T) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "reports")
	jsonDir := filepath.Join(root, "json")
	outputsDir := filepath.Join(root, "outputs")

	docs := []types.Document{
		{ID: "a", Path: filepath.Join(inputDir, "a.txt")},
		{ID: "b", Path: filepath.Join(inputDir, "b.txt")},
		{ID: "c", Path: filepath.Join(inputDir, "c.txt")},
		{ID: "d", Path: filepath.Join(inputDir, "d.txt")},
		{ID: "e", Path: filepath.Join(inputDir, "e.txt")},
	}

	sig := func(rationale string) string {
		return `{"miTNM_signature":{"miT":"miT1","miN":"miN0","miM":"miM0"},"confidence":0.5,"rationale":"` + rationale + `"}`
	}
	// a: present everywhere, input dir wins
	writeJSON(t, inputDir, "a.json", sig("input"))
	writeJSON(t, jsonDir, "a.json", sig("json"))
	writeJSON(t, outputsDir, "a.json", sig("outputs"))
	// b: json dir beats outputs
	writeJSON(t, jsonDir, "b.json", sig("json"))
	writeJSON(t, outputsDir, "b.json", sig("outputs"))
	// c: outputs only
	writeJSON(t, outputsDir, "c.json", sig("outputs"))
	// d: undecodable, treated as absent
	writeJSON(t, inputDir, "d.json", "{not json")
	// e: nothing

	lookup := Lookup{JSONDir: jsonDir, OutputsDir: outputsDir}
	sigs := lookup.LoadAll(docs)

	want := map[types.DocumentID]string{"a": "input", "b": "json", "c": "outputs"}
	if len(sigs) != len(want) {
		t.Fatalf("expected %d signatures, got %d: %+v", len(want), len(sigs), sigs)
	}
	for id, rationale := range want {
		if sigs[id].Rationale != rationale {
			t.Errorf("%s: expected %s, got %q", id, rationale, sigs[id].Rationale)
		}
	}
}

func TestLookupCandidatesDeduplicates(t *testing.T) {
	dir := t.TempDir()
	doc := types.Document{ID: "p1", Path: filepath.Join(dir, "p1.txt")}
	got := Lookup{JSONDir: dir + string(filepath.Separator), OutputsDir: filepath.Join(dir, "out")}.Candidates(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique candidates, got %v", got)
	}
}

func TestLookupRevalidates(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "p1.json", `{"miTNM_signature":{"miT":"T2","miN":"miN0","miM":"miM0"},"confidence":"0.4","rationale":"hand edited"}`)

	sigs := Lookup{JSONDir: dir}.LoadAll([]types.Document{{ID: "p1"}})
	got, ok := sigs["p1"]
	if !ok {
		t.Fatal("expected p1 to load")
	}
	if got.MiT != "miT2" || got.Confidence != 0.4 {
		t.Fatalf("expected repaired signature, got %+v", got)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single", "output.json")
	sig := signature.Signature{MiT: "miT4", MiN: "miNX", MiM: "miM1c", Confidence: 1, Rationale: "r"}
	if err := WriteFile(path, sig); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, _, err := Load(path)
	if err != nil || got != sig {
		t.Fatalf("Load() = %+v, %v, want %+v", got, err, sig)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("expected 0644, got %v", info.Mode().Perm())
	}
}
