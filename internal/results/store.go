// Package results persists signatures as <stem>.json files and finds them
// again for aggregation.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

// Ext is the file extension of a persisted signature.
const Ext = ".json"

// Encode writes sig as indented JSON followed by a newline. Non-ASCII text
// is written as-is.
func Encode(w io.Writer, sig signature.Signature) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(sig)
}

// Store writes one signature file per document.
type Store struct {
	dir string
}

// NewStore creates a store writing into dir. With an empty dir each file
// is written alongside its input report.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// PathFor returns where the signature of doc is written.
func (s *Store) PathFor(doc types.Document) string {
	name := doc.ID.String() + Ext
	if s.dir != "" {
		return filepath.Join(s.dir, name)
	}
	return filepath.Join(filepath.Dir(doc.Path), name)
}

// Put writes the signature of doc and returns the file path.
func (s *Store) Put(doc types.Document, sig signature.Signature) (string, error) {
	path := s.PathFor(doc)
	if err := WriteFile(path, sig); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes sig to path, creating parent directories. The file is
// replaced atomically, so an interrupted run never leaves a torn file.
func WriteFile(path string, sig signature.Signature) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, sig); err != nil {
		return fmt.Errorf("failed to encode signature: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write signature: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move signature into place: %w", err)
	}
	return nil
}

// Load reads a signature file and re-validates it. Anomalies are returned
// for files that were edited by hand or written by another tool.
func Load(path string) (signature.Signature, []signature.Anomaly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.Signature{}, nil, err
	}
	sig, anomalies, err := signature.Decode(data)
	if err != nil {
		return signature.Signature{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return sig, anomalies, nil
}

// Lookup finds persisted signatures for documents. For each document the
// candidates are, in order: the report's own directory, JSONDir, then
// OutputsDir. The first existing file wins.
type Lookup struct {
	JSONDir    string
	OutputsDir string
	Logger     *slog.Logger
}

// Candidates returns the paths probed for doc, in priority order, without
// duplicates.
func (l Lookup) Candidates(doc types.Document) []string {
	name := doc.ID.String() + Ext
	var dirs []string
	if doc.Path != "" {
		dirs = append(dirs, filepath.Dir(doc.Path))
	}
	if l.JSONDir != "" {
		dirs = append(dirs, l.JSONDir)
	}
	if l.OutputsDir != "" {
		dirs = append(dirs, l.OutputsDir)
	}

	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		p := filepath.Join(filepath.Clean(d), name)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Find returns the first existing candidate for doc.
func (l Lookup) Find(doc types.Document) (string, bool) {
	for _, p := range l.Candidates(doc) {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// LoadAll returns the signature of every document with a readable result
// file. Files that exist but cannot be decoded are logged and treated as
// absent, so the document shows up as unmatched.
func (l Lookup) LoadAll(docs []types.Document) map[types.DocumentID]signature.Signature {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sigs := make(map[types.DocumentID]signature.Signature, len(docs))
	for _, doc := range docs {
		path, ok := l.Find(doc)
		if !ok {
			logger.Debug("results.missing", "doc_id", doc.ID.String())
			continue
		}
		sig, anomalies, err := Load(path)
		if err != nil {
			logger.Warn("results.unreadable", "doc_id", doc.ID.String(), "path", path, "error", err)
			continue
		}
		for _, a := range anomalies {
			logger.Warn("results.schema_anomaly", "doc_id", doc.ID.String(), "field", a.Field, "kind", a.Kind, "value", a.Value)
		}
		sigs[doc.ID] = sig
	}
	return sigs
}
