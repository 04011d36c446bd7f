// Package types provides shared types used across multiple packages.
// This package has no dependencies on other mitnm packages to avoid import cycles.
package types

import (
	"path/filepath"
	"strings"
)

// DocumentID is the filename stem of a report. It is the join key between
// a report, its extraction outcome, its persisted result, and its summary row.
type DocumentID string

// String returns the identifier as a plain string.
func (id DocumentID) String() string {
	return string(id)
}

// Document is one clinical report. It is never mutated after it is read.
type Document struct {
	ID   DocumentID
	Path string // Source path, empty for in-memory documents
	Text string
}

// StemOf returns the DocumentID for a file path: the base name without its
// final extension ("reports/p001.txt" -> "p001").
func StemOf(path string) DocumentID {
	base := filepath.Base(path)
	return DocumentID(strings.TrimSuffix(base, filepath.Ext(base)))
}
