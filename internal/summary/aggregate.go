// Package summary joins documents with their persisted signatures and
// renders the result as CSV or XLSX.
package summary

import (
	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

// NoMatchRationale is the rationale of a row whose document has no result.
const NoMatchRationale = "no matching result found"

// Row is one line of the summary table.
type Row struct {
	DocumentID types.DocumentID
	MatchedID  types.DocumentID // Empty when no result was found
	Signature  signature.Signature
	Preview    string
	Overview   Overview
}

// Matched reports whether a result was found for the row's document.
func (r Row) Matched() bool {
	return r.MatchedID != ""
}

// Aggregate builds one row per document, in input order. Matching is by
// exact document id. A negative maxPreviewChars keeps the full text.
func Aggregate(docs []types.Document, sigs map[types.DocumentID]signature.Signature, maxPreviewChars int) []Row {
	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		row := Row{
			DocumentID: doc.ID,
			Preview:    truncate(doc.Text, maxPreviewChars),
			Overview:   ParseOverview(doc.Text),
		}
		if sig, ok := sigs[doc.ID]; ok {
			row.MatchedID = doc.ID
			row.Signature = sig
		} else {
			row.Signature = signature.UnknownSignature(NoMatchRationale)
		}
		rows = append(rows, row)
	}
	return rows
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
