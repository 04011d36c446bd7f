package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Layout selects the columns of a CSV summary.
type Layout string

const (
	// LayoutFull writes one column per signature field plus a text preview.
	LayoutFull Layout = "full"
	// LayoutOverview writes the patient header, report sections and the
	// signature on a single line.
	LayoutOverview Layout = "overview"
)

// Layouts returns the supported layouts.
func Layouts() []Layout {
	return []Layout{LayoutFull, LayoutOverview}
}

// ParseLayout converts a string to a Layout. An empty string means full.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutFull:
		return LayoutFull, nil
	case LayoutOverview:
		return LayoutOverview, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want %s or %s)", s, LayoutFull, LayoutOverview)
	}
}

var fullHeader = []string{
	"document_id",
	"matched_result_id",
	"miT",
	"miN",
	"miM",
	"confidence",
	"rationale",
	"text_preview",
}

var overviewHeader = []string{
	"patient_id_age_sex",
	"impression",
	"clinical_summary",
	"miTNM_signature",
	"rationale",
}

// Header returns the column names of the layout.
func (l Layout) Header() []string {
	if l == LayoutOverview {
		return overviewHeader
	}
	return fullHeader
}

// Record returns the cells of row in the layout's column order.
func (l Layout) Record(row Row) []string {
	sig := row.Signature
	if l == LayoutOverview {
		return []string{
			row.Overview.Header(),
			row.Overview.Impression,
			row.Overview.ClinicalSummary,
			sig.Display(),
			sig.Rationale,
		}
	}
	return []string{
		row.DocumentID.String(),
		row.MatchedID.String(),
		sig.MiT,
		sig.MiN,
		sig.MiM,
		formatConfidence(sig.Confidence),
		sig.Rationale,
		row.Preview,
	}
}

// WriteCSV writes a header line followed by one record per row.
func WriteCSV(w io.Writer, rows []Row, layout Layout) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(layout.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(layout.Record(row)); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.DocumentID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
