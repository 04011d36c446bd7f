package summary

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the summary table.
const SheetName = "Summary"

const (
	minColWidth = 12
	maxColWidth = 80
)

// WriteXLSX writes rows in the full layout as a single-sheet workbook.
// Columns are sized to their longest cell within [12, 80].
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := LayoutFull.Header()
	widths := make([]int, len(header))

	write := func(col, line int, v any, text string) error {
		cell, err := excelize.CoordinatesToCellName(col+1, line)
		if err != nil {
			return err
		}
		if n := utf8.RuneCountInString(text); n > widths[col] {
			widths[col] = n
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	for i, h := range header {
		if err := write(i, 1, h, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		line := i + 2
		for col, text := range LayoutFull.Record(row) {
			var v any = text
			if header[col] == "confidence" {
				v = row.Signature.Confidence
			}
			if err := write(col, line, v, text); err != nil {
				return fmt.Errorf("failed to write row %s: %w", row.DocumentID, err)
			}
		}
	}

	for i, n := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := min(maxColWidth, max(minColWidth, n+2))
		if err := f.SetColWidth(SheetName, name, name, float64(width)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
