// Package export writes canonical tables as YNAB import files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/xuri/excelize/v2"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// sheetName is the worksheet written by WriteExcel.
const sheetName = "Transactions"

// ParseFormat resolves a user-supplied format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", core.WithCode("OUT001", fmt.Errorf("unsupported output format %q", s))
}

// FormatForPath picks the output format from a file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension for f, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write writes t in format f.
func Write(w io.Writer, t *core.Table, f Format) error {
	if f == FormatXLSX {
		return WriteExcel(w, t)
	}
	return WriteCSV(w, t)
}

// WriteCSV writes t as comma-separated values: one header line with the
// table's column names, then one line per row. Fields are quoted only when
// they contain a comma, quote or newline.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExcel writes t to a single-sheet .xlsx workbook. Every cell is
// written as text so amounts keep their exact digits.
func WriteExcel(w io.Writer, t *core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for c, name := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellStr(sheetName, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	for c, name := range t.Header {
		col, _ := excelize.ColumnNumberToName(c + 1)
		width := float64(len(name) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
