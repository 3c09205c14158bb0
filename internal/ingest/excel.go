package ingest

import (
	"bytes"
	"fmt"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/xuri/excelize/v2"
)

// ReadExcel reads the first sheet of an .xlsx workbook. The first non-blank
// row is the header; cells are read as displayed text.
func ReadExcel(data []byte) (*core.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.WithCode("FILE008", fmt.Errorf("invalid spreadsheet: %w", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, core.NewCodedError("FILE008", "invalid spreadsheet: no sheets found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.WithCode("FILE008", fmt.Errorf("invalid spreadsheet: read rows: %w", err))
	}
	return buildTable(rows)
}
