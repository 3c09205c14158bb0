package export

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/xuri/excelize/v2"
)

func canonicalTable() *core.Table {
	return core.NewTable(core.CanonicalColumns, [][]string{
		{"02/01/2017", "FOO", "", "ENET", "500.00", ""},
		{"02/28/2017", "Smith, J", "", "", "", "5000.00"},
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, canonicalTable()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "Date,Payee,Category,Memo,Outflow,Inflow\n" +
		"02/01/2017,FOO,,ENET,500.00,\n" +
		"02/28/2017,\"Smith, J\",,,,5000.00\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, core.NewTable(core.CanonicalColumns, nil)); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Date,Payee,Category,Memo,Outflow,Inflow\n" {
		t.Errorf("got %q", got)
	}
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExcel(&buf, canonicalTable()); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open written workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rows[0], core.CanonicalColumns) {
		t.Errorf("header = %q", rows[0])
	}
	if rows[1][4] != "500.00" {
		t.Errorf("Outflow = %q, want 500.00 kept as text", rows[1][4])
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"ods", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("out/ynab.XLSX") != FormatXLSX {
		t.Error("want xlsx for .XLSX")
	}
	if FormatForPath("out/ynab.csv") != FormatCSV {
		t.Error("want csv for .csv")
	}
	if FormatForPath("out/ynab") != FormatCSV {
		t.Error("want csv without extension")
	}
}
