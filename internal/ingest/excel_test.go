package ingest

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadExcel(t *testing.T) {
	data := workbook(t, [][]any{
		{"Date", "Description", "Withdrawal"},
		{"01/02/2017", "FOO", "-500.00"},
		{"02/02/2017", " BAR "},
	})

	got, err := ReadExcel(data)
	if err != nil {
		t.Fatalf("ReadExcel: %v", err)
	}

	if !reflect.DeepEqual(got.Header, []string{"Date", "Description", "Withdrawal"}) {
		t.Errorf("header = %q", got.Header)
	}
	want := [][]string{
		{"01/02/2017", "FOO", "-500.00"},
		{"02/02/2017", "BAR", ""},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %q, want %q", got.Rows, want)
	}
}

func TestReadExcel_Detected(t *testing.T) {
	data := workbook(t, [][]any{{"Date"}, {"x"}})

	kind, err := Detect("statement.xlsx", data)
	if err != nil || kind != KindXLSX {
		t.Errorf("Detect = %q, %v; want xlsx", kind, err)
	}
}

func TestReadExcel_Invalid(t *testing.T) {
	_, err := ReadExcel([]byte("PK\x03\x04 not really a zip"))
	if err == nil {
		t.Error("expected error")
	}
}
