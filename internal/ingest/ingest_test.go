package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
)

func testDescriptor() core.Descriptor {
	return core.Descriptor{
		Code: "SCB",
		Columns: []core.ColumnMapping{
			{Canonical: core.ColDate, Aliases: []string{"date"}},
			{Canonical: core.ColPayee, Aliases: []string{"description"}},
			{Canonical: core.ColMemo, Aliases: []string{"channel"}},
			{Canonical: core.ColOutflow, Aliases: []string{"withdrawal"}},
			{Canonical: core.ColInflow, Aliases: []string{"deposit", "deposits"}},
		},
		DatePattern:     `(\d+)/(\d+)/(\d+)`,
		DateReplacement: `\2/\1/\3`,
	}.MustCompile()
}

// ----------------------------------------------------------------------------
// Detect Tests
// ----------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Kind
		wantErr error
	}{
		{"pdf", "%PDF-1.7\n...", KindPDF, nil},
		{"pdf after junk", "\r\n%PDF-1.4", KindPDF, nil},
		{"xlsx", "PK\x03\x04rest", KindXLSX, nil},
		{"csv", "Date,Payee\n1,2\n", KindCSV, nil},
		{"utf16 bom", "\xFF\xFED\x00a\x00", KindCSV, nil},
		{"empty", "", "", ErrEmptyFile},
		{"whitespace only", " \n\t", "", ErrEmptyFile},
		{"legacy xls", "\xD0\xCF\x11\xE0\xA1\xB1", "", ErrUnsupported},
		{"binary", "\x89PNG\r\n\x1a\n\x00\x00", "", ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect("statement", []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_IgnoresExtension(t *testing.T) {
	got, err := Detect("statement.pdf", []byte("date,description\n"))
	if err != nil || got != KindCSV {
		t.Errorf("Detect = %q, %v; want csv", got, err)
	}
}

// ----------------------------------------------------------------------------
// Encoding Tests
// ----------------------------------------------------------------------------

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		label   string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"utf-8", true, false},
		{"UTF8", true, false},
		{"windows-874", false, false},
		{"tis-620", false, false},
		{"latin1", false, false},
		{"klingon", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			enc, err := LookupEncoding(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupEncoding: %v", err)
			}
			if (enc == nil) != tt.wantNil {
				t.Errorf("enc = %v, wantNil %v", enc, tt.wantNil)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  DATE ", "DATE"},
		{`="0012345"`, "0012345"},
		{"plain", "plain"},
		{`="`, `="`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Reader Tests
// ----------------------------------------------------------------------------

func TestReader_ReadTable(t *testing.T) {
	r, err := NewReader("", 0)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := r.ReadTable(context.Background(), "s.csv", []byte("DATE,DESCRIPTION\n01/02/2017,FOO\n"), testDescriptor())
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][1] != "FOO" {
		t.Errorf("rows = %q", tbl.Rows)
	}
}

func TestReader_MaxSize(t *testing.T) {
	r := &Reader{MaxSize: 10}

	_, err := r.ReadTable(context.Background(), "s.csv", []byte(strings.Repeat("a", 11)), testDescriptor())
	if err == nil || core.MapError(err).Code != "FILE001" {
		t.Errorf("err = %v, want FILE001", err)
	}
}

func TestNewReader_BadEncoding(t *testing.T) {
	_, err := NewReader("nope", 0)
	if core.MapError(err).Code != "FILE003" {
		t.Errorf("err = %v, want FILE003", err)
	}
}
