package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "basic",
			input:      "DATE,DESCRIPTION,WITHDRAWAL\n01/02/2017,FOO,-500.00\n",
			wantHeader: []string{"DATE", "DESCRIPTION", "WITHDRAWAL"},
			wantRows:   [][]string{{"01/02/2017", "FOO", "-500.00"}},
		},
		{
			name:       "quoted thousands separator",
			input:      "Date,Deposit\n01/02/2017,\"5,000.00\"\n",
			wantHeader: []string{"Date", "Deposit"},
			wantRows:   [][]string{{"01/02/2017", "5,000.00"}},
		},
		{
			name:       "short rows padded",
			input:      "a,b,c\n1\n1,2,3,4\n",
			wantHeader: []string{"a", "b", "c"},
			wantRows:   [][]string{{"1", "", ""}, {"1", "2", "3"}},
		},
		{
			name:       "utf8 bom removed",
			input:      "\xEF\xBB\xBFDate,Payee\n1,2\n",
			wantHeader: []string{"Date", "Payee"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "semicolon delimited",
			input:      "Datum;Betrag\n01.02.2017;\"1.234,56\"\n",
			wantHeader: []string{"Datum", "Betrag"},
			wantRows:   [][]string{{"01.02.2017", "1.234,56"}},
		},
		{
			name:       "repeated header kept",
			input:      "DATE,DEPOSIT\n1,2\nDATE,DEPOSIT\n3,4\n",
			wantHeader: []string{"DATE", "DEPOSIT"},
			wantRows:   [][]string{{"1", "2"}, {"DATE", "DEPOSIT"}, {"3", "4"}},
		},
		{
			name:       "blank lines and trailing delimiter",
			input:      "\n,,\nDATE,DEPOSIT,\n1,2,\n",
			wantHeader: []string{"DATE", "DEPOSIT"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "invalid utf8 replaced",
			input:      "Payee\nCaf\xe9\n",
			wantHeader: []string{"Payee"},
			wantRows:   [][]string{{"Caf\uFFFD"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input), nil)
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if !reflect.DeepEqual(got.Header, tt.wantHeader) {
				t.Errorf("header = %q, want %q", got.Header, tt.wantHeader)
			}
			if !reflect.DeepEqual(got.Rows, tt.wantRows) {
				t.Errorf("rows = %q, want %q", got.Rows, tt.wantRows)
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n\n"), nil)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestReadCSV_Windows874(t *testing.T) {
	src := "date,description\n01/02/2017,ถอนเงิน\n"
	encoded, err := charmap.Windows874.NewEncoder().String(src)
	if err != nil {
		t.Fatal(err)
	}

	enc, err := LookupEncoding("windows-874")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(strings.NewReader(encoded), enc)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got.Rows[0][1] != "ถอนเงิน" {
		t.Errorf("description = %q", got.Rows[0][1])
	}
}

func TestReadCSV_UTF16(t *testing.T) {
	src := "Date,Payee\n01/02/2017,Café\n"
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(src)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSV(strings.NewReader(encoded), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !reflect.DeepEqual(got.Header, []string{"Date", "Payee"}) || got.Rows[0][1] != "Café" {
		t.Errorf("got %q / %q", got.Header, got.Rows)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{`"x;y",b,c`, ','},
		{"single", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.line)); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
