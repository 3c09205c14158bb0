// Package ingest reads bank exports (CSV, XLSX, PDF) into raw tables.
//
// Every reader returns a rectangular core.Table of strings: missing cells are
// empty strings and no type inference is applied.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Kind is a detected input file type.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindPDF  Kind = "pdf"
	KindXLSX Kind = "xlsx"
)

var (
	ErrEmptyFile   = core.NewCodedError("FILE005", "empty file")
	ErrUnsupported = core.NewCodedError("FILE006", "unsupported file type")
)

// sniffLen is how much of the file Detect inspects.
const sniffLen = 8 << 10

// Detect identifies the file type from its leading bytes. The name is only
// used in error messages; a misleading extension does not change the result.
func Detect(name string, data []byte) (Kind, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyFile
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	switch {
	case bytes.Contains(head[:min(len(head), 1024)], []byte("%PDF-")):
		return KindPDF, nil
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		return KindXLSX, nil
	case bytes.HasPrefix(head, []byte("\xD0\xCF\x11\xE0")):
		return "", fmt.Errorf("%w: %s is a legacy .xls workbook, save it as .xlsx", ErrUnsupported, filepath.Base(name))
	case isUTF16(head):
		return KindCSV, nil
	case bytes.IndexByte(head, 0) >= 0:
		return "", fmt.Errorf("%w: %s is not a text, PDF or XLSX file", ErrUnsupported, filepath.Base(name))
	}
	return KindCSV, nil
}

func isUTF16(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0xFF, 0xFE}) || bytes.HasPrefix(b, []byte{0xFE, 0xFF})
}

// LookupEncoding resolves a WHATWG encoding label ("windows-874", "tis-620",
// "latin1", ...). An empty label or "utf-8" returns nil, meaning UTF-8.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, core.WithCode("FILE003", fmt.Errorf("encoding error: unknown encoding %q", label))
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// Reader reads any supported file into a raw table. It implements
// core.TableReader.
type Reader struct {
	Encoding encoding.Encoding // Text encoding for CSV input; nil means UTF-8
	MaxSize  int64             // Zero means unlimited
}

// NewReader creates a Reader for the given CSV encoding label and size limit.
func NewReader(encodingLabel string, maxSize int64) (*Reader, error) {
	enc, err := LookupEncoding(encodingLabel)
	if err != nil {
		return nil, err
	}
	return &Reader{Encoding: enc, MaxSize: maxSize}, nil
}

// ReadTable detects the file type and dispatches to the matching reader.
func (r *Reader) ReadTable(ctx context.Context, name string, data []byte, d core.Descriptor) (*core.Table, error) {
	if r.MaxSize > 0 && int64(len(data)) > r.MaxSize {
		return nil, core.WithCode("FILE001", fmt.Errorf("file too large: %d bytes exceeds limit of %d", len(data), r.MaxSize))
	}

	kind, err := Detect(name, data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPDF:
		return ReadPDF(ctx, data, d)
	case KindXLSX:
		return ReadExcel(data)
	default:
		return ReadCSV(bytes.NewReader(data), r.Encoding)
	}
}

// CleanCell removes common export artifacts from a cell value:
// surrounding whitespace and the Excel formula wrapper ="...".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// buildTable cleans cells, drops blank lines and uses the first remaining
// record as the header.
func buildTable(records [][]string) (*core.Table, error) {
	var kept [][]string
	for _, rec := range records {
		blank := true
		for i := range rec {
			rec[i] = CleanCell(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if !blank {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyFile
	}

	header := trimTrailingEmpty(kept[0])
	return core.NewTable(header, kept[1:]), nil
}

// trimTrailingEmpty drops empty header cells at the end of a row, which
// spreadsheets and trailing delimiters leave behind.
func trimTrailingEmpty(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}
