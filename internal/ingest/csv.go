package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// delimiters are tried in order; the one most frequent in the first line wins.
var delimiters = []rune{',', ';', '\t', '|'}

// ReadCSV reads delimited text into a raw table. The first non-blank record
// is the header. Quoted fields may contain delimiters and newlines.
//
// Input is decoded with enc (nil means UTF-8). A byte order mark selects
// UTF-8 or UTF-16 regardless of enc and is removed. Invalid byte sequences
// become U+FFFD.
func ReadCSV(r io.Reader, enc encoding.Encoding) (*core.Table, error) {
	if enc == nil {
		enc = unicode.UTF8
	}
	decoded := transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))

	br := bufio.NewReader(decoded)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, core.WithCode("FILE003", fmt.Errorf("encoding error: %w", err))
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, core.WithCode("FILE002", fmt.Errorf("invalid csv: %w", err))
	}
	return buildTable(records)
}

// sniffDelimiter picks the delimiter that occurs most often, outside quotes,
// on the first line of sample.
func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range string(sample) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
