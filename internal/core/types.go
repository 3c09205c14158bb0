package core

import "strings"

// Canonical column names of the YNAB import schema.
const (
	ColDate     = "Date"
	ColPayee    = "Payee"
	ColCategory = "Category"
	ColMemo     = "Memo"
	ColOutflow  = "Outflow"
	ColInflow   = "Inflow"
)

// CanonicalColumns is the fixed output column order.
var CanonicalColumns = []string{ColDate, ColPayee, ColCategory, ColMemo, ColOutflow, ColInflow}

// RequiredColumns must be populated from the source via the descriptor.
var RequiredColumns = []string{ColDate, ColPayee, ColOutflow, ColInflow}

// OptionalColumns are emitted empty when the descriptor has no alias for them.
var OptionalColumns = []string{ColCategory, ColMemo}

// IsCanonical reports whether name is one of the six canonical columns.
func IsCanonical(name string) bool {
	for _, c := range CanonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// canonicalIndex returns the position of name in CanonicalColumns, or -1.
func canonicalIndex(name string) int {
	for i, c := range CanonicalColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// DecimalStyle is the character a source uses between whole and fractional amount digits.
type DecimalStyle string

const (
	DecimalPeriod DecimalStyle = "PERIOD"
	DecimalComma  DecimalStyle = "COMMA"
)

// Separator returns the rune used as decimal separator.
func (d DecimalStyle) Separator() rune {
	if d == DecimalComma {
		return ','
	}
	return '.'
}

// Valid reports whether d is a known style.
func (d DecimalStyle) Valid() bool {
	return d == DecimalPeriod || d == DecimalComma
}

// DateSeparator is the separator a source uses between date parts.
// It is informational; the pattern/replacement pair does the work.
type DateSeparator string

const (
	DateSlash DateSeparator = "SLASH"
	DateDash  DateSeparator = "DASH"
)

// ColumnMapping lists the accepted source aliases for one canonical column.
// Aliases are matched case-insensitively and applied in order.
type ColumnMapping struct {
	Canonical string
	Aliases   []string
}

// Table is a rectangular table of strings with a header row.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable builds a Table from a header and raw rows. Short rows are padded
// with empty strings and cells beyond the header width are dropped, so the
// result always satisfies the rectangular invariant. Inputs are copied.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{
		Header: append([]string(nil), header...),
		Rows:   make([][]string, len(rows)),
	}
	width := len(header)
	for i, row := range rows {
		r := make([]string, width)
		copy(r, row)
		t.Rows[i] = r
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return NewTable(t.Header, t.Rows)
}

// Column returns the values of the named column (case-insensitive), or nil
// if the table has no such column.
func (t *Table) Column(name string) []string {
	pos, ok := MakeHeaderIndex(t.Header)[HeaderKey(name)]
	if !ok {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[pos]
	}
	return out
}

// HeaderIndex maps normalized column names to their position in a row.
type HeaderIndex map[string]int

// HeaderKey normalizes a column name for case-insensitive matching.
// This is the single place where header matching rules live.
func HeaderKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// When two columns normalize to the same key the later one wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[HeaderKey(h)] = i
	}
	return idx
}
