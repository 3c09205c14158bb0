package core

import (
	"strings"
	"unicode"
)

// moneyColumns are the canonical columns rewritten by NormalizeMoney.
var moneyColumns = []string{ColOutflow, ColInflow}

// NormalizeMoney rewrites the Outflow and Inflow columns of a canonical table
// with FilterAmount. Other columns are copied unchanged.
func NormalizeMoney(t *Table, style DecimalStyle) *Table {
	out := t.Clone()
	idx := MakeHeaderIndex(out.Header)
	for _, col := range moneyColumns {
		pos, ok := idx[HeaderKey(col)]
		if !ok {
			continue
		}
		for _, row := range out.Rows {
			row[pos] = FilterAmount(row[pos], style)
		}
	}
	return out
}

// FilterAmount strips every character that is not a digit and not the
// style's decimal separator. Currency symbols, signs, whitespace and
// thousands separators (when they differ from the decimal separator) are
// removed. It does not parse, regroup, or restore a dropped sign.
//
//	FilterAmount("5,000.00", DecimalPeriod) == "5000.00"
//	FilterAmount("-500.00", DecimalPeriod)  == "500.00"
func FilterAmount(s string, style DecimalStyle) string {
	if s == "" {
		return s
	}
	sep := style.Separator()
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == sep {
			return r
		}
		return -1
	}, s)
}
