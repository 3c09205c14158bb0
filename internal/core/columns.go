package core

// columns.go maps raw source columns onto the canonical schema.
//
// Source header names are normalized with HeaderKey (lower-cased, trimmed)
// and joined against the descriptor's aliases. Matched columns are renamed,
// unmatched columns are dropped, and the result is reindexed to the six
// canonical columns in canonical order. Canonical columns without a source
// are filled with empty strings.

// NormalizeColumns returns a canonical table with exactly the six canonical
// columns and the same row count and order as t.
//
// When more than one alias of the same canonical column is present in t, the
// alias applied last (in declared order) wins. Use AmbiguousColumns to detect
// this case.
func NormalizeColumns(t *Table, columns []ColumnMapping) *Table {
	sources := resolveSources(t.Header, columns)

	out := &Table{
		Header: append([]string(nil), CanonicalColumns...),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		r := make([]string, len(CanonicalColumns))
		for c, pos := range sources {
			if pos >= 0 && pos < len(row) {
				r[c] = row[pos]
			}
		}
		out.Rows[i] = r
	}
	return out
}

// resolveSources returns, for each canonical column, the raw column position
// that feeds it, or -1.
func resolveSources(header []string, columns []ColumnMapping) []int {
	idx := MakeHeaderIndex(header)
	sources := make([]int, len(CanonicalColumns))
	for i := range sources {
		sources[i] = -1
	}
	for _, m := range columns {
		c := canonicalIndex(m.Canonical)
		if c < 0 {
			continue
		}
		for _, alias := range m.Aliases {
			if pos, ok := idx[HeaderKey(alias)]; ok {
				sources[c] = pos
			}
		}
	}
	return sources
}

// AmbiguousColumns returns canonical columns for which more than one alias is
// present in header, mapped to the aliases found (in declared order).
// Returns nil when every canonical column has at most one source.
func AmbiguousColumns(header []string, columns []ColumnMapping) map[string][]string {
	idx := MakeHeaderIndex(header)
	var result map[string][]string
	for _, m := range columns {
		var found []string
		for _, alias := range m.Aliases {
			if _, ok := idx[HeaderKey(alias)]; ok {
				found = append(found, HeaderKey(alias))
			}
		}
		if len(found) > 1 {
			if result == nil {
				result = make(map[string][]string)
			}
			result[m.Canonical] = found
		}
	}
	return result
}

// MissingSources lists required canonical columns for which none of the
// descriptor's aliases appears in header.
func MissingSources(header []string, columns []ColumnMapping) []string {
	sources := resolveSources(header, columns)
	var missing []string
	for _, req := range RequiredColumns {
		if sources[canonicalIndex(req)] < 0 {
			missing = append(missing, req)
		}
	}
	return missing
}
