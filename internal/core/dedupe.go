package core

// Dedupe removes every data row whose full ordered value sequence equals the
// header row. Such rows appear when multi-page sources are concatenated and
// each page repeats its header. Comparison is exact, cell for cell; the order
// of the remaining rows is preserved and the input is not modified.
func Dedupe(t *Table) *Table {
	out := &Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		if equalRow(row, t.Header) {
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}

// equalRow reports whether a and b hold the same strings in the same order.
func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
