package core

// NormalizeDates applies the date rule to every value of the Date column.
// Values that do not match pass through unchanged; no calendar validation is
// performed.
func NormalizeDates(t *Table, rule DateRule) *Table {
	out, _ := normalizeDates(t, rule, false)
	return out
}

// NormalizeDatesStrict is like NormalizeDates but fails with a DateFormatError
// on the first non-empty Date value the pattern does not match.
func NormalizeDatesStrict(t *Table, rule DateRule) (*Table, error) {
	return normalizeDates(t, rule, true)
}

func normalizeDates(t *Table, rule DateRule, strict bool) (*Table, error) {
	out := t.Clone()
	pos, ok := MakeHeaderIndex(out.Header)[HeaderKey(ColDate)]
	if !ok {
		return out, nil
	}
	for i, row := range out.Rows {
		v := row[pos]
		if strict && v != "" && !rule.Match(v) {
			return nil, &DateFormatError{Row: i + 1, Value: v, Pattern: rule.Pattern()}
		}
		row[pos] = rule.Apply(v)
	}
	return out, nil
}

// UnmatchedDates returns the 1-based row numbers whose non-empty Date value
// the rule does not match.
func UnmatchedDates(t *Table, rule DateRule) []int {
	pos, ok := MakeHeaderIndex(t.Header)[HeaderKey(ColDate)]
	if !ok {
		return nil
	}
	var rows []int
	for i, row := range t.Rows {
		if v := row[pos]; v != "" && !rule.Match(v) {
			rows = append(rows, i+1)
		}
	}
	return rows
}
