package core

// convert.go runs the four normalization stages in order:
//
//	raw -> Dedupe -> NormalizeColumns -> NormalizeMoney -> NormalizeDates -> canonical
//
// Each stage returns a fresh table; the caller's raw table is never mutated.
// The whole pass is synchronous and keeps no state between calls, so Convert
// is safe to call concurrently once the registry has been populated.

// Options tunes how strictly a conversion treats imperfect input.
// The zero value reproduces the lenient behavior: unmatched dates pass
// through and required columns without a source are emitted empty.
type Options struct {
	// StrictDates fails with a DateFormatError when a non-empty Date value
	// does not match the descriptor's pattern.
	StrictDates bool

	// StrictColumns fails with a SchemaMismatchError when a required canonical
	// column has no source column in the raw header.
	StrictColumns bool
}

// Result is a canonical table plus what the pipeline observed on the way.
type Result struct {
	Table          *Table
	Format         string
	RowsIn         int                 // Data rows in the raw table
	HeadersRemoved int                 // Repeated header rows dropped by Dedupe
	Ambiguous      map[string][]string // Canonical column -> competing aliases present
	UnmatchedDates []int               // 1-based rows whose Date did not match the pattern
}

// Convert normalizes raw into the canonical six-column schema using the
// descriptor registered under code.
//
// Returns UnknownFormatError before touching raw if code is not registered,
// and SchemaMismatchError if raw has no columns.
func Convert(raw *Table, code string) (*Table, error) {
	res, err := ConvertCode(raw, code, Options{})
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// ConvertCode is like Convert but takes Options and returns the full Result.
func ConvertCode(raw *Table, code string, opts Options) (*Result, error) {
	d, err := Lookup(code)
	if err != nil {
		return nil, err
	}
	return ConvertWith(raw, d, opts)
}

// ConvertWith runs the pipeline with an explicit descriptor. Descriptors that
// have not been compiled are compiled first.
func ConvertWith(raw *Table, d Descriptor, opts Options) (*Result, error) {
	if !d.Compiled() {
		c, err := d.Compile()
		if err != nil {
			return nil, err
		}
		d = c
	}

	if raw == nil || len(raw.Header) == 0 {
		return nil, &SchemaMismatchError{Code: d.Code, Reason: ReasonNoColumns}
	}

	if opts.StrictColumns {
		if missing := MissingSources(raw.Header, d.Columns); len(missing) > 0 {
			return nil, &SchemaMismatchError{
				Code:    d.Code,
				Reason:  ReasonMissingSources,
				Missing: missing,
			}
		}
	}

	deduped := Dedupe(raw)
	canonical := NormalizeColumns(deduped, d.Columns)
	money := NormalizeMoney(canonical, d.DecimalStyle)

	res := &Result{
		Format:         d.Code,
		RowsIn:         raw.Len(),
		HeadersRemoved: raw.Len() - deduped.Len(),
		Ambiguous:      AmbiguousColumns(raw.Header, d.Columns),
		UnmatchedDates: UnmatchedDates(money, d.DateRule()),
	}

	if opts.StrictDates {
		out, err := NormalizeDatesStrict(money, d.DateRule())
		if err != nil {
			return nil, err
		}
		res.Table = out
		return res, nil
	}

	res.Table = NormalizeDates(money, d.DateRule())
	return res, nil
}
