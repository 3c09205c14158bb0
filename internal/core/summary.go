package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary aggregates a canonical table for reporting. It never changes the
// table; amounts are totalled only for display.
type Summary struct {
	Rows       int             `json:"rows"`
	Outflow    decimal.Decimal `json:"outflow"`
	Inflow     decimal.Decimal `json:"inflow"`
	Unparsable int             `json:"unparsable"` // Non-empty amounts that are not a single decimal number
	FirstDate  string          `json:"first_date,omitempty"`
	LastDate   string          `json:"last_date,omitempty"`
}

// Net returns Inflow minus Outflow.
func (s Summary) Net() decimal.Decimal {
	return s.Inflow.Sub(s.Outflow)
}

// Summarize totals the Outflow and Inflow columns of a canonical table whose
// amounts have been filtered with the given decimal style.
func Summarize(t *Table, style DecimalStyle) Summary {
	s := Summary{
		Rows:    t.Len(),
		Outflow: decimal.Zero,
		Inflow:  decimal.Zero,
	}

	add := func(total *decimal.Decimal, values []string) {
		for _, v := range values {
			if v == "" {
				continue
			}
			d, ok := ParseAmount(v, style)
			if !ok {
				s.Unparsable++
				continue
			}
			*total = total.Add(d)
		}
	}
	add(&s.Outflow, t.Column(ColOutflow))
	add(&s.Inflow, t.Column(ColInflow))

	if dates := t.Column(ColDate); len(dates) > 0 {
		s.FirstDate = dates[0]
		s.LastDate = dates[len(dates)-1]
	}
	return s
}

// ParseAmount parses a filtered amount such as "5000.00" or "5000,00".
func ParseAmount(v string, style DecimalStyle) (decimal.Decimal, bool) {
	if style == DecimalComma {
		if strings.Contains(v, ".") {
			return decimal.Zero, false
		}
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
