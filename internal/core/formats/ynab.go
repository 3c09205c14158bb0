package formats

import "github.com/JonMunkholm/pdf2ynab/internal/core"

func init() {
	registerYNAB()
}

// registerYNAB registers files already in the import schema, e.g. a
// previous export that needs re-cleaning. Dates are left as they are.
func registerYNAB() {
	core.Register(core.Descriptor{
		Code:        "YNAB",
		Description: "YNAB import CSV (pass-through)",
		Columns: []core.ColumnMapping{
			{Canonical: core.ColDate, Aliases: []string{"date"}},
			{Canonical: core.ColPayee, Aliases: []string{"payee"}},
			{Canonical: core.ColCategory, Aliases: []string{"category"}},
			{Canonical: core.ColMemo, Aliases: []string{"memo"}},
			{Canonical: core.ColOutflow, Aliases: []string{"outflow"}},
			{Canonical: core.ColInflow, Aliases: []string{"inflow"}},
		},
		DatePattern:     `^(.*)$`,
		DateReplacement: `\1`,
		DecimalStyle:    core.DecimalPeriod,
		DateSeparator:   core.DateSlash,
	})
}
