package formats

import "github.com/JonMunkholm/pdf2ynab/internal/core"

func init() {
	registerSCB()
}

// registerSCB registers Siam Commercial Bank statements. Dates are D/M/Y and
// are reordered to M/D/Y; statements label the inflow column either
// "deposit" or "deposits".
func registerSCB() {
	core.Register(core.Descriptor{
		Code:        "SCB",
		Description: "Siam Commercial Bank, Thailand",
		Columns: []core.ColumnMapping{
			{Canonical: core.ColDate, Aliases: []string{"date"}},
			{Canonical: core.ColPayee, Aliases: []string{"description"}},
			{Canonical: core.ColMemo, Aliases: []string{"channel"}},
			{Canonical: core.ColOutflow, Aliases: []string{"withdrawal"}},
			{Canonical: core.ColInflow, Aliases: []string{"deposit", "deposits"}},
		},
		DatePattern:     `(\d+)\/(\d+)\/(\d+)`,
		DateReplacement: `\2/\1/\3`,
		DecimalStyle:    core.DecimalPeriod,
		DateSeparator:   core.DateSlash,
	})
}
