// Package core normalizes bank transaction exports into the YNAB import
// schema.
//
// The package holds all domain logic independent of any UI or transport
// layer. Web handlers, the CLI, and tests use it without modification.
//
// # Format Registry
//
// Each institution is described by a [Descriptor] registered at init time
// with [Register] (see package formats) or at startup from YAML with
// [LoadDescriptorFile]:
//
//	core.Register(core.Descriptor{
//	    Code: "SCB",
//	    Columns: []core.ColumnMapping{
//	        {Canonical: core.ColDate, Aliases: []string{"date"}},
//	        {Canonical: core.ColInflow, Aliases: []string{"deposit", "deposits"}},
//	        ...
//	    },
//	    DatePattern:     `(\d+)/(\d+)/(\d+)`,
//	    DateReplacement: `\2/\1/\3`,
//	    DecimalStyle:    core.DecimalPeriod,
//	})
//
// Descriptors are validated and compiled once, on registration. The registry
// is read-only after startup and safe for concurrent readers.
//
// # Pipeline
//
// [Convert] looks the descriptor up and runs four stages, each returning a
// fresh [Table]:
//
//  1. [Dedupe] drops rows identical to the header (page breaks)
//  2. [NormalizeColumns] renames, drops and reorders to Date, Payee,
//     Category, Memo, Outflow, Inflow
//  3. [NormalizeMoney] keeps only digits and the decimal separator
//  4. [NormalizeDates] reorders date parts with the descriptor's rule
//
// Unmatched dates pass through unless [Options].StrictDates is set.
//
// # Error Handling
//
// Typed errors ([UnknownFormatError], [SchemaMismatchError],
// [DateFormatError]) work with errors.As. [MapError] turns any error into a
// coded [UserMessage] for display.
package core
