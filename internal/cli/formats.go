package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newFormatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the supported bank formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formats := core.All()
			if asJSON {
				return writeFormatsJSON(cmd.OutOrStdout(), formats)
			}
			renderFormats(cmd.OutOrStdout(), formats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print formats as JSON")
	return cmd
}

func renderFormats(w io.Writer, formats []core.Descriptor) {
	if len(formats) == 0 {
		fmt.Fprintln(w, "(no formats registered)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code", "Description", "Columns", "Dates", "Decimal"})

	for _, d := range formats {
		t.AppendRow(table.Row{
			d.Code,
			d.Description,
			columnSummary(d),
			d.DatePattern + " -> " + d.DateReplacement,
			string(d.DecimalStyle),
		})
	}
	t.Render()
}

// columnSummary lists one "Canonical <- alias, alias" line per mapped column.
func columnSummary(d core.Descriptor) string {
	lines := make([]string, 0, len(d.Columns))
	for _, m := range d.Columns {
		lines = append(lines, m.Canonical+" <- "+strings.Join(m.Aliases, ", "))
	}
	return strings.Join(lines, "\n")
}

type formatJSON struct {
	Code            string              `json:"code"`
	Description     string              `json:"description"`
	Columns         map[string][]string `json:"columns"`
	DatePattern     string              `json:"date_pattern"`
	DateReplacement string              `json:"date_replacement"`
	DecimalStyle    string              `json:"decimal_style"`
	DateSeparator   string              `json:"date_separator,omitempty"`
}

func writeFormatsJSON(w io.Writer, formats []core.Descriptor) error {
	out := make([]formatJSON, 0, len(formats))
	for _, d := range formats {
		cols := make(map[string][]string, len(d.Columns))
		for _, m := range d.Columns {
			cols[m.Canonical] = m.Aliases
		}
		out = append(out, formatJSON{
			Code:            d.Code,
			Description:     d.Description,
			Columns:         cols,
			DatePattern:     d.DatePattern,
			DateReplacement: d.DateReplacement,
			DecimalStyle:    string(d.DecimalStyle),
			DateSeparator:   string(d.DateSeparator),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
