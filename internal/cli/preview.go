package cli

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <format> <input>",
		Short: "Convert a statement and print the first rows without writing a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			if _, err := core.Lookup(args[0]); err != nil {
				return err
			}
			data, name, err := readInput(cmd.InOrStdin(), args[1], a.cfg.Convert.MaxFileSize)
			if err != nil {
				return err
			}

			svc, _, closeFn, err := a.newService(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			conv, err := svc.ConvertFile(ctx, args[0], name, data)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("rows") {
				rows = a.cfg.Convert.PreviewRows
			}
			renderPreview(cmd.OutOrStdout(), conv, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "number of rows to print (env PREVIEW_ROWS)")
	cmd.ValidArgsFunction = completeFormatCodes
	return cmd
}

// renderPreview prints up to limit rows of the converted table with the
// run summary in the footer.
func renderPreview(w io.Writer, conv *core.Conversion, limit int) {
	tbl := conv.Table()
	run := conv.Run

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(tbl.Header))
	for i, h := range tbl.Header {
		header[i] = h
	}
	t.AppendHeader(header)

	n := min(limit, len(tbl.Rows))
	for _, row := range tbl.Rows[:n] {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: core.ColOutflow, Align: text.AlignRight},
		{Name: core.ColInflow, Align: text.AlignRight},
	})
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d of %d rows", n, len(tbl.Rows)), "", "", "",
		run.Summary.Outflow.StringFixed(2),
		run.Summary.Inflow.StringFixed(2),
	})
	t.Render()

	if run.HeadersRemoved > 0 {
		fmt.Fprintf(w, "%d repeated header rows removed\n", run.HeadersRemoved)
	}
	for canonical, aliases := range conv.Result.Ambiguous {
		fmt.Fprintf(w, "Warning: %s has several source columns %v, the last one was used\n", canonical, aliases)
	}
	if len(conv.Result.UnmatchedDates) > 0 {
		fmt.Fprintf(w, "Warning: dates on rows %v did not match the format and were left unchanged\n",
			conv.Result.UnmatchedDates)
	}
}
