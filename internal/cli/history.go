package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/history"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions recorded in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			if !a.cfg.Database.Enabled() {
				return errors.New("history is disabled: set DATABASE_URL")
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Database.HistoryLimit
			}

			store, closeFn, err := history.Open(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of runs to list (env HISTORY_LIMIT)")
	return cmd
}

func renderRuns(w io.Writer, runs []core.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "(no conversions recorded)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Format", "Source", "Rows", "Outflow", "Inflow", "Status"})

	for _, r := range runs {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		t.AppendRow(table.Row{
			r.CreatedAt.Local().Format(time.DateTime),
			r.Format,
			r.Source,
			r.RowsOut,
			r.Summary.Outflow.StringFixed(2),
			r.Summary.Inflow.StringFixed(2),
			status,
		})
	}
	t.Render()
}
