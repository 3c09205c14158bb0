package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/export"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// runConvert converts input with the format registered under code and writes
// the result to output. A conversion error leaves no output file behind.
func runConvert(cmd *cobra.Command, code, input, output, to string) error {
	ctx := cmd.Context()
	a := appFrom(ctx)

	// Unknown codes fail before the input is opened.
	if _, err := core.Lookup(code); err != nil {
		return err
	}

	format := export.FormatForPath(output)
	if to != "" {
		f, err := export.ParseFormat(to)
		if err != nil {
			return err
		}
		format = f
	}

	data, name, err := readInput(cmd.InOrStdin(), input, a.cfg.Convert.MaxFileSize)
	if err != nil {
		return err
	}

	svc, _, closeFn, err := a.newService(ctx, true)
	if err != nil {
		return err
	}
	defer closeFn()

	conv, err := svc.ConvertFile(ctx, code, name, data)
	if err != nil {
		return err
	}

	if output == "-" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := export.Write(w, conv.Table(), format); err != nil {
			return err
		}
		return w.Flush()
	}
	if err := writeFileAtomic(output, func(w io.Writer) error {
		return export.Write(w, conv.Table(), format)
	}); err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), conv, output)
	return nil
}

// readInput reads path, or stdin when path is "-", refusing anything larger
// than limit bytes.
func readInput(stdin io.Reader, path string, limit int64) ([]byte, string, error) {
	var (
		r    io.Reader
		name string
	)
	if path == "-" {
		r, name = stdin, "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r, name = f, filepath.Base(path)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, "", core.WithCode("FILE001", fmt.Errorf("file too large: %s exceeds limit of %s", name, humanize.Bytes(uint64(limit))))
	}
	return data, name, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place once write succeeds.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = write(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, conv *core.Conversion, output string) {
	run := conv.Run
	fmt.Fprintf(w, "Converted %d transactions from %s to %s", run.RowsOut, run.Source, output)
	if run.HeadersRemoved > 0 {
		fmt.Fprintf(w, " (%d repeated headers removed)", run.HeadersRemoved)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Outflow %s  Inflow %s  Net %s\n",
		run.Summary.Outflow.StringFixed(2), run.Summary.Inflow.StringFixed(2), run.Summary.Net().StringFixed(2))
	if run.UnmatchedDates > 0 {
		fmt.Fprintf(w, "Warning: %d dates did not match the %s date format and were left unchanged\n",
			run.UnmatchedDates, run.Format)
	}
}
