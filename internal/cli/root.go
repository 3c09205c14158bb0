// Package cli provides the pdf2ynab command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/pdf2ynab/internal/config"
	"github.com/JonMunkholm/pdf2ynab/internal/core"
	_ "github.com/JonMunkholm/pdf2ynab/internal/core/formats" // Register built-in formats
	"github.com/JonMunkholm/pdf2ynab/internal/history"
	"github.com/JonMunkholm/pdf2ynab/internal/ingest"
	"github.com/JonMunkholm/pdf2ynab/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// appKey stores the loaded *app in the command context.
type appKey struct{}

// rootOptions holds persistent flags. Flags override environment settings
// only when set explicitly.
type rootOptions struct {
	envFiles      []string
	formatsFile   string
	encoding      string
	strictDates   bool
	strictColumns bool
	logLevel      string
}

// app is the configuration shared by all subcommands.
type app struct {
	cfg *config.Config
}

// NewRootCmd creates the root command. With three arguments it converts a
// statement; subcommands list formats, preview conversions and serve HTTP.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var output string

	rootCmd := &cobra.Command{
		Use:   "pdf2ynab <format> <input> <output>",
		Short: "Convert bank statements into YNAB import files",
		Long: `pdf2ynab converts a bank statement (PDF, CSV or XLSX) into the six-column
CSV that YNAB imports: Date, Payee, Category, Memo, Outflow, Inflow.

<format> is an institution code such as SCB; run "pdf2ynab formats" for the
list. <output> ending in .xlsx writes a workbook, "-" writes CSV to stdout.`,
		Example: `  pdf2ynab SCB statement.pdf march.csv
  pdf2ynab --strict-dates SCB statement.csv - | head`,
		Version:       Version,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], args[1], args[2], output)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	pf.StringVar(&opts.formatsFile, "formats", "", "YAML file with additional format definitions (env FORMATS_FILE)")
	pf.StringVar(&opts.encoding, "encoding", "", "character set of CSV input, e.g. windows-874 (env INPUT_ENCODING)")
	pf.BoolVar(&opts.strictDates, "strict-dates", false, "fail when a date does not match the format's pattern (env STRICT_DATES)")
	pf.BoolVar(&opts.strictColumns, "strict-columns", false, "fail when a required column has no source (env STRICT_COLUMNS)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	rootCmd.Flags().StringVar(&output, "to", "", "output format csv or xlsx (default: from the output file extension)")
	_ = rootCmd.RegisterFlagCompletionFunc("to", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "xlsx"}, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.ValidArgsFunction = completeFormatCodes

	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if core.IsUserFacing(err) {
			msg := core.MapError(err)
			fmt.Fprintf(os.Stderr, "%s (%s)\n", msg.Action, msg.Code)
		}
		return err
	}
	return nil
}

// loadApp reads dotenv files and the environment, applies flag overrides,
// configures logging and loads custom formats.
func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if err := config.LoadEnvFiles(opts.envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("formats") {
		cfg.Convert.FormatsFile = opts.formatsFile
	}
	if flags.Changed("encoding") {
		cfg.Convert.InputEncoding = opts.encoding
	}
	if flags.Changed("strict-dates") {
		cfg.Convert.StrictDates = opts.strictDates
	}
	if flags.Changed("strict-columns") {
		cfg.Convert.StrictColumns = opts.strictColumns
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Convert.FormatsFile != "" {
		codes, err := core.LoadDescriptorFile(cfg.Convert.FormatsFile, commandNames(cmd.Root())...)
		if err != nil {
			return nil, err
		}
		slog.Debug("custom formats loaded", "file", cfg.Convert.FormatsFile, "codes", codes)
	}

	return &app{cfg: cfg}, nil
}

// commandNames lists the names and aliases of root's subcommands, which
// cannot double as institution codes.
func commandNames(root *cobra.Command) []string {
	names := []string{"help", "completion"}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
		names = append(names, c.Aliases...)
	}
	return names
}

func appFrom(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a
	}
	panic("cli: configuration not loaded")
}

// newService builds a conversion service. When withHistory is set and a
// database is configured, runs are recorded; the returned func closes the
// pool.
func (a *app) newService(ctx context.Context, withHistory bool) (*core.Service, *history.Store, func(), error) {
	reader, err := ingest.NewReader(a.cfg.Convert.InputEncoding, a.cfg.Convert.MaxFileSize)
	if err != nil {
		return nil, nil, nil, err
	}

	scfg := core.ServiceConfig{
		Options: core.Options{
			StrictDates:   a.cfg.Convert.StrictDates,
			StrictColumns: a.cfg.Convert.StrictColumns,
		},
		Timeout: a.cfg.Convert.Timeout,
		Reader:  reader,
	}

	var store *history.Store
	closeFn := func() {}
	if withHistory && a.cfg.Database.Enabled() {
		s, closePool, err := history.Open(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		store, closeFn = s, closePool
		scfg.Recorder = store
	}

	svc, err := core.NewService(scfg)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return svc, store, closeFn, nil
}

func completeFormatCodes(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return core.Codes(), cobra.ShellCompDirectiveNoFileComp
}
