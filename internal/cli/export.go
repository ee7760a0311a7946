package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/export"
	"github.com/roach88/leapcal/internal/pipeline"
	"github.com/roach88/leapcal/internal/table"
)

// Export kinds.
const (
	KindLaTeX   = "latex"
	KindGnuplot = "gnuplot"
	KindC       = "c"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Kind   string
	Start  int
	End    int
	Output string
}

// window is [Start, End] for the flags that were given, the table's range
// for the rest.
func (o *ExportOptions) window(cmd *cobra.Command, start, end calendar.Day) export.Window {
	win := export.Window{From: start, To: end}
	if cmd.Flags().Changed("start") {
		win.From = calendar.Day(o.Start)
	}
	if cmd.Flags().Changed("end") {
		win.To = calendar.Day(o.End)
	}
	return win
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a validated table as LaTeX, gnuplot data or a C array",
		Long: `Read a table and write the rows between --start and --end (Julian day
numbers, default START_DATE and END_DATE) in another format:

  latex    a longtable of Julian dates, lengths, DTAI and dates
  gnuplot  "day DTAI" pairs
  c        {day, DTAI} initializers in <output>.tab and the entry count in <output>.h

A table with errors is not exported. An expired one is, with a warning.

Examples:
  leapcal export leap_seconds.tab --kind latex -o leaps.tex
  leapcal export leap_seconds.tab --kind c --start 2441318 -o dtai`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", KindLaTeX, "export format (latex|gnuplot|c)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "first Julian day number to export")
	cmd.Flags().IntVar(&opts.End, "end", 0, "last Julian day number to export")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	switch opts.Kind {
	case KindLaTeX, KindGnuplot, KindC:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --kind %q: must be one of latex, gnuplot, c", opts.Kind))
	}

	t, err := readValidTable(path, opts.today(), formatter)
	if err != nil {
		return err
	}
	win := opts.window(cmd, t.Start, t.End)

	var written []string
	switch opts.Kind {
	case KindLaTeX:
		err = pipeline.WriteFile(opts.Output, func(w io.Writer) error {
			return export.LaTeXTable(w, t.Rows, win)
		})
		written = []string{opts.Output}
	case KindGnuplot:
		err = pipeline.WriteFile(opts.Output, func(w io.Writer) error {
			return export.GnuplotTable(w, t.Rows, win)
		})
		written = []string{opts.Output}
	case KindC:
		written = []string{opts.Output + ".tab", opts.Output + ".h"}
		var n int
		n, err = writeCArray(written[0], written[1], t.Rows, win)
		formatter.VerboseLog("%d C entries", n)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]interface{}{
			"kind":  opts.Kind,
			"from":  int(win.From),
			"to":    int(win.To),
			"files": written,
		})
	}
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	return nil
}

func writeCArray(tabPath, hdrPath string, rows []dtai.Row, win export.Window) (int, error) {
	var hdr bytes.Buffer
	var n int
	err := pipeline.WriteFile(tabPath, func(w io.Writer) error {
		var err error
		n, err = export.CArray(w, &hdr, rows, win)
		return err
	})
	if err != nil {
		return 0, err
	}
	err = pipeline.WriteFile(hdrPath, func(w io.Writer) error {
		_, err := hdr.WriteTo(w)
		return err
	})
	return n, err
}

// readValidTable reads the table at path, refusing it on any error-severity
// finding. Expiry is only reported.
func readValidTable(path string, today calendar.Day, formatter *OutputFormatter) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open table", err)
	}
	defer f.Close()

	t, errs, err := table.Check(f, today)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read table", err)
	}
	for _, e := range errs {
		fmt.Fprintf(formatter.GetErrWriter(), "%s %s\n", e.Severity, e.Error())
	}
	if table.HasErrors(errs) {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("table %s has errors", path))
	}
	return t, nil
}

// UT1UTCOptions holds flags for the ut1utc command.
type UT1UTCOptions struct {
	*RootOptions
	Config string
	Output string
	Start  int
	End    int
}

// NewUT1UTCCommand creates the ut1utc command.
func NewUT1UTCCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UT1UTCOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ut1utc",
		Short: "Write daily UT1-UTC for the built schedule",
		Long: `Build the schedule from the pipeline file and write, for every day of the
scan range (or --start..--end, Julian day numbers), the day number, UT1-UTC
in seconds and the date.

Example:
  leapcal ut1utc --config leapcal.yaml -o ut1utc.dat`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUT1UTC(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "leapcal.yaml", "pipeline file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (required)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "first Julian day number")
	cmd.Flags().IntVar(&opts.End, "end", 0, "last Julian day number")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runUT1UTC(opts *UT1UTCOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pipeline file", err)
	}
	cfg.Store, cfg.Metrics, cfg.CrossCheck = "", "", false

	ctx, cancel := signalContext(cmd)
	defer cancel()
	res, err := pipeline.Run(ctx, cfg, pipeline.WithClock(opts.now))
	if err != nil {
		return WrapExitError(ExitCommandError, "build failed", err)
	}

	win := res.Window()
	if cmd.Flags().Changed("start") {
		win.From = calendar.Day(opts.Start)
	}
	if cmd.Flags().Changed("end") {
		win.To = calendar.Day(opts.End)
	}
	err = pipeline.WriteFile(opts.Output, func(w io.Writer) error {
		return export.UT1UTC(w, res.Timeline, res.Schedule, calendar.Epoch, win)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]interface{}{
			"from": int(win.From),
			"to":   int(win.To),
			"file": opts.Output,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s..%s)\n", opts.Output, win.From, win.To)
	return nil
}
