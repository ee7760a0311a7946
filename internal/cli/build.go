package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/pipeline"
	"github.com/roach88/leapcal/internal/table"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Config      string
	Output      string
	CSV         string
	LaTeXDeltaT string
	UT1UTC      string
	Store       string
	Metrics     string
	CrossCheck  bool
}

// BuildResult is the JSON payload of a build.
type BuildResult struct {
	Table      string                  `json:"table,omitempty"`
	Checksum   string                  `json:"checksum"`
	Start      string                  `json:"start"`
	End        string                  `json:"end"`
	Expiration string                  `json:"expiration"`
	Rows       int                     `json:"rows"`
	RunID      string                  `json:"run_id,omitempty"`
	Findings   []table.ValidationError `json:"findings,omitempty"`
	Mismatches []string                `json:"crosscheck_mismatches,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the extraordinary-day table from the configured sources",
		Long: `Merge the ΔT sources named in the pipeline file, scan the timeline for
leap seconds, accumulate DTAI and write the checksummed table.

Flags override the output paths of the pipeline file. Without a table path
the table is written to stdout.

Exit codes:
  0 - Table built
  1 - The built table failed its own validation or the TAI cross-check
  2 - Command error (bad pipeline file, unreadable source, etc.)

Examples:
  leapcal build --config leapcal.yaml -o leap_seconds.tab
  leapcal build --config leapcal.yaml --store runs.db --csv delta_t.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "leapcal.yaml", "pipeline file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "table output path")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "write the merged timeline with its sources as CSV")
	cmd.Flags().StringVar(&opts.LaTeXDeltaT, "latex-delta-t", "", "write the yearly ΔT table as LaTeX")
	cmd.Flags().StringVar(&opts.UT1UTC, "ut1utc", "", "write daily UT1-UTC")
	cmd.Flags().StringVar(&opts.Store, "store", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write a Prometheus textfile")
	cmd.Flags().BoolVar(&opts.CrossCheck, "crosscheck", false, "compare DTAI with the system TAI-UTC table")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pipeline file", err)
	}
	opts.apply(cfg)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	res, err := pipeline.Run(ctx, cfg, pipeline.WithClock(opts.now))
	if err != nil {
		return WrapExitError(ExitCommandError, "build failed", err)
	}
	if err := res.WriteOutputs(cfg.Output); err != nil {
		return WrapExitError(ExitCommandError, "failed to write outputs", err)
	}
	if cfg.Output.Table == "" && formatter.Format != "json" {
		if _, err := cmd.OutOrStdout().Write(res.Encoded); err != nil {
			return WrapExitError(ExitCommandError, "failed to write table", err)
		}
	}

	out := BuildResult{
		Table:      cfg.Output.Table,
		Checksum:   res.Checksum,
		Start:      res.Table.Start.ISO(),
		End:        res.Table.End.ISO(),
		Expiration: res.Table.Expiration.ISO(),
		Rows:       len(res.Rows),
		RunID:      res.RunID,
		Findings:   res.Findings,
	}
	if res.CrossCheck != nil {
		for _, m := range res.CrossCheck.Mismatches() {
			out.Mismatches = append(out.Mismatches, m.String())
		}
	}
	for _, f := range res.Findings {
		if f.Severity == table.SeverityError {
			slog.Error("built table is invalid", "finding", f.Error())
		} else {
			slog.Warn("built table", "finding", f.Error())
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else if cfg.Output.Table != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Table written to %s (%d rows, %s..%s, expires %s)\n",
			out.Table, out.Rows, out.Start, out.End, out.Expiration)
		fmt.Fprintf(cmd.OutOrStdout(), "CHECKSUM=%s\n", out.Checksum)
		if out.RunID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s recorded\n", out.RunID)
		}
	}

	if table.HasErrors(res.Findings) {
		return NewExitError(ExitFailure, "built table failed validation")
	}
	if len(out.Mismatches) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d DTAI transition(s) disagree with the system TAI table", len(out.Mismatches)))
	}
	return nil
}

// apply overrides the pipeline file with the flags that were given.
func (o *BuildOptions) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Output.Table, o.Output)
	set(&cfg.Output.CSV, o.CSV)
	set(&cfg.Output.LaTeXDeltaT, o.LaTeXDeltaT)
	set(&cfg.Output.UT1UTC, o.UT1UTC)
	set(&cfg.Store, o.Store)
	set(&cfg.Metrics, o.Metrics)
	if o.CrossCheck {
		cfg.CrossCheck = true
	}
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
