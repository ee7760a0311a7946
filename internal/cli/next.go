package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/pipeline"
)

// NextOptions holds flags for the next command.
type NextOptions struct {
	*RootOptions
	Config string
	From   string
}

// NextResult is the JSON payload of the next command.
type NextResult struct {
	Found  bool   `json:"found"`
	Day    int    `json:"day,omitempty"`
	Date   string `json:"date,omitempty"`
	Sign   int    `json:"sign,omitempty"`
	Length int    `json:"length,omitempty"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next leap second",
		Long: `Build the schedule from the pipeline file without writing any output and
print the first extraordinary day on or after --from (default today).

Example:
  leapcal next --config leapcal.yaml --from 2030-01-01`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "leapcal.yaml", "pipeline file")
	cmd.Flags().StringVar(&opts.From, "from", "", "first day to consider (YYYY-MM-DD)")

	return cmd
}

func runNext(opts *NextOptions, cmd *cobra.Command) error {
	from, ok, err := parseDay("from", opts.From)
	if err != nil {
		return err
	}
	if !ok {
		from = opts.today()
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pipeline file", err)
	}
	// A query, not a build: nothing is recorded.
	cfg.Store, cfg.Metrics, cfg.CrossCheck = "", "", false

	ctx, cancel := signalContext(cmd)
	defer cancel()
	res, err := pipeline.Run(ctx, cfg, pipeline.WithClock(opts.now))
	if err != nil {
		return WrapExitError(ExitCommandError, "build failed", err)
	}

	day, sign, found := res.Schedule.Next(from)
	if opts.Format == "json" {
		out := NextResult{Found: found}
		if found {
			out.Day, out.Date, out.Sign, out.Length = int(day), day.ISO(), sign, 86400+sign
		}
		return opts.formatter(cmd).Success(out)
	}

	w := cmd.OutOrStdout()
	if !found {
		fmt.Fprintf(w, "No leap second on or after %s before %s\n", from, res.Table.End)
		return nil
	}
	fmt.Fprintf(w, "%+d s at the end of %s (day %d, %d seconds)\n", sign, day, day, 86400+sign)
	return nil
}
