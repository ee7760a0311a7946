package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/table"
	"github.com/roach88/leapcal/internal/taicheck"
)

// NewCrossCheckCommand creates the crosscheck command.
func NewCrossCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crosscheck <table>",
		Short: "Compare a table's DTAI with the system TAI-UTC table",
		Long: `Compare the DTAI of every row from 30 June 1972 on with the TAI-UTC offset
that glibtai reports at the start of the following day, and print the TAI64
label of each transition.

Only available on linux/amd64.

Exit codes:
  0 - Every transition agrees
  1 - At least one transition disagrees
  2 - Command error, or the platform is not supported`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrossCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCrossCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open table", err)
	}
	defer f.Close()
	t, errs, err := table.Decode(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}
	if table.HasErrors(errs) {
		return NewExitError(ExitFailure, fmt.Sprintf("table %s has errors", path))
	}

	report, err := taicheck.Check(t.Rows)
	if errors.Is(err, taicheck.ErrUnsupported) {
		return WrapExitError(ExitCommandError, "crosscheck unavailable", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "crosscheck failed", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, tr := range report.Transitions {
			mark := "ok"
			if tr.Mismatch() {
				mark = "MISMATCH"
			}
			fmt.Fprintf(w, "%-8s %s\n", mark, tr)
		}
	}

	if n := len(report.Mismatches()); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d transition(s) disagree", n))
	}
	return nil
}
