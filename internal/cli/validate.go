package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/table"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Today        string
	ChecksumFile string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                    `json:"valid"`
	Rows       int                     `json:"rows"`
	Expiration string                  `json:"expiration,omitempty"`
	Checksum   string                  `json:"checksum"`
	Errors     []table.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <table>",
		Short: "Validate an extraordinary-day table",
		Long: `Read a table and report every problem in one pass: malformed or duplicate
lines, DTAI steps other than one second, missing headers, days outside
START_DATE..END_DATE, a wrong or missing checksum, and expiry.

A table without a CHECKSUM line is reported with the line to add. With
--checksum-file that line is also written to the given file.

Exit codes:
  0 - Table is valid and current
  1 - Table has errors or has expired
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Today, "today", "", "check expiry against this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.ChecksumFile, "checksum-file", "", "write the missing CHECKSUM line here")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	today, ok, err := parseDay("today", opts.Today)
	if err != nil {
		return err
	}
	if !ok {
		today = opts.today()
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open table", err)
	}
	defer f.Close()

	t, errs, err := table.Check(f, today)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}
	formatter.VerboseLog("Read %d row(s) from %s, checking against %s", len(t.Rows), path, today)

	if opts.ChecksumFile != "" {
		if err := writeChecksumFix(opts.ChecksumFile, errs); err != nil {
			return WrapExitError(ExitCommandError, "failed to write checksum file", err)
		}
	}

	result := ValidationResult{
		Valid:    !table.Failed(errs),
		Rows:     len(t.Rows),
		Checksum: t.Computed,
		Errors:   errs,
	}
	if t.Expiration != 0 {
		result.Expiration = t.Expiration.ISO()
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("table %s failed validation", path))
	}
	return nil
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	for _, e := range result.Errors {
		fmt.Fprintf(w, "%-7s %s\n", e.Severity, e.Error())
		if e.Fix != "" {
			fmt.Fprintf(w, "        add: %s\n", e.Fix)
		}
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ Table valid (%d rows, expires %s)\n", result.Rows, result.Expiration)
		return
	}
	fmt.Fprintf(w, "✗ Table rejected (%d finding(s))\n", len(result.Errors))
}

// writeChecksumFix writes the fix of a missing-checksum finding, if there
// is one.
func writeChecksumFix(path string, errs []table.ValidationError) error {
	for _, e := range errs {
		if e.Code == table.ErrChecksumMissing && e.Fix != "" {
			return os.WriteFile(path, []byte(e.Fix+"\n"), 0o644)
		}
	}
	return nil
}
