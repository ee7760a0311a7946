package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/sources"
	"github.com/roach88/leapcal/internal/table"
)

// ExpirationResult is the JSON payload of the expiration command.
type ExpirationResult struct {
	Bulletin   string `json:"bulletin"`
	Expiration int    `json:"expiration"`
	Date       string `json:"date"`
	// Leap is the announced extraordinary day, empty when none.
	Leap string `json:"leap,omitempty"`
	Sign int    `json:"sign,omitempty"`
}

// NewExpirationCommand creates the expiration command.
func NewExpirationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiration <bulletin-c>",
		Short: "Print the expiration line implied by an IERS Bulletin C",
		Long: `Read an IERS Bulletin C and print the EXPIRATION_DATE line a table built
from it must carry: the 28th of the month 180 days after the middle of the
announced month.

Example:
  leapcal expiration bulletinc-064.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpiration(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExpiration(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open bulletin", err)
	}
	defer f.Close()

	bc, err := sources.ParseBulletinC(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse bulletin", err)
	}

	exp := bc.Expiration()
	if opts.Format == "json" {
		res := ExpirationResult{Bulletin: bc.Number, Expiration: int(exp), Date: exp.ISO()}
		if day, sign, ok := bc.Leap(); ok {
			res.Leap, res.Sign = day.ISO(), sign
		}
		return opts.formatter(cmd).Success(res)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s=%d # %s\n", table.KeyExpiration, exp, exp)
	if day, sign, ok := bc.Leap(); ok {
		opts.formatter(cmd).VerboseLog("Bulletin C %s announces a %+d s leap second on %s", bc.Number, sign, day)
	}
	return nil
}
