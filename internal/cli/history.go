package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	ConfigHash string `json:"config_hash"`
	Checksum   string `json:"checksum"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Expiration string `json:"expiration"`
}

// RowChange is one differing schedule row between two runs.
type RowChange struct {
	Day    int       `json:"day"`
	Date   string    `json:"date"`
	Before *dtai.Row `json:"before,omitempty"`
	After  *dtai.Row `json:"after,omitempty"`
}

// NewHistoryCommand creates the history command and its diff subcommand.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Long: `List the builds recorded in a run store, newest first.

Examples:
  leapcal history --db runs.db
  leapcal history --db runs.db diff <run-a> <run-b>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(&cobra.Command{
		Use:           "diff <run-a> <run-b>",
		Short:         "Show the schedule rows that differ between two runs",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDiff(opts, args[0], args[1], cmd)
		},
	})

	return cmd
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, RunSummary{
			ID:         r.ID,
			StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
			ConfigHash: r.ConfigHash,
			Checksum:   r.Checksum,
			Start:      r.Start.ISO(),
			End:        r.End.ISO(),
			Expiration: r.Expiration.ISO(),
		})
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tCHECKSUM\tRANGE\tEXPIRES")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s..%s\t%s\n", s.ID, s.StartedAt, short(s.Checksum), s.Start, s.End, s.Expiration)
	}
	return tw.Flush()
}

func runHistoryDiff(opts *HistoryOptions, a, b string, cmd *cobra.Command) error {
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	changes, err := st.DiffSchedules(context.Background(), a, b)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to diff runs", err)
	}

	out := make([]RowChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, RowChange{Day: int(c.Day), Date: c.Day.ISO(), Before: c.Before, After: c.After})
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(out)
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 {
		fmt.Fprintln(w, "Schedules are identical.")
		return nil
	}
	for _, c := range changes {
		switch {
		case c.Before == nil:
			fmt.Fprintf(w, "+ %d %d %d # %s\n", c.After.Day, c.After.Length, c.After.DTAI, c.Day)
		case c.After == nil:
			fmt.Fprintf(w, "- %d %d %d # %s\n", c.Before.Day, c.Before.Length, c.Before.DTAI, c.Day)
		default:
			fmt.Fprintf(w, "~ %d %d %d -> %d %d # %s\n", c.Day, c.Before.Length, c.Before.DTAI, c.After.Length, c.After.DTAI, c.Day)
		}
	}
	return nil
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
