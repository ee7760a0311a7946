package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/synth"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, started_at, config_hash, checksum, start_day, end_day, expiration_day`

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run, newest first.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSchedule returns the table rows of a run in day order.
func (s *Store) ReadSchedule(ctx context.Context, runID string) ([]dtai.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, length, dtai
		FROM schedule
		WHERE run_id = ?
		ORDER BY day ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	defer rows.Close()

	out := []dtai.Row{}
	for rows.Next() {
		var day int
		var r dtai.Row
		if err := rows.Scan(&day, &r.Length, &r.DTAI); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		r.Day = calendar.Day(day)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule: %w", err)
	}
	return out, nil
}

// ReadDecisions returns the scanner decisions of a run in the order they
// were made.
func (s *Store) ReadDecisions(ctx context.Context, runID string) ([]synth.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT anchor, cursor, chosen, priority, sign, score
		FROM decisions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	out := []synth.Decision{}
	for rows.Next() {
		var anchor, cursor, chosen int
		var d synth.Decision
		if err := rows.Scan(&anchor, &cursor, &chosen, &d.Priority, &d.Sign, &d.Score); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Anchor, d.Cursor, d.Day = calendar.Day(anchor), calendar.Day(cursor), calendar.Day(chosen)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// CountSamples returns how many timeline samples a run stored.
func (s *Store) CountSamples(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var started string
	var start, end, exp int
	if err := row.Scan(&run.ID, &started, &run.ConfigHash, &run.Checksum, &start, &end, &exp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	run.StartedAt = t
	run.Start, run.End, run.Expiration = calendar.Day(start), calendar.Day(end), calendar.Day(exp)
	return run, nil
}

// Change is a day whose row differs between two runs. A nil side means the
// day is not extraordinary in that run.
type Change struct {
	Day    calendar.Day
	Before *dtai.Row
	After  *dtai.Row
}

// DiffSchedules compares the schedules of runs a and b and returns every
// day whose row was added, removed or altered, in day order.
func (s *Store) DiffSchedules(ctx context.Context, a, b string) ([]Change, error) {
	for _, id := range []string{a, b} {
		if _, err := s.ReadRun(ctx, id); err != nil {
			return nil, err
		}
	}
	before, err := s.ReadSchedule(ctx, a)
	if err != nil {
		return nil, err
	}
	after, err := s.ReadSchedule(ctx, b)
	if err != nil {
		return nil, err
	}
	return diffRows(before, after), nil
}

// diffRows merges two day-ordered row lists.
func diffRows(before, after []dtai.Row) []Change {
	out := []Change{}
	i, j := 0, 0
	for i < len(before) || j < len(after) {
		switch {
		case j == len(after) || (i < len(before) && before[i].Day < after[j].Day):
			out = append(out, Change{Day: before[i].Day, Before: &before[i]})
			i++
		case i == len(before) || after[j].Day < before[i].Day:
			out = append(out, Change{Day: after[j].Day, After: &after[j]})
			j++
		default:
			if before[i] != after[j] {
				out = append(out, Change{Day: before[i].Day, Before: &before[i], After: &after[j]})
			}
			i++
			j++
		}
	}
	return out
}
