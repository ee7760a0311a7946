package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/synth"
	"github.com/roach88/leapcal/internal/timeline"
)

// Run is the summary row of one pipeline run.
type Run struct {
	ID         string
	StartedAt  time.Time
	ConfigHash string
	Checksum   string
	Start      calendar.Day
	End        calendar.Day
	Expiration calendar.Day
}

// NewRunID returns a time-ordered run identifier (UUIDv7), so IDs sort in
// the order runs were created.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new run id: %w", err)
	}
	return id.String(), nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, config_hash, checksum, start_day, end_day, expiration_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.ConfigHash,
		run.Checksum,
		int(run.Start),
		int(run.End),
		int(run.Expiration),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSamples stores the merged timeline of a run. The run must exist.
func (s *Store) WriteSamples(ctx context.Context, runID string, samples []timeline.Attributed) error {
	return s.batch(ctx, "write samples", `
		INSERT INTO samples (run_id, day, value, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, day) DO UPDATE SET value = excluded.value, source = excluded.source
	`, len(samples), func(stmt *sql.Stmt, i int) error {
		smp := samples[i]
		_, err := stmt.ExecContext(ctx, runID, int(smp.Day), smp.Value, smp.Source.Label(smp.Qualifier))
		return err
	})
}

// WriteSchedule stores the table rows of a run. The run must exist.
func (s *Store) WriteSchedule(ctx context.Context, runID string, rows []dtai.Row) error {
	return s.batch(ctx, "write schedule", `
		INSERT INTO schedule (run_id, day, length, dtai)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, day) DO UPDATE SET length = excluded.length, dtai = excluded.dtai
	`, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx, runID, int(r.Day), r.Length, r.DTAI)
		return err
	})
}

// WriteDecisions stores the scanner decisions of a run, numbered from 1 in
// the order given. The run must exist.
func (s *Store) WriteDecisions(ctx context.Context, runID string, decisions []synth.Decision) error {
	return s.batch(ctx, "write decisions", `
		INSERT INTO decisions (run_id, seq, anchor, cursor, chosen, priority, sign, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, len(decisions), func(stmt *sql.Stmt, i int) error {
		d := decisions[i]
		_, err := stmt.ExecContext(ctx, runID, i+1,
			int(d.Anchor), int(d.Cursor), int(d.Day), d.Priority, d.Sign, d.Score)
		return err
	})
}

// batch runs n executions of one prepared statement in a transaction.
func (s *Store) batch(ctx context.Context, op, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
