package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/synth"
	"github.com/roach88/leapcal/internal/timeline"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(t *testing.T, s *Store, id string, started time.Time) Run {
	t.Helper()
	run := Run{
		ID:         id,
		StartedAt:  started,
		ConfigHash: "cfg",
		Checksum:   "sum-" + id,
		Start:      calendar.FromYMD(1958, 1, 1),
		End:        calendar.FromYMD(2099, 12, 31),
		Expiration: calendar.FromYMD(2026, 6, 28),
	}
	require.NoError(t, s.WriteRun(context.Background(), run))
	return run
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_IndexesRunsByStart(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'runs' AND name = 'idx_runs_started_at'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_runs_started_at", name)
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestNewRunID(t *testing.T) {
	a, err := NewRunID()
	require.NoError(t, err)
	b, err := NewRunID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestWriteAndReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	want := createTestRun(t, s, "run-1", started)

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, want.Checksum, got.Checksum)
	assert.Equal(t, want.Start, got.Start)
	assert.Equal(t, want.End, got.End)
	assert.Equal(t, want.Expiration, got.Expiration)

	// duplicate IDs are ignored
	dup := want
	dup.Checksum = "other"
	require.NoError(t, s.WriteRun(ctx, dup))
	got, err = s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "sum-run-1", got.Checksum)

	_, err = s.ReadRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := createTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestRun(t, s, "a", base)
	createTestRun(t, s, "b", base.Add(2*time.Hour))
	createTestRun(t, s, "c", base.Add(time.Hour))

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestListRunsEmpty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestScheduleAndDecisions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "r", time.Now())

	rows := []dtai.Row{
		{Day: 2437481, Length: 86401, DTAI: 2},
		{Day: 2436934, Length: 86401, DTAI: 1},
	}
	require.NoError(t, s.WriteSchedule(ctx, "r", rows))
	got, err := s.ReadSchedule(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []dtai.Row{rows[1], rows[0]}, got, "rows come back in day order")

	decisions := []synth.Decision{
		{Anchor: 100, Cursor: 900, Day: 615, Priority: 3, Sign: 1, Score: 0.5},
		{Anchor: 700, Cursor: 1700, Day: 1639, Priority: 7, Sign: -1, Score: 0.25},
	}
	require.NoError(t, s.WriteDecisions(ctx, "r", decisions))
	gotD, err := s.ReadDecisions(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, decisions, gotD)
}

func TestWriteRequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteSchedule(context.Background(), "nope", []dtai.Row{{Day: 1, Length: 86401, DTAI: 1}})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestScheduleRejectsNormalLength(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "r", time.Now())
	err := s.WriteSchedule(context.Background(), "r", []dtai.Row{{Day: 1, Length: 86400, DTAI: 0}})
	assert.Error(t, err)
}

func TestWriteSamples(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "r", time.Now())

	samples := []timeline.Attributed{
		{Sample: timeline.Sample{Day: 10, Value: 32.184}, Source: timeline.Historical},
		{Sample: timeline.Sample{Day: 11, Value: 32.5, Qualifier: "I"}, Source: timeline.IERSFinal},
	}
	require.NoError(t, s.WriteSamples(ctx, "r", samples))
	n, err := s.CountSamples(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var src string
	require.NoError(t, s.DB().QueryRow(`SELECT source FROM samples WHERE run_id = ? AND day = 11`, "r").Scan(&src))
	assert.Equal(t, "IERS UT1-UTC I", src)
}

func TestDiffSchedules(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "a", time.Now())
	createTestRun(t, s, "b", time.Now())

	require.NoError(t, s.WriteSchedule(ctx, "a", []dtai.Row{
		{Day: 100, Length: 86401, DTAI: 1},
		{Day: 200, Length: 86401, DTAI: 2},
		{Day: 300, Length: 86401, DTAI: 3},
	}))
	require.NoError(t, s.WriteSchedule(ctx, "b", []dtai.Row{
		{Day: 100, Length: 86401, DTAI: 1},
		{Day: 250, Length: 86401, DTAI: 2},
		{Day: 300, Length: 86401, DTAI: 3},
		{Day: 400, Length: 86399, DTAI: 2},
	}))

	changes, err := s.DiffSchedules(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, calendar.Day(200), changes[0].Day)
	assert.NotNil(t, changes[0].Before)
	assert.Nil(t, changes[0].After)

	assert.Equal(t, calendar.Day(250), changes[1].Day)
	assert.Nil(t, changes[1].Before)
	assert.Equal(t, 2, changes[1].After.DTAI)

	assert.Equal(t, calendar.Day(400), changes[2].Day)
	assert.Equal(t, 86399, changes[2].After.Length)

	_, err = s.DiffSchedules(ctx, "a", "zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDiffRowsAltered(t *testing.T) {
	changes := diffRows(
		[]dtai.Row{{Day: 5, Length: 86401, DTAI: 1}},
		[]dtai.Row{{Day: 5, Length: 86399, DTAI: -1}},
	)
	require.Len(t, changes, 1)
	assert.Equal(t, 86401, changes[0].Before.Length)
	assert.Equal(t, 86399, changes[0].After.Length)
	assert.Empty(t, diffRows(nil, nil))
}
