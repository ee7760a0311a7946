package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/leaps"
	"github.com/roach88/leapcal/internal/table"
	"github.com/roach88/leapcal/internal/testutil"
)

// testToday is the day the pipeline fixtures were current: their Bulletin C
// expires on 2017-06-28.
var testToday = calendar.FromYMD(2017, 1, 1)

type execResult struct {
	out, err string
	code     int
}

// execute runs the root command with args and a clock fixed at today.
func execute(t *testing.T, today calendar.Day, args ...string) execResult {
	t.Helper()
	clock := testutil.NewFixedClock(today)
	cmd := newRootCommand(&RootOptions{Now: clock.Now})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return execResult{out: out.String(), err: errOut.String(), code: GetExitCode(err)}
}

// fixture returns the absolute path of a pipeline test input.
func fixture(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "pipeline", "testdata", name))
	require.NoError(t, err)
	return p
}

// writeConfig writes a pipeline file over the pipeline fixtures into a
// temporary directory and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	doc := fmt.Sprintf(`sources:
  historical: %s
  bulletin_a: %s
  iers_finals: %s
  bulletin_c: %s
comments:
  - cli test
%s`, fixture(t, "historical.csv"), fixture(t, "bulletin_a.txt"),
		fixture(t, "finals.csv"), fixture(t, "bulletin_c.txt"), extra)
	path := filepath.Join(dir, "leapcal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

// officialTable is the IERS leap seconds from 1972 on, expiring 2017-06-28.
func officialTable() *table.Table {
	rows := []dtai.Row{}
	for i, d := range leaps.IERS() {
		rows = append(rows, dtai.Row{Day: d, Length: 86401, DTAI: leaps.InitialOffset + i + 1})
	}
	return &table.Table{
		Comments:   []string{"official leap seconds"},
		Start:      calendar.FromYMD(1972, 1, 1),
		End:        calendar.FromYMD(2017, 6, 28),
		Expiration: calendar.FromYMD(2017, 6, 28),
		Rows:       rows,
	}
}

// writeTable encodes t into a temporary file.
func writeTable(t *testing.T, tab *table.Table, withChecksum bool) string {
	t.Helper()
	var buf bytes.Buffer
	var err error
	if withChecksum {
		_, err = table.Encode(&buf, tab)
	} else {
		_, err = table.EncodeWithoutChecksum(&buf, tab)
	}
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "leap_seconds.tab")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}
