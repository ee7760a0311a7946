package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInto(t *testing.T, db, extra string) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "leap_seconds.tab")
	res := execute(t, testToday, "--format", "json", "build", "--config", writeConfig(t, extra), "--store", db, "-o", out)
	require.Equal(t, ExitSuccess, res.code, res.err)

	var resp struct {
		Data BuildResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	require.NotEmpty(t, resp.Data.RunID)
	return resp.Data.RunID
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	res := execute(t, testToday, "history", "--db", db)
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "No runs recorded.\n", res.out)
}

func TestHistoryListsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	id := buildInto(t, db, "")

	res := execute(t, testToday, "history", "--db", db)
	require.Equal(t, ExitSuccess, res.code, res.err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))
	assert.True(t, strings.HasPrefix(lines[1], id))
	assert.Contains(t, lines[1], "1950-01-01..2040-01-01")
	assert.Contains(t, lines[1], "2017-06-28")

	res = execute(t, testToday, "--format", "json", "history", "--db", db)
	require.Equal(t, ExitSuccess, res.code)
	var resp struct {
		Data []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, id, resp.Data[0].ID)
	assert.Len(t, resp.Data[0].Checksum, 64)
}

func TestHistoryDiff(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	a := buildInto(t, db, "")
	b := buildInto(t, db, "")

	res := execute(t, testToday, "history", "--db", db, "diff", a, b)
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "Schedules are identical.\n", res.out)

	c := buildInto(t, db, "overrides:\n  finch: false\n  iers: false\n")
	res = execute(t, testToday, "--format", "json", "history", "--db", db, "diff", a, c)
	require.Equal(t, ExitSuccess, res.code, res.err)
	var resp struct {
		Data []RowChange `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	assert.NotEmpty(t, resp.Data, "the official lists change the schedule")
	for _, ch := range resp.Data {
		assert.False(t, ch.Before == nil && ch.After == nil, fmt.Sprint(ch.Day))
	}
}

func TestHistoryDiffUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	a := buildInto(t, db, "")

	res := execute(t, testToday, "history", "--db", db, "diff", a, "no-such-run")
	assert.Equal(t, ExitCommandError, res.code)
}

func TestHistoryRequiresDB(t *testing.T) {
	res := execute(t, testToday, "history")
	assert.NotEqual(t, ExitSuccess, res.code)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0123456789ab", short("0123456789abcdef"))
	assert.Equal(t, "abc", short("abc"))
}
