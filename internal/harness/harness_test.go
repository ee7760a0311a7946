package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion failures:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_FailingAssertions(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/reversal.yaml")
	require.NoError(t, err)
	s.Assertions = []Assertion{
		{Type: AssertLeapCount, Count: 2},
		{Type: AssertLeapOn, Day: "2005-12-31", Length: 86401},
		{Type: AssertNoLeap, Day: "2000-12-31"},
		{Type: AssertDTAI, Day: "2001-06-30", Value: 1},
		{Type: AssertMaxPriority, Priority: 1},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Expected: 2 extraordinary days")
	assert.Contains(t, result.Errors[1], "Actual: length 86399")
	assert.Contains(t, result.Errors[2], "2000-12-31 to be ordinary")
	assert.Contains(t, result.Errors[3], "Actual: no row")
	assert.Contains(t, result.Errors[4], "2000-12-31 has class 3")
}

func TestRun_Bounds(t *testing.T) {
	// With the upper bound before the last point, the curve past the bound
	// continues the slope of the bound's last day instead of the data.
	s := &Scenario{
		Name:        "bounded",
		Description: "clamped",
		Timeline: TimelineSpec{
			Upper: "2001-01-01",
			Points: []Point{
				{Day: "2000-01-01", Value: 0},
				{Day: "2001-01-01", Value: 0.5},
				{Day: "2004-01-01", Value: 0.5},
			},
		},
		Assertions: []Assertion{{Type: AssertLeapCount, Count: 0}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass, "the data stays inside the band, the extrapolated slope does not")
	assert.NotEmpty(t, result.Rows)
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{
		Type:     AssertLeapCount,
		Expected: "1 extraordinary days",
		Actual:   "0 extraordinary days",
		Rows:     []dtai.Row{{Day: calendar.FromYMD(2016, 12, 31), Length: 86401, DTAI: 37}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: leap_count")
	assert.Contains(t, msg, "[1] 2016-12-31 86401 37")
}

func TestRender(t *testing.T) {
	r := NewResult()
	r.Rows = []dtai.Row{{Day: calendar.FromYMD(1972, 6, 30), Length: 86401, DTAI: 11}}
	assert.Equal(t, "# x\nleap 1972-06-30 86401 11\n", string(Render("x", r)))
}
