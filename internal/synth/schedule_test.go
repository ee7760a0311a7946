package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/leaps"
	"github.com/roach88/leapcal/internal/priority"
)

func TestScheduleSetRejectsOrdinaryLengths(t *testing.T) {
	s := NewSchedule()
	assert.Error(t, s.Set(10, NormalLength))
	assert.Error(t, s.Set(10, 86402))
	require.NoError(t, s.Set(10, ShortLength))
	require.NoError(t, s.Set(5, LongLength))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []calendar.Day{5, 10}, s.Days())

	s.Delete(10)
	assert.Equal(t, NormalLength, s.Length(10))
	assert.Equal(t, 1, s.Len())
}

func TestScheduleNext(t *testing.T) {
	s := NewSchedule()
	require.NoError(t, s.Set(100, LongLength))
	require.NoError(t, s.Set(200, ShortLength))

	d, sign, ok := s.Next(100)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(100), d)
	assert.Equal(t, 1, sign)

	d, sign, ok = s.Next(101)
	require.True(t, ok)
	assert.Equal(t, calendar.Day(200), d)
	assert.Equal(t, -1, sign)

	_, _, ok = s.Next(201)
	assert.False(t, ok)
}

func TestApplyOverrideIERS(t *testing.T) {
	prio := priority.Build(1958, 2030)
	s := NewSchedule()
	inside := calendar.FromYMD(1980, 3, 31)
	before := calendar.FromYMD(1971, 6, 30)
	after := calendar.FromYMD(2025, 6, 30)
	for _, d := range []calendar.Day{inside, before, after} {
		require.NoError(t, s.Set(d, ShortLength))
	}

	ApplyOverride(s, prio, IERSWindow)

	assert.Equal(t, NormalLength, s.Length(inside), "synthesized days inside the window are dropped")
	assert.Equal(t, ShortLength, s.Length(before))
	assert.Equal(t, ShortLength, s.Length(after))
	for _, d := range leaps.IERS() {
		assert.Equal(t, LongLength, s.Length(d), "%s", d)
	}
	assert.Equal(t, 27+2, s.Len())
}

func TestApplyOverrideFinch(t *testing.T) {
	prio := priority.Build(1958, 2030)
	s := NewSchedule()
	ApplyOverride(s, prio, FinchWindow)
	assert.Equal(t, leaps.Finch(), s.Days())

	// applying twice changes nothing
	ApplyOverride(s, prio, FinchWindow)
	assert.Equal(t, leaps.Finch(), s.Days())
}

func TestWindowClip(t *testing.T) {
	w := IERSWindow.Clip(calendar.FromYMD(1960, 1, 1), calendar.FromYMD(1990, 1, 1))
	assert.Equal(t, calendar.FromYMD(1972, 1, 1), w.From)
	assert.Equal(t, calendar.FromYMD(1990, 1, 1), w.To)

	w = FinchWindow.Clip(calendar.FromYMD(1980, 1, 1), calendar.FromYMD(1990, 1, 1))
	assert.False(t, w.From < w.To, "a window outside the range is empty")
}

func TestApplyOverrideStopsBeforeEnd(t *testing.T) {
	end := calendar.FromYMD(1972, 6, 30)
	s := NewSchedule()
	prio := priority.Build(1960, 1980)
	ApplyOverride(s, prio, IERSWindow.Clip(calendar.FromYMD(1960, 1, 1), end))

	assert.Equal(t, NormalLength, s.Length(end), "the end of the range is exclusive")
	assert.Zero(t, s.Len())
}

func TestWindowContains(t *testing.T) {
	assert.True(t, FinchWindow.Contains(FinchWindow.From))
	assert.False(t, FinchWindow.Contains(FinchWindow.To))
	assert.Equal(t, calendar.FromYMD(1971, 12, 31), FinchWindow.To)
}
