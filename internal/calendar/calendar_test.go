package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYMDKnownDays(t *testing.T) {
	tests := []struct {
		name string
		y    int
		m    int
		d    int
		want Day
	}{
		{"J2000", 2000, 1, 1, 2451545},
		{"epoch", 1957, 12, 31, 2436204},
		{"unix epoch", 1970, 1, 1, 2440588},
		{"first IERS leap", 1972, 6, 30, 2441499},
		{"gregorian reform", 1582, 10, 15, 2299161},
		{"lower bound", -2000, 1, 1, 990575},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromYMD(tt.y, tt.m, tt.d))
		})
	}
}

func TestYMDRoundTrip(t *testing.T) {
	for d := FromYMD(-2000, 1, 1); d < FromYMD(2500, 12, 31); d += 97 {
		y, m, dd := d.YMD()
		require.Equal(t, d, FromYMD(y, m, dd), "day %d -> %d-%d-%d", d, y, m, dd)
	}
}

func TestLeapYears(t *testing.T) {
	assert.True(t, IsLeapYear(2000))
	assert.True(t, IsLeapYear(2016))
	assert.False(t, IsLeapYear(1900))
	assert.False(t, IsLeapYear(2019))
	assert.True(t, IsLeapYear(-4))

	assert.Equal(t, 29, DaysInMonth(2016, 2))
	assert.Equal(t, 28, DaysInMonth(2017, 2))
	assert.Equal(t, FromYMD(2016, 2, 29), LastOfMonth(2016, 2))
	assert.Equal(t, FromYMD(2016, 12, 31)+1, FromYMD(2017, 1, 1))
}

func TestTimeConversion(t *testing.T) {
	d := FromYMD(2017, 1, 1)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), d.Time())
	assert.Equal(t, d, FromTime(time.Date(2017, 1, 1, 23, 59, 59, 0, time.UTC)))
}

func TestMJD(t *testing.T) {
	d := FromYMD(1958, 1, 1)
	assert.Equal(t, 36204, d.MJD())
	assert.Equal(t, d, FromMJD(36204))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "30 Jun 1972", FromYMD(1972, 6, 30).String())
	assert.Equal(t, "1 Jan -2000", FromYMD(-2000, 1, 1).String())
	assert.Equal(t, "1972-06-30", FromYMD(1972, 6, 30).ISO())
	assert.Equal(t, "-0500-03-01", FromYMD(-500, 3, 1).ISO())
}

func TestParseISO(t *testing.T) {
	d, err := ParseISO("2016-12-31")
	require.NoError(t, err)
	assert.Equal(t, FromYMD(2016, 12, 31), d)

	d, err = ParseISO("-0500-03-01")
	require.NoError(t, err)
	assert.Equal(t, FromYMD(-500, 3, 1), d)

	_, err = ParseISO("2017-02-29")
	assert.Error(t, err)

	_, err = ParseISO("yesterday")
	assert.Error(t, err)
}

func TestMonthByName(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"June", 6, true},
		{"DECEMBER", 12, true},
		{"sep", 9, true},
		{" July ", 7, true},
		{"Ju", 0, false},
		{"", 0, false},
		{"Brumaire", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := MonthByName(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
