package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

func open(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadHistorical(t *testing.T) {
	s, err := ReadHistorical(open(t, "historical.csv"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Skipped)
	require.Len(t, s.Samples, 5)
	assert.Equal(t, calendar.FromYMD(1958, 7, 1), s.Samples[2].Day)
	assert.Equal(t, 32.6, s.Samples[2].Value)
	assert.Equal(t, 3, s.Count(timeline.Historical))
	assert.Equal(t, 2, s.Count(timeline.AstroProjection))
	assert.Equal(t, 1957.0, s.MinYear)
	assert.Equal(t, 2016.5, s.MaxYear)
}

func TestReadHistoricalExplicitDays(t *testing.T) {
	s, err := ReadHistorical(open(t, "historical_days.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Skipped, "30 February is skipped")
	require.Len(t, s.Samples, 1)
	assert.Equal(t, calendar.FromYMD(1990, 3, 15), s.Samples[0].Day)
}

func TestReadHistoricalMissingColumn(t *testing.T) {
	_, err := ReadHistorical(strings.NewReader("year,value\n2000,1\n"))
	assert.ErrorContains(t, err, `missing column "deltaT"`)

	_, err = ReadHistorical(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadUSNOPredictions(t *testing.T) {
	s, err := ReadUSNOPredictions(open(t, "usno_predictions.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Skipped)
	require.Len(t, s.Samples, 2)
	assert.Equal(t, calendar.FromYMD(2024, 4, 1), s.Samples[1].Day)
	assert.Equal(t, timeline.USNOProjection, s.Samples[1].Source)
	assert.False(t, s.HasYears)
}

func TestReadUSNORecords(t *testing.T) {
	s, err := ReadUSNORecords(open(t, "usno_records.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Skipped)
	require.Len(t, s.Samples, 2)
	assert.Equal(t, calendar.FromYMD(1973, 2, 1), s.Samples[0].Day)
	assert.Equal(t, 43.4724, s.Samples[0].Value)
}

func TestReadIERSFinals(t *testing.T) {
	f, err := ReadIERSFinals(open(t, "finals.csv"))
	require.NoError(t, err)
	assert.Zero(t, f.Skipped, "header and placeholder rows are not malformed")
	require.Len(t, f.Samples, 3)

	first := f.Samples[0]
	assert.Equal(t, calendar.FromYMD(1973, 1, 2), first.Day)
	assert.Equal(t, "I", first.Qualifier)
	// two leap seconds in 1972 on top of the initial ten
	assert.InDelta(t, 32.184-0.8084178+12, first.Value, 1e-9)

	require.True(t, f.HasLast)
	assert.Equal(t, calendar.FromYMD(2023, 2, 26), f.Last)
	assert.InDelta(t, 32.184+0.0123+37, f.LastValue, 1e-9)
	assert.Equal(t, "P", f.Samples[2].Qualifier)
	assert.Equal(t, 1973.0, f.MinYear)
	assert.Equal(t, 2023.0, f.MaxYear)
}

func TestParseBulletinA(t *testing.T) {
	b, err := ParseBulletinA(open(t, "bulletin_a.txt"))
	require.NoError(t, err)
	assert.Equal(t, calendar.FromYMD(2023, 11, 16), b.Date)
	assert.Equal(t, -0.0051, b.Offset)
	assert.Equal(t, -0.00032, b.Slope)
	assert.Equal(t, 60262, b.BaseMJD)
	assert.Equal(t, calendar.FromYMD(2023, 11, 14), b.BaseDay())

	s := b.Project(10)
	require.Len(t, s.Samples, 10)
	base := b.BaseDay()
	assert.Equal(t, base, s.Samples[0].Day)
	assert.Equal(t, base+9, s.Samples[9].Day)
	assert.InDelta(t, 32.184+0.0051+timeline.UT2Seasonal(base)+37, s.Samples[0].Value, 1e-12)
	assert.InDelta(t, 32.184-(-0.0051-0.00032*9-timeline.UT2Seasonal(base+9))+37, s.Samples[9].Value, 1e-12)
	assert.Equal(t, 10, s.Count(timeline.IERSProjection))
}

func TestParseBulletinAWithoutFormula(t *testing.T) {
	_, err := ParseBulletinA(strings.NewReader("nothing here\n"))
	assert.ErrorContains(t, err, "no UT1-UTC formula")
}

func TestParseBulletinC(t *testing.T) {
	tests := []struct {
		file       string
		number     string
		date       calendar.Day
		sign       int
		expiration calendar.Day
	}{
		{"bulletin_c_none.txt", "66", calendar.FromYMD(2023, 7, 6), 0, calendar.FromYMD(2024, 6, 28)},
		{"bulletin_c_positive.txt", "52", calendar.FromYMD(2016, 7, 6), 1, calendar.FromYMD(2017, 6, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			c, err := ParseBulletinC(open(t, tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.number, c.Number)
			assert.Equal(t, tt.date, c.Date)
			assert.Equal(t, tt.sign, c.Sign)
			assert.Equal(t, tt.expiration, c.Expiration())
		})
	}
}

func TestBulletinCLeap(t *testing.T) {
	c, err := ParseBulletinC(open(t, "bulletin_c_positive.txt"))
	require.NoError(t, err)
	d, sign, ok := c.Leap()
	require.True(t, ok)
	assert.Equal(t, calendar.FromYMD(2016, 12, 31), d)
	assert.Equal(t, 1, sign)

	c, err = ParseBulletinC(open(t, "bulletin_c_none.txt"))
	require.NoError(t, err)
	_, _, ok = c.Leap()
	assert.False(t, ok)

	_, err = ParseBulletinC(open(t, "bulletin_c_empty.txt"))
	assert.ErrorContains(t, err, "no leap second announcement")
}

func TestSetLoadInto(t *testing.T) {
	s, err := ReadHistorical(open(t, "historical.csv"))
	require.NoError(t, err)

	tl := timeline.New()
	s.LoadInto(tl)
	assert.Equal(t, 5, tl.Len())
	assert.Equal(t, []timeline.Source{timeline.Historical, timeline.AstroProjection}, tl.Sources())
	minY, maxY := tl.YearRange()
	assert.Equal(t, 1957, minY)
	assert.Equal(t, 2017, maxY)
}
