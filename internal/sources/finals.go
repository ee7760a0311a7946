package sources

import (
	"io"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/leaps"
	"github.com/roach88/leapcal/internal/timeline"
)

// FinalsColumns are the leading columns of the IERS finals2000A CSV.
var FinalsColumns = []string{
	"MJD", "Year", "Month", "Day",
	"type_pole", "x_pole", "sigma_x_pole", "y_pole", "sigma_y_pole",
	"type_UT1-UTC", "UT1-UTC", "sigma_UT1-UTC", "LOD", "sigma_LOD",
}

// Finals is the IERS UT1-UTC series converted to ΔT.
type Finals struct {
	Set
	// Last is the day of the last row with a UT1-UTC value, LastValue its ΔT.
	Last      calendar.Day
	LastValue float64
	HasLast   bool
}

// ReadIERSFinals reads the semicolon-separated finals2000A file. Rows
// without a UT1-UTC value are future placeholders and are ignored. The
// type_UT1-UTC column, I for measured or P for predicted, is kept as the
// sample qualifier.
func ReadIERSFinals(r io.Reader) (*Finals, error) {
	t, err := newTable("iers-finals", r, ';', FinalsColumns)
	if err != nil {
		return nil, err
	}

	f := &Finals{}
	err = t.each(&f.Set, func(rec []string, line int) error {
		if v, _ := t.field(rec, "MJD"); v == "MJD" {
			return nil
		}
		if v, _ := t.field(rec, "UT1-UTC"); v == "" {
			return nil
		}
		y, err := t.int(rec, "Year", line)
		if err != nil {
			return err
		}
		m, err := t.int(rec, "Month", line)
		if err != nil {
			return err
		}
		d, err := t.int(rec, "Day", line)
		if err != nil {
			return err
		}
		if m < 1 || m > 12 || d < 1 || d > calendar.DaysInMonth(y, m) {
			return t.bad(line, "no such day %d-%02d-%02d", y, m, d)
		}
		ut1utc, err := t.float(rec, "UT1-UTC", line)
		if err != nil {
			return err
		}
		kind, _ := t.field(rec, "type_UT1-UTC")

		day := calendar.FromYMD(y, m, d)
		dt := TTMinusTAI - ut1utc + float64(leaps.Since(day))
		f.add(timeline.IERSFinal, timeline.Sample{Day: day, Value: dt, Qualifier: kind})
		f.noteYear(float64(y))
		f.Last, f.LastValue, f.HasLast = day, dt, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
