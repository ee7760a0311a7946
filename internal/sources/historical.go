package sources

import (
	"io"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

// LastObservedYear is the last year of the historical file that is an
// observation rather than a projection.
const LastObservedYear = 2015

// ReadHistorical reads the comma-separated historical ΔT reconstruction.
// Columns year (fractional) and deltaT are required; month and day
// override the month derived from the year fraction and the default day 1.
// Rows up to LastObservedYear are Historical, later ones AstroProjection.
func ReadHistorical(r io.Reader) (*Set, error) {
	t, err := newTable("historical", r, ',', nil)
	if err != nil {
		return nil, err
	}
	if err := t.require("year", "deltaT"); err != nil {
		return nil, err
	}

	s := &Set{}
	err = t.each(s, func(rec []string, line int) error {
		y, err := t.float(rec, "year", line)
		if err != nil {
			return err
		}
		v, err := t.float(rec, "deltaT", line)
		if err != nil {
			return err
		}
		year, m, d := dayFromYear(y).YMD()
		if _, ok := t.field(rec, "month"); ok {
			if m, err = t.int(rec, "month", line); err != nil {
				return err
			}
		}
		if _, ok := t.field(rec, "day"); ok {
			if d, err = t.int(rec, "day", line); err != nil {
				return err
			}
		}
		if m < 1 || m > 12 || d < 1 || d > calendar.DaysInMonth(year, m) {
			return t.bad(line, "no such day %d-%02d-%02d", year, m, d)
		}
		day := calendar.FromYMD(year, m, d)

		src := timeline.Historical
		if day.Year() > LastObservedYear {
			src = timeline.AstroProjection
		}
		s.add(src, timeline.Sample{Day: day, Value: v})
		s.noteYear(y)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
