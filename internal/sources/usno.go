package sources

import (
	"io"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

// ReadUSNOPredictions reads the semicolon-separated USNO ΔT predictions,
// columns YEAR (fractional) and "TT-UT Pred". Each row is dated the first
// of the month its year fraction falls in.
func ReadUSNOPredictions(r io.Reader) (*Set, error) {
	t, err := newTable("usno-predictions", r, ';', nil)
	if err != nil {
		return nil, err
	}
	if err := t.require("YEAR", "TT-UT Pred"); err != nil {
		return nil, err
	}

	s := &Set{}
	err = t.each(s, func(rec []string, line int) error {
		y, err := t.float(rec, "YEAR", line)
		if err != nil {
			return err
		}
		v, err := t.float(rec, "TT-UT Pred", line)
		if err != nil {
			return err
		}
		s.add(timeline.USNOProjection, timeline.Sample{Day: dayFromYear(y), Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReadUSNORecords reads the semicolon-separated USNO ΔT records, columns
// year, month, day and delta_T.
func ReadUSNORecords(r io.Reader) (*Set, error) {
	t, err := newTable("usno-records", r, ';', nil)
	if err != nil {
		return nil, err
	}
	if err := t.require("year", "month", "day", "delta_T"); err != nil {
		return nil, err
	}

	s := &Set{}
	err = t.each(s, func(rec []string, line int) error {
		y, err := t.float(rec, "year", line)
		if err != nil {
			return err
		}
		m, err := t.int(rec, "month", line)
		if err != nil {
			return err
		}
		d, err := t.int(rec, "day", line)
		if err != nil {
			return err
		}
		v, err := t.float(rec, "delta_T", line)
		if err != nil {
			return err
		}
		year := int(y)
		if m < 1 || m > 12 || d < 1 || d > calendar.DaysInMonth(year, m) {
			return t.bad(line, "no such day %d-%02d-%02d", year, m, d)
		}
		s.add(timeline.USNORecords, timeline.Sample{Day: calendar.FromYMD(year, m, d), Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
