package sources

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/leaps"
	"github.com/roach88/leapcal/internal/timeline"
)

// DefaultProjectionDays is how far a Bulletin A formula is projected.
const DefaultProjectionDays = 1000

const (
	formulaPrefix = "         UT1-UTC = "
	dateLine      = 8
)

// BulletinA holds the UT1-UTC prediction formula of an IERS Bulletin A:
//
//	UT1-UTC = Offset + Slope (MJD - BaseMJD) - (UT2-UT1)
type BulletinA struct {
	Date    calendar.Day
	Offset  float64
	Slope   float64
	BaseMJD int
}

// BaseDay is the day the formula is anchored on.
func (b *BulletinA) BaseDay() calendar.Day {
	return calendar.FromMJD(b.BaseMJD)
}

// ParseBulletinA extracts the bulletin date and the prediction formula.
func ParseBulletinA(r io.Reader) (*BulletinA, error) {
	b := &BulletinA{}
	found := false
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if n == dateLine {
			left := line
			if len(left) > 40 {
				left = left[:40]
			}
			t, err := time.Parse("2 January 2006", strings.TrimSpace(left))
			if err != nil {
				return nil, fmt.Errorf("bulletin A line %d: date: %w", n, err)
			}
			b.Date = calendar.FromTime(t)
		}
		if !strings.HasPrefix(line, formulaPrefix) {
			continue
		}
		if len(line) < 49 {
			return nil, fmt.Errorf("bulletin A line %d: formula line too short", n)
		}
		var err error
		if b.Offset, err = strconv.ParseFloat(strings.TrimSpace(line[19:26]), 64); err != nil {
			return nil, fmt.Errorf("bulletin A line %d: offset: %w", n, err)
		}
		if b.Slope, err = strconv.ParseFloat(line[27:28]+strings.TrimSpace(line[29:36]), 64); err != nil {
			return nil, fmt.Errorf("bulletin A line %d: slope: %w", n, err)
		}
		if b.BaseMJD, err = strconv.Atoi(strings.TrimSpace(line[44:49])); err != nil {
			return nil, fmt.Errorf("bulletin A line %d: base MJD: %w", n, err)
		}
		found = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bulletin A: %w", err)
	}
	if !found {
		return nil, errors.New("bulletin A: no UT1-UTC formula")
	}
	slog.Debug("bulletin A parsed",
		"date", b.Date.String(), "offset", b.Offset, "slope", b.Slope, "base_mjd", b.BaseMJD)
	return b, nil
}

// Project evaluates the formula on each of the days days starting at the
// base day. Leap seconds are counted as of the base day.
func (b *BulletinA) Project(days int) *Set {
	s := &Set{}
	base := b.BaseDay()
	since := float64(leaps.Since(base))
	for i := 0; i < days; i++ {
		day := base + calendar.Day(i)
		ut1utc := b.Offset + b.Slope*float64(i) - timeline.UT2Seasonal(day)
		s.add(timeline.IERSProjection, timeline.Sample{Day: day, Value: TTMinusTAI - ut1utc + since})
	}
	return s
}

// Bulletin C announcement sentences.
const (
	noLeapPrefix   = "NO leap second will be introduced at the end of "
	positivePrefix = "A positive leap second will be introduced at the end of "
	negativePrefix = "A negative leap second will be introduced at the end of "
)

// BulletinC is the announcement of an IERS Bulletin C.
type BulletinC struct {
	Number string
	Date   calendar.Day
	// Year and Month name the month at whose end the announcement applies.
	Year, Month int
	// Sign is +1 or -1 for an announced leap second, 0 when none.
	Sign int
}

// ParseBulletinC finds the bulletin number, its date and the leap second
// announcement.
func ParseBulletinC(r io.Reader) (*BulletinC, error) {
	c := &BulletinC{}
	found := false
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Paris, "):
			t, err := time.Parse("2 January 2006", strings.TrimSpace(strings.TrimPrefix(line, "Paris, ")))
			if err != nil {
				return nil, fmt.Errorf("bulletin C line %d: date: %w", n, err)
			}
			c.Date = calendar.FromTime(t)
		case strings.HasPrefix(line, "Bulletin C "):
			c.Number = strings.TrimSpace(strings.TrimPrefix(line, "Bulletin C "))
		}

		var rest string
		switch {
		case strings.HasPrefix(line, noLeapPrefix):
			rest, c.Sign = strings.TrimPrefix(line, noLeapPrefix), 0
		case strings.HasPrefix(line, positivePrefix):
			rest, c.Sign = strings.TrimPrefix(line, positivePrefix), 1
		case strings.HasPrefix(line, negativePrefix):
			rest, c.Sign = strings.TrimPrefix(line, negativePrefix), -1
		default:
			continue
		}
		y, m, err := parseMonthYear(strings.TrimSuffix(rest, "."))
		if err != nil {
			return nil, fmt.Errorf("bulletin C line %d: %w", n, err)
		}
		c.Year, c.Month = y, m
		found = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bulletin C: %w", err)
	}
	if !found {
		return nil, errors.New("bulletin C: no leap second announcement")
	}
	slog.Debug("bulletin C parsed", "number", c.Number, "year", c.Year, "month", c.Month, "sign", c.Sign)
	return c, nil
}

// parseMonthYear parses "June 2025".
func parseMonthYear(s string) (int, int, error) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("want <month> <year>, got %q", s)
	}
	m, ok := calendar.MonthByName(f[0])
	if !ok {
		return 0, 0, fmt.Errorf("unknown month %q", f[0])
	}
	y, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, 0, fmt.Errorf("year %q: %w", f[1], err)
	}
	return y, m, nil
}

// Expiration is the day a table built from this bulletin stops being
// authoritative: 180 days after the middle of the announced month, moved
// to the 28th of the month that lands in.
func (c *BulletinC) Expiration() calendar.Day {
	y, m, _ := (calendar.FromYMD(c.Year, c.Month, 15) + 180).YMD()
	return calendar.FromYMD(y, m, 28)
}

// Leap returns the announced extraordinary day and its sign.
func (c *BulletinC) Leap() (calendar.Day, int, bool) {
	if c.Sign == 0 {
		return 0, 0, false
	}
	return calendar.LastOfMonth(c.Year, c.Month), c.Sign, true
}
