// Package calendar converts between Julian Day Numbers and proleptic
// Gregorian dates.
//
// A Day is the standard (noon-based) Julian Day Number of a civil day:
// 2000-01-01 is 2451545. Every other package keys its data by Day, so this
// package is the only place that knows about months and leap years.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Day is a Julian Day Number.
type Day int

// Epoch is the day before 1958-01-01, where DTAI is zero by definition.
var Epoch = FromYMD(1957, 12, 31)

// unixEpoch is the Day of 1970-01-01.
const unixEpoch Day = 2440588

// mjdOffset maps a Modified Julian Date (counted from midnight) onto the
// Day that starts at that midnight.
const mjdOffset = 2400001

var monthAbbrev = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var monthNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// FromYMD returns the Day of a Gregorian date, using the Fliegel and
// Van Flandern integer algorithm. Valid for years after -4800.
func FromYMD(year, month, day int) Day {
	a := (month - 14) / 12
	jdn := day - 32075 +
		1461*(year+4800+a)/4 +
		367*(month-2-a*12)/12 -
		3*((year+4900+a)/100)/4
	return Day(jdn)
}

// YMD returns the Gregorian year, month and day of d.
func (d Day) YMD() (year, month, day int) {
	l := int(d) + 68569
	n := 4 * l / 146097
	l = l - (146097*n+3)/4
	i := 4000 * (l + 1) / 1461001
	l = l - 1461*i/4 + 31
	j := 80 * l / 2447
	k := l - 2447*j/80
	l = j / 11
	j = j + 2 - 12*l
	i = 100*(n-49) + i + l
	return i, j, k
}

// Year returns the Gregorian year of d.
func (d Day) Year() int {
	y, _, _ := d.YMD()
	return y
}

// IsLeapYear reports whether year has a February 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysInMonth[month-1]
}

// LastOfMonth returns the last day of month in year.
func LastOfMonth(year, month int) Day {
	return FromYMD(year, month, DaysInMonth(year, month))
}

// FromTime returns the civil day containing t, taken in UTC.
func FromTime(t time.Time) Day {
	t = t.UTC()
	return FromYMD(t.Year(), int(t.Month()), t.Day())
}

// Time returns midnight UTC at the start of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d-unixEpoch)*86400, 0).UTC()
}

// MJD returns the Modified Julian Date of midnight at the start of d.
func (d Day) MJD() int {
	return int(d) - mjdOffset
}

// FromMJD returns the Day starting at the given Modified Julian Date.
func FromMJD(mjd int) Day {
	return Day(mjd + mjdOffset)
}

// String formats d as "30 Jun 1972".
func (d Day) String() string {
	y, m, dd := d.YMD()
	return fmt.Sprintf("%d %s %d", dd, monthAbbrev[m-1], y)
}

// ISO formats d as "1972-06-30".
func (d Day) ISO() string {
	y, m, dd := d.YMD()
	if y < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -y, m, dd)
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, dd)
}

// ParseISO parses "YYYY-MM-DD". Unlike time.Parse it accepts years outside
// 0000-9999 and a leading minus sign.
func ParseISO(s string) (Day, error) {
	var y, m, d int
	neg := strings.HasPrefix(s, "-")
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "-"), "%d-%d-%d", &y, &m, &d); err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	if neg {
		y = -y
	}
	if m < 1 || m > 12 || d < 1 || d > DaysInMonth(y, m) {
		return 0, fmt.Errorf("parse date %q: no such day", s)
	}
	return FromYMD(y, m, d), nil
}

// MonthByName returns the month number for an English month name or its
// three-letter abbreviation, ignoring case.
func MonthByName(name string) (int, bool) {
	key := cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
	if key == "" {
		return 0, false
	}
	for i, full := range monthNames {
		if key == full || (len(key) == 3 && strings.HasPrefix(full, key)) {
			return i + 1, true
		}
	}
	return 0, false
}

// MonthAbbrev returns the three-letter English abbreviation of month.
func MonthAbbrev(month int) string {
	return monthAbbrev[month-1]
}
