// Package leaps holds the published leap second announcements that the
// rest of leapcal treats as authoritative.
package leaps

import (
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

// InitialOffset is TAI-UTC on 1972-01-01, when integer leap seconds began.
const InitialOffset = 10

// iers lists the days that ended with a positive leap second, as published
// by the IERS through Bulletin C 52 (the 2016-12-31 leap).
var iers = []calendar.Day{
	calendar.FromYMD(1972, 6, 30),
	calendar.FromYMD(1972, 12, 31),
	calendar.FromYMD(1973, 12, 31),
	calendar.FromYMD(1974, 12, 31),
	calendar.FromYMD(1975, 12, 31),
	calendar.FromYMD(1976, 12, 31),
	calendar.FromYMD(1977, 12, 31),
	calendar.FromYMD(1978, 12, 31),
	calendar.FromYMD(1979, 12, 31),
	calendar.FromYMD(1981, 6, 30),
	calendar.FromYMD(1982, 6, 30),
	calendar.FromYMD(1983, 6, 30),
	calendar.FromYMD(1985, 6, 30),
	calendar.FromYMD(1987, 12, 31),
	calendar.FromYMD(1989, 12, 31),
	calendar.FromYMD(1990, 12, 31),
	calendar.FromYMD(1992, 6, 30),
	calendar.FromYMD(1993, 6, 30),
	calendar.FromYMD(1994, 6, 30),
	calendar.FromYMD(1995, 12, 31),
	calendar.FromYMD(1997, 6, 30),
	calendar.FromYMD(1998, 12, 31),
	calendar.FromYMD(2005, 12, 31),
	calendar.FromYMD(2008, 12, 31),
	calendar.FromYMD(2012, 6, 30),
	calendar.FromYMD(2015, 6, 30),
	calendar.FromYMD(2016, 12, 31),
}

// finch lists Tony Finch's reconstruction of the ten seconds that
// accumulated between 1958-01-01 (DTAI 0) and 1972-01-01 (DTAI 10).
var finch = []calendar.Day{
	calendar.FromYMD(1959, 6, 30),
	calendar.FromYMD(1961, 6, 30),
	calendar.FromYMD(1963, 6, 30),
	calendar.FromYMD(1964, 12, 31),
	calendar.FromYMD(1966, 6, 30),
	calendar.FromYMD(1967, 6, 30),
	calendar.FromYMD(1968, 6, 30),
	calendar.FromYMD(1969, 6, 30),
	calendar.FromYMD(1970, 6, 30),
	calendar.FromYMD(1971, 6, 30),
}

// IERS returns a copy of the official leap days in ascending order.
func IERS() []calendar.Day {
	return append([]calendar.Day(nil), iers...)
}

// Finch returns a copy of the pre-1972 reconstructed leap days.
func Finch() []calendar.Day {
	return append([]calendar.Day(nil), finch...)
}

// Since returns TAI-UTC in effect at the start of day: InitialOffset plus
// every official leap second inserted on an earlier day. Days before the
// first announcement get InitialOffset.
func Since(day calendar.Day) int {
	n := sort.Search(len(iers), func(i int) bool {
		return iers[i] >= day
	})
	return InitialOffset + n
}
