// Package priority ranks calendar days by how suitable they are for a leap
// second. The ranking only breaks ties between days on which a correction is
// equally valid; it never decides whether a correction is needed.
package priority

import (
	"log/slog"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/leaps"
)

// Class is a day's preference rank. Lower is more preferred.
type Class int

const (
	ClassIERS     Class = 1 // official IERS leap day
	ClassFinch    Class = 2 // Tony Finch's pre-1972 reconstruction
	ClassSolstice Class = 3 // last day of June or December
	ClassEquinox  Class = 4 // last day of March or September
	ClassMonthEnd Class = 5
	ClassMidMonth Class = 6 // the 15th
	ClassDefault  Class = 7
)

// Table maps days to their class. Days that were never ranked are
// ClassDefault and are not stored.
type Table struct {
	classes map[calendar.Day]Class
}

// Build ranks every day of the years [minYear, maxYear]. Rules are applied
// from most to least preferred and a ranked day is never re-ranked.
func Build(minYear, maxYear int) *Table {
	t := &Table{classes: make(map[calendar.Day]Class)}

	for _, d := range leaps.IERS() {
		t.mark(d, ClassIERS)
	}
	for _, d := range leaps.Finch() {
		t.mark(d, ClassFinch)
	}
	for y := minYear; y <= maxYear; y++ {
		t.mark(calendar.LastOfMonth(y, 6), ClassSolstice)
		t.mark(calendar.LastOfMonth(y, 12), ClassSolstice)
	}
	for y := minYear; y <= maxYear; y++ {
		t.mark(calendar.LastOfMonth(y, 3), ClassEquinox)
		t.mark(calendar.LastOfMonth(y, 9), ClassEquinox)
	}
	for y := minYear; y <= maxYear; y++ {
		for m := 1; m <= 12; m++ {
			t.mark(calendar.LastOfMonth(y, m), ClassMonthEnd)
		}
	}
	for y := minYear; y <= maxYear; y++ {
		for m := 1; m <= 12; m++ {
			t.mark(calendar.FromYMD(y, m, 15), ClassMidMonth)
		}
	}

	slog.Debug("priority table built", "min_year", minYear, "max_year", maxYear, "days", len(t.classes))
	return t
}

func (t *Table) mark(d calendar.Day, c Class) {
	if _, ok := t.classes[d]; ok {
		return
	}
	t.classes[d] = c
}

// Get returns the class of d as an int, ClassDefault if d was never ranked.
func (t *Table) Get(d calendar.Day) int {
	return int(t.Class(d))
}

// Class returns the class of d.
func (t *Table) Class(d calendar.Day) Class {
	if c, ok := t.classes[d]; ok {
		return c
	}
	return ClassDefault
}

// Len returns the number of ranked days.
func (t *Table) Len() int {
	return len(t.classes)
}

// Days returns, in ascending order, every ranked day whose class is at most
// max.
func (t *Table) Days(max Class) []calendar.Day {
	out := make([]calendar.Day, 0)
	for d, c := range t.classes {
		if c <= max {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
