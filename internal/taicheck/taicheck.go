// Package taicheck compares a table's DTAI with the TAI-UTC offsets built
// into glibtai, the TAI64 library used for clock labels.
package taicheck

import (
	"errors"
	"fmt"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
)

// ErrUnsupported is returned on platforms glibtai does not build for.
var ErrUnsupported = errors.New("TAI cross-check is only available on linux/amd64")

// First is the first extraordinary day glibtai knows about.
var First = calendar.FromYMD(1972, 6, 30)

// Transition is the instant a row's DTAI takes effect: midnight UTC at the
// start of the following day.
type Transition struct {
	Day    calendar.Day // the extraordinary day
	Table  int          // DTAI from the table
	System int          // TAI-UTC from glibtai
	Label  string       // TAI64 label of the instant
}

// Mismatch reports whether the two offsets disagree.
func (t Transition) Mismatch() bool {
	return t.Table != t.System
}

func (t Transition) String() string {
	return fmt.Sprintf("%s %s table=%d glibtai=%d", t.Day, t.Label, t.Table, t.System)
}

// Report is the outcome of Check.
type Report struct {
	Transitions []Transition
}

// Mismatches returns the transitions whose offsets disagree.
func (r *Report) Mismatches() []Transition {
	out := []Transition{}
	for _, t := range r.Transitions {
		if t.Mismatch() {
			out = append(out, t)
		}
	}
	return out
}

// OK reports whether every checked transition agrees.
func (r *Report) OK() bool {
	return len(r.Mismatches()) == 0
}

// Check compares every row on or after First with glibtai.
func Check(rows []dtai.Row) (*Report, error) {
	r := &Report{Transitions: []Transition{}}
	for _, row := range rows {
		if row.Day < First {
			continue
		}
		at := (row.Day + 1).Time()
		offset, label, err := offsetAt(at)
		if err != nil {
			return nil, err
		}
		r.Transitions = append(r.Transitions, Transition{
			Day:    row.Day,
			Table:  row.DTAI,
			System: offset,
			Label:  label,
		})
	}
	return r, nil
}
