// Package dtai accumulates TAI-UTC from a schedule of extraordinary days.
//
// DTAI at the epoch is zero. Forward of the epoch every extraordinary day
// adds its excess length to the running total. Backward of the epoch each
// day takes its larger neighbour's total minus that neighbour's excess, so
// a day's value is the total in force after it ends.
package dtai

import (
	"fmt"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

const normal = 86400

// Lengths is a schedule of extraordinary days.
type Lengths interface {
	Days() []calendar.Day
	Length(day calendar.Day) int
}

// Accumulate returns DTAI for every extraordinary day of s. The epoch has
// DTAI 0 and only appears in the result when it is extraordinary itself.
func Accumulate(s Lengths, epoch calendar.Day) map[calendar.Day]int {
	days := s.Days()
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	out := make(map[calendar.Day]int, len(days))

	split := sort.Search(len(days), func(i int) bool { return days[i] > epoch })

	total := 0
	for _, d := range days[split:] {
		total += s.Length(d) - normal
		out[d] = total
	}

	// the first backward day looks at the smallest day at or above the epoch
	nextLen, nextDTAI := normal, 0
	if split > 0 && days[split-1] == epoch {
		out[epoch] = 0
		nextLen = s.Length(epoch)
		split--
	} else if split < len(days) {
		nextLen, nextDTAI = s.Length(days[split]), out[days[split]]
	}
	for i := split - 1; i >= 0; i-- {
		d := days[i]
		out[d] = nextDTAI - nextLen + normal
		nextLen, nextDTAI = s.Length(d), out[d]
	}
	return out
}

// Row is one line of the extraordinary-day table.
type Row struct {
	Day    calendar.Day
	Length int
	DTAI   int
}

// Rows joins s and dtai into table rows in day order.
func Rows(s Lengths, dtai map[calendar.Day]int) []Row {
	days := s.Days()
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	out := make([]Row, 0, len(days))
	for _, d := range days {
		out = append(out, Row{Day: d, Length: s.Length(d), DTAI: dtai[d]})
	}
	return out
}

// StepError reports two consecutive rows whose DTAI differ by other than 1.
type StepError struct {
	Prev, Row Row
}

func (e *StepError) Error() string {
	return fmt.Sprintf("DTAI changes from %d on %s to %d on %s", e.Prev.DTAI, e.Prev.Day, e.Row.DTAI, e.Row.Day)
}

// CheckSteps returns one StepError for every pair of consecutive rows whose
// DTAI values are not one apart.
func CheckSteps(rows []Row) []*StepError {
	var errs []*StepError
	for i := 1; i < len(rows); i++ {
		diff := rows[i].DTAI - rows[i-1].DTAI
		if diff != 1 && diff != -1 {
			errs = append(errs, &StepError{Prev: rows[i-1], Row: rows[i]})
		}
	}
	return errs
}
