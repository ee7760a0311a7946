package synth

import (
	"fmt"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

// Day lengths in SI seconds.
const (
	NormalLength = 86400
	LongLength   = 86401
	ShortLength  = 86399
)

// Decision records how one extraordinary day was chosen.
type Decision struct {
	Anchor   calendar.Day // first day the drift left tolerance
	Cursor   calendar.Day // first day past the drift band
	Day      calendar.Day // chosen day
	Priority int
	Sign     int
	Score    float64 // folded score of the chosen day
}

// Schedule is the set of extraordinary days. Every day that is not stored
// is 86400 seconds long.
type Schedule struct {
	lengths   map[calendar.Day]int
	decisions []Decision
}

// NewSchedule returns an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{lengths: make(map[calendar.Day]int)}
}

// Set marks day as extraordinary. Only 86399 and 86401 are accepted.
func (s *Schedule) Set(day calendar.Day, length int) error {
	if length != LongLength && length != ShortLength {
		return fmt.Errorf("day %s: invalid length %d", day, length)
	}
	s.lengths[day] = length
	return nil
}

// Delete makes day an ordinary day again.
func (s *Schedule) Delete(day calendar.Day) {
	delete(s.lengths, day)
}

// Length returns the length of day in seconds.
func (s *Schedule) Length(day calendar.Day) int {
	if l, ok := s.lengths[day]; ok {
		return l
	}
	return NormalLength
}

// Days returns the extraordinary days in ascending order.
func (s *Schedule) Days() []calendar.Day {
	out := make([]calendar.Day, 0, len(s.lengths))
	for d := range s.lengths {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of extraordinary days.
func (s *Schedule) Len() int {
	return len(s.lengths)
}

// Decisions returns the scan decisions in the order they were made. Days
// added or removed by an override have no decision.
func (s *Schedule) Decisions() []Decision {
	out := make([]Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// Next returns the first extraordinary day on or after from, with its sign.
func (s *Schedule) Next(from calendar.Day) (calendar.Day, int, bool) {
	days := s.Days()
	i := sort.Search(len(days), func(i int) bool { return days[i] >= from })
	if i == len(days) {
		return 0, 0, false
	}
	return days[i], s.lengths[days[i]] - NormalLength, true
}
