package synth

import (
	"log/slog"

	"github.com/roach88/leapcal/internal/calendar"
)

// Window is the half-open day range [From, To).
type Window struct {
	Name     string
	From, To calendar.Day
}

// Contains reports whether d lies in the window.
func (w Window) Contains(d calendar.Day) bool {
	return d >= w.From && d < w.To
}

// Clip narrows w to the scan range [start, end). The result is empty when
// the two do not overlap.
func (w Window) Clip(start, end calendar.Day) Window {
	w.From = max(w.From, start)
	w.To = min(w.To, end)
	return w
}

var (
	// FinchWindow covers Tony Finch's reconstruction of pre-1972 leap
	// seconds.
	FinchWindow = Window{
		Name: "finch",
		From: calendar.FromYMD(1958, 1, 1),
		To:   calendar.FromYMD(1971, 12, 31),
	}

	// IERSWindow covers the leap seconds announced by the IERS.
	IERSWindow = Window{
		Name: "iers",
		From: calendar.FromYMD(1972, 1, 1),
		To:   calendar.FromYMD(2019, 12, 31),
	}
)

// ApplyOverride replaces the synthesized days inside w with the days whose
// priority is IERS or Finch. Every day put in is a positive leap second.
func ApplyOverride(s *Schedule, prio Prioritizer, w Window) {
	removed := 0
	for _, d := range s.Days() {
		if w.Contains(d) {
			s.Delete(d)
			removed++
		}
	}
	added := 0
	for d := w.From; d < w.To; d++ {
		if prio.Get(d) < 3 {
			s.lengths[d] = LongLength
			added++
		}
	}
	slog.Debug("override applied", "window", w.Name, "removed", removed, "added", added)
}
