// Package testutil holds helpers shared by package tests.
package testutil

import (
	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

// Ramp returns one sample per day of [from, to] rising linearly from start
// by slope seconds per day.
func Ramp(from, to calendar.Day, start, slope float64) []timeline.Sample {
	out := make([]timeline.Sample, 0, int(to-from)+1)
	for d := from; d <= to; d++ {
		out = append(out, timeline.Sample{Day: d, Value: start + slope*float64(d-from)})
	}
	return out
}

// Points returns samples at the given (day, value) knots. Days between knots
// are left to the timeline's interpolation.
func Points(knots map[calendar.Day]float64) []timeline.Sample {
	out := make([]timeline.Sample, 0, len(knots))
	for d, v := range knots {
		out = append(out, timeline.Sample{Day: d, Value: v})
	}
	return out
}

// LinearTimeline builds a Historical timeline over [from, to] whose ΔTAI is
// zero on from and grows by slope seconds per day. Bounds are the data
// extent, so nothing is clamped inside it.
func LinearTimeline(from, to calendar.Day, slope float64) *timeline.Timeline {
	tl := timeline.New(timeline.WithBounds(from, to))
	tl.Load(timeline.Historical, []timeline.Sample{
		{Day: from, Value: 0},
		{Day: to, Value: slope * float64(to-from)},
	})
	return tl
}
