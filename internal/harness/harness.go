package harness

import (
	"context"
	"fmt"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/priority"
	"github.com/roach88/leapcal/internal/synth"
	"github.com/roach88/leapcal/internal/timeline"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the timeline from the scenario points
//  2. Rank days over the timeline's years
//  3. Scan the range and apply the overrides
//  4. Accumulate DTAI
//  5. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed; failed
// assertions are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	tl, err := buildTimeline(scenario.Timeline)
	if err != nil {
		return nil, err
	}

	start, end := tl.Range()
	if scenario.Range.Start != "" {
		start, _ = calendar.ParseISO(scenario.Range.Start)
	}
	if scenario.Range.End != "" {
		end, _ = calendar.ParseISO(scenario.Range.End)
	}

	minYear, maxYear := tl.YearRange()
	prio := priority.Build(minYear, maxYear)

	sched, err := synth.Synthesize(ctx, tl, prio, start, end)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	for _, o := range scenario.Overrides {
		w := synth.IERSWindow
		if o == OverrideFinch {
			w = synth.FinchWindow
		}
		synth.ApplyOverride(sched, prio, w.Clip(start, end))
	}

	result := NewResult()
	result.Rows = dtai.Rows(sched, dtai.Accumulate(sched, calendar.Epoch))
	result.Decisions = sched.Decisions()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, prio) {
		result.AddError(errMsg)
	}
	return result, nil
}

func buildTimeline(spec TimelineSpec) (*timeline.Timeline, error) {
	samples := make([]timeline.Sample, 0, len(spec.Points))
	for i, p := range spec.Points {
		d, err := calendar.ParseISO(p.Day)
		if err != nil {
			return nil, fmt.Errorf("timeline.points[%d]: %w", i, err)
		}
		samples = append(samples, timeline.Sample{Day: d, Value: p.Value})
	}

	probe := timeline.New()
	probe.Load(timeline.Historical, samples)
	lower, upper := probe.Range()
	if spec.Lower != "" {
		lower, _ = calendar.ParseISO(spec.Lower)
	}
	if spec.Upper != "" {
		upper, _ = calendar.ParseISO(spec.Upper)
	}

	tl := timeline.New(timeline.WithBounds(lower, upper))
	tl.Load(timeline.Historical, samples)
	return tl, nil
}
