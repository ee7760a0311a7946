// Package timeline merges ΔT samples from several sources into one
// day-indexed series and answers value queries for any day in range.
//
// # Merge rules
//
// Sources are loaded in precedence order. Each Load overwrites the days it
// names and fills days that were empty; the last writer of each day is kept
// for attribution. The interpolation view is rebuilt after every structural
// change, lazily on the next query.
//
// # Values
//
// Value returns the stored sample or a piecewise-linear interpolation
// between the nearest stored neighbours. DeltaTAI subtracts the value at the
// DTAI base day and applies the long-range clamps described on its doc.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

var (
	// ErrEmpty is returned when a query is made before any sample is loaded.
	ErrEmpty = errors.New("timeline has no samples")

	// ErrOutOfRange is returned when a day has no stored neighbour on one side.
	ErrOutOfRange = errors.New("day outside known range")
)

// DefaultLower and DefaultUpper bound the interval over which DeltaTAI
// follows the data. Outside them the value is clamped or extrapolated.
var (
	DefaultLower = calendar.FromYMD(-2000, 1, 1)
	DefaultUpper = calendar.FromYMD(2500, 1, 1)
)

// Sample is one ΔT value for one day. Qualifier carries source detail that
// is not part of the Source enumeration, such as the IERS "I"/"P" flag.
type Sample struct {
	Day       calendar.Day
	Value     float64
	Qualifier string
}

type attribution struct {
	source    Source
	qualifier string
}

// Timeline is the merged ΔT series. It is not safe for concurrent use.
type Timeline struct {
	lower, upper calendar.Day

	values map[calendar.Day]float64
	attrib map[calendar.Day]attribution
	layers map[Source]map[calendar.Day]float64
	order  []Source

	days  []calendar.Day // sorted keys of values; nil when dirty
	dirty bool

	baseDay   calendar.Day
	baseValue float64

	minYear, maxYear float64
	haveYears        bool
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithBounds overrides the clamp and extrapolation bounds used by DeltaTAI.
func WithBounds(lower, upper calendar.Day) Option {
	return func(t *Timeline) {
		t.lower, t.upper = lower, upper
	}
}

// New returns an empty timeline.
func New(opts ...Option) *Timeline {
	t := &Timeline{
		lower:  DefaultLower,
		upper:  DefaultUpper,
		values: make(map[calendar.Day]float64),
		attrib: make(map[calendar.Day]attribution),
		layers: make(map[Source]map[calendar.Day]float64),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load merges samples from src, overwriting any day already present.
func (t *Timeline) Load(src Source, samples []Sample) {
	replaced := 0
	for _, s := range samples {
		if _, ok := t.values[s.Day]; ok {
			replaced++
		}
		t.values[s.Day] = s.Value
		t.attrib[s.Day] = attribution{source: src, qualifier: normalizeQualifier(s.Qualifier)}
	}
	t.Record(src, samples)
	t.dirty = true
	slog.Debug("timeline load", "source", src.String(), "samples", len(samples), "replaced", replaced)
}

// Record stores samples in the per-source layer without merging them into
// the timeline. Used for derived series that are exported but not scanned.
func (t *Timeline) Record(src Source, samples []Sample) {
	layer, ok := t.layers[src]
	if !ok {
		layer = make(map[calendar.Day]float64, len(samples))
		t.layers[src] = layer
		t.order = append(t.order, src)
	}
	for _, s := range samples {
		layer[s.Day] = s.Value
	}
}

// NoteYears widens the fractional-year extent covered by the inputs. The
// priority table is built over this extent.
func (t *Timeline) NoteYears(minYear, maxYear float64) {
	if !t.haveYears || minYear < t.minYear {
		t.minYear = minYear
	}
	if !t.haveYears || maxYear > t.maxYear {
		t.maxYear = maxYear
	}
	t.haveYears = true
}

// YearRange returns the integer year range for the priority table: the
// earliest fractional year truncated, the latest rounded half up.
func (t *Timeline) YearRange() (int, int) {
	if !t.haveYears {
		start, end := t.Range()
		return start.Year(), end.Year()
	}
	return int(t.minYear), int(t.maxYear + 0.5)
}

func (t *Timeline) rebuild() {
	if !t.dirty && t.days != nil {
		return
	}
	days := make([]calendar.Day, 0, len(t.values))
	for d := range t.values {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	t.days = days
	t.dirty = false
}

// Len returns the number of days with a stored sample.
func (t *Timeline) Len() int {
	return len(t.values)
}

// Range returns the first and last day with a stored sample. Both are zero
// for an empty timeline.
func (t *Timeline) Range() (calendar.Day, calendar.Day) {
	t.rebuild()
	if len(t.days) == 0 {
		return 0, 0
	}
	return t.days[0], t.days[len(t.days)-1]
}

// Has reports whether day has a stored sample.
func (t *Timeline) Has(day calendar.Day) bool {
	_, ok := t.values[day]
	return ok
}

// Value returns ΔT for day, interpolating linearly between stored samples.
func (t *Timeline) Value(day calendar.Day) (float64, error) {
	if v, ok := t.values[day]; ok {
		return v, nil
	}
	t.rebuild()
	if len(t.days) == 0 {
		return 0, ErrEmpty
	}
	i := sort.Search(len(t.days), func(i int) bool { return t.days[i] > day })
	if i == 0 || i == len(t.days) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, day)
	}
	lo, hi := t.days[i-1], t.days[i]
	return interpolate(lo, t.values[lo], hi, t.values[hi], day), nil
}

func interpolate(x0 calendar.Day, y0 float64, x1 calendar.Day, y1 float64, x calendar.Day) float64 {
	frac := float64(x-x0) / float64(x1-x0)
	return y0 + frac*(y1-y0)
}

// Rebase shifts every sample, including the per-source layers, so that
// Value(at) equals target, and makes at the DTAI base day.
func (t *Timeline) Rebase(at calendar.Day, target float64) error {
	v, err := t.Value(at)
	if err != nil {
		return fmt.Errorf("rebase at %s: %w", at, err)
	}
	shift := target - v
	for d := range t.values {
		t.values[d] += shift
	}
	for _, layer := range t.layers {
		for d := range layer {
			layer[d] += shift
		}
	}
	t.baseDay = at
	t.baseValue = target
	slog.Debug("timeline rebased", "day", at.String(), "shift", shift)
	return nil
}

// BaseValue returns ΔT at the DTAI base day, or 0 before Rebase.
func (t *Timeline) BaseValue() float64 {
	return t.baseValue
}

// BaseDay returns the day passed to the last Rebase.
func (t *Timeline) BaseDay() calendar.Day {
	return t.baseDay
}

// DeltaTAI returns ΔT(day) minus the base value. Days before the lower
// bound take the value at the bound. Days after the upper bound continue the
// last daily change at the bound linearly.
func (t *Timeline) DeltaTAI(day calendar.Day) (float64, error) {
	switch {
	case day < t.lower:
		return t.DeltaTAI(t.lower)
	case day > t.upper:
		at, err := t.DeltaTAI(t.upper)
		if err != nil {
			return 0, err
		}
		prev, err := t.DeltaTAI(t.upper - 1)
		if err != nil {
			return 0, err
		}
		return at + (at-prev)*float64(day-t.upper), nil
	}
	v, err := t.Value(day)
	if err != nil {
		return 0, err
	}
	return v - t.baseValue, nil
}

// Source returns the last source that wrote day and its qualifier.
func (t *Timeline) Source(day calendar.Day) (Source, string, bool) {
	a, ok := t.attrib[day]
	return a.source, a.qualifier, ok
}

// SourceLabel returns the attribution label of day, or "" if no source wrote it.
func (t *Timeline) SourceLabel(day calendar.Day) string {
	a, ok := t.attrib[day]
	if !ok {
		return ""
	}
	return a.source.Label(a.qualifier)
}

// Layer returns the samples recorded for src, keyed by day. The map is
// shared with the timeline and must not be modified.
func (t *Timeline) Layer(src Source) map[calendar.Day]float64 {
	return t.layers[src]
}

// Sources returns the sources in the order their layers were first recorded.
func (t *Timeline) Sources() []Source {
	return append([]Source(nil), t.order...)
}

// Days returns the sorted days that have a stored sample.
func (t *Timeline) Days() []calendar.Day {
	t.rebuild()
	return append([]calendar.Day(nil), t.days...)
}

// Samples returns every stored sample in day order with its attribution.
func (t *Timeline) Samples() []Attributed {
	t.rebuild()
	out := make([]Attributed, 0, len(t.days))
	for _, d := range t.days {
		a := t.attrib[d]
		out = append(out, Attributed{
			Sample: Sample{Day: d, Value: t.values[d], Qualifier: a.qualifier},
			Source: a.source,
		})
	}
	return out
}

// Attributed is a stored sample together with the source that wrote it.
type Attributed struct {
	Sample
	Source Source
}
