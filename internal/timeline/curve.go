package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

// Curve is a ΔT series that can be evaluated on any day it covers.
type Curve interface {
	At(day calendar.Day) (float64, error)
}

// Series is a dense daily curve starting at Start.
type Series struct {
	Start  calendar.Day
	Values []float64
}

// At returns the value for day.
func (s *Series) At(day calendar.Day) (float64, error) {
	i := int(day - s.Start)
	if i < 0 || i >= len(s.Values) {
		return 0, fmt.Errorf("%w: %s not in series", ErrOutOfRange, day)
	}
	return s.Values[i], nil
}

// End returns the last day of the series.
func (s *Series) End() calendar.Day {
	return s.Start + calendar.Day(len(s.Values)) - 1
}

// Samples converts the series into samples, one per day.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.Values))
	for i, v := range s.Values {
		out[i] = Sample{Day: s.Start + calendar.Day(i), Value: v}
	}
	return out
}

// layerCurve interpolates linearly inside a single source layer.
type layerCurve struct {
	days   []calendar.Day
	values map[calendar.Day]float64
}

// LayerCurve returns a Curve over a snapshot of the src layer. Days between
// two layer samples are interpolated linearly; days outside the layer fail.
func (t *Timeline) LayerCurve(src Source) (Curve, error) {
	layer := t.layers[src]
	if len(layer) == 0 {
		return nil, fmt.Errorf("layer %q: %w", src, ErrEmpty)
	}
	c := &layerCurve{values: make(map[calendar.Day]float64, len(layer))}
	for d, v := range layer {
		c.days = append(c.days, d)
		c.values[d] = v
	}
	sort.Slice(c.days, func(i, j int) bool { return c.days[i] < c.days[j] })
	return c, nil
}

func (c *layerCurve) At(day calendar.Day) (float64, error) {
	if v, ok := c.values[day]; ok {
		return v, nil
	}
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i] > day })
	if i == 0 || i == len(c.days) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, day)
	}
	lo, hi := c.days[i-1], c.days[i]
	return interpolate(lo, c.values[lo], hi, c.values[hi], day), nil
}

// UT2Seasonal returns the conventional seasonal variation UT2-UT1 in
// seconds for day, as used by the IERS Bulletin A prediction formula.
func UT2Seasonal(day calendar.Day) float64 {
	t := 2000.0 + (float64(day.MJD())-51544.03)/365.2422
	return 0.022*math.Sin(2*math.Pi*t) -
		0.012*math.Cos(2*math.Pi*t) -
		0.006*math.Sin(4*math.Pi*t) +
		0.007*math.Cos(4*math.Pi*t)
}
