package timeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/roach88/leapcal/internal/calendar"
)

// FadeParams configures the hand-over from the short-horizon IERS
// projection to a long-horizon curve.
type FadeParams struct {
	// Last is the last day with a trusted measurement; the fade starts here.
	Last calendar.Day
	// Length is the number of days after Last at which the long-horizon
	// curve reaches full weight.
	Length int
	// End is the last day written.
	End calendar.Day
	// Long is the long-horizon curve.
	Long Curve
	// LongSource attributes days written purely from Long.
	LongSource Source
}

// Fade rewrites every day in [Last, End] as a linear blend of the IERS
// projection layer and p.Long. The weight of Long is (d-Last)/Length capped
// at 1. Days where the weight is below 1 and the projection has a value are
// blended; every other day takes Long as is.
func (t *Timeline) Fade(p FadeParams) error {
	if p.End < p.Last {
		return fmt.Errorf("fade end %s before start %s", p.End, p.Last)
	}
	short := t.layers[IERSProjection]

	var blended, long []Sample
	for d := p.Last; d <= p.End; d++ {
		frac := 1.0
		if p.Length > 0 {
			frac = math.Min(1, float64(d-p.Last)/float64(p.Length))
		}
		l, err := p.Long.At(d)
		if err != nil {
			return fmt.Errorf("fade long-horizon value: %w", err)
		}
		v := l
		if s, ok := short[d]; ok && frac < 1 {
			v = frac*l + (1-frac)*s
		}
		if frac == 1 {
			long = append(long, Sample{Day: d, Value: v})
		} else {
			blended = append(blended, Sample{Day: d, Value: v})
		}
	}

	t.Load(Blend, blended)
	t.Load(p.LongSource, long)
	slog.Debug("fade applied",
		"from", p.Last.String(), "to", p.End.String(),
		"length", p.Length, "blended", len(blended), "long", len(long))
	return nil
}

// Change is a day-to-day change of DeltaTAI.
type Change struct {
	Day   calendar.Day
	Delta float64
}

// MaxChanges returns the n largest absolute day-to-day changes of DeltaTAI
// over (from, to], largest first. Used to spot discontinuities between
// merged sources.
func (t *Timeline) MaxChanges(from, to calendar.Day, n int) ([]Change, error) {
	if n <= 0 || to <= from {
		return []Change{}, nil
	}
	prev, err := t.DeltaTAI(from)
	if err != nil {
		return nil, err
	}
	top := make([]Change, 0, n+1)
	for d := from + 1; d <= to; d++ {
		v, err := t.DeltaTAI(d)
		if err != nil {
			return nil, err
		}
		c := Change{Day: d, Delta: v - prev}
		prev = v
		if len(top) == n && math.Abs(c.Delta) <= math.Abs(top[n-1].Delta) {
			continue
		}
		i := sort.Search(len(top), func(i int) bool {
			return math.Abs(top[i].Delta) < math.Abs(c.Delta)
		})
		top = append(top, Change{})
		copy(top[i+1:], top[i:])
		top[i] = c
		if len(top) > n {
			top = top[:n]
		}
	}
	return top, nil
}
