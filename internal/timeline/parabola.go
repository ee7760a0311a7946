package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/leapcal/internal/calendar"
)

// ParabolaFit describes the quadratic fitted by FitParabola. A, B and C are
// the coefficients of a·t² + b·t + c with t mapped from [start, end] onto
// [-1, 1].
type ParabolaFit struct {
	A, B, C float64
	Max     float64
	Min     float64
	Height  float64
	Stretch float64
	// Offset is the distance from the unscaled curve to the anchor value.
	Offset float64
}

// FitParabola fits a least-squares quadratic to the merged values over
// [start, end], adds the seasonal term, and rescales the curve about its
// height so that it passes through (anchor, anchorValue).
func (t *Timeline) FitParabola(start, end, anchor calendar.Day, anchorValue float64) (*Series, ParabolaFit, error) {
	var fit ParabolaFit
	if end-start < 2 {
		return nil, fit, fmt.Errorf("parabola needs at least 3 days, got %s..%s", start, end)
	}
	if anchor < start || anchor > end {
		return nil, fit, fmt.Errorf("parabola anchor %s outside %s..%s", anchor, start, end)
	}

	span := float64(end - start)
	norm := func(d calendar.Day) float64 {
		return 2*float64(d-start)/span - 1
	}

	var s [5]float64
	var r [3]float64
	for d := start; d <= end; d++ {
		y, err := t.Value(d)
		if err != nil {
			return nil, fit, fmt.Errorf("parabola input: %w", err)
		}
		x := norm(d)
		p := 1.0
		for k := 0; k < 5; k++ {
			s[k] += p
			if k < 3 {
				r[k] += y * p
			}
			p *= x
		}
	}

	coef, err := solve3([3][3]float64{
		{s[0], s[1], s[2]},
		{s[1], s[2], s[3]},
		{s[2], s[3], s[4]},
	}, r)
	if err != nil {
		return nil, fit, err
	}
	fit.C, fit.B, fit.A = coef[0], coef[1], coef[2]

	series := &Series{Start: start, Values: make([]float64, end-start+1)}
	fit.Max, fit.Min = math.Inf(-1), math.Inf(1)
	for i := range series.Values {
		d := start + calendar.Day(i)
		x := norm(d)
		y := fit.A*x*x + fit.B*x + fit.C + UT2Seasonal(d)
		series.Values[i] = y
		fit.Max = math.Max(fit.Max, y)
		fit.Min = math.Min(fit.Min, y)
	}

	fit.Height = fit.Max - fit.Min
	atAnchor := series.Values[anchor-start]
	fit.Offset = anchorValue - atAnchor
	if atAnchor == fit.Height {
		return nil, fit, errors.New("parabola cannot be stretched: anchor value equals curve height")
	}
	fit.Stretch = (anchorValue - fit.Height) / (atAnchor - fit.Height)
	for i, y := range series.Values {
		series.Values[i] = fit.Stretch*(y-fit.Height) + fit.Height
	}

	slog.Debug("parabola fitted",
		"a", fit.A, "b", fit.B, "c", fit.C,
		"height", fit.Height, "stretch", fit.Stretch, "offset", fit.Offset)
	return series, fit, nil
}

// solve3 solves m·x = r by Gaussian elimination with partial pivoting.
func solve3(m [3][3]float64, r [3]float64) ([3]float64, error) {
	var x [3]float64
	for col := 0; col < 3; col++ {
		pivot := col
		for row := col + 1; row < 3; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if m[pivot][col] == 0 {
			return x, errors.New("singular normal equations")
		}
		m[col], m[pivot] = m[pivot], m[col]
		r[col], r[pivot] = r[pivot], r[col]
		for row := col + 1; row < 3; row++ {
			f := m[row][col] / m[col][col]
			for k := col; k < 3; k++ {
				m[row][k] -= f * m[col][k]
			}
			r[row] -= f * r[col]
		}
	}
	for row := 2; row >= 0; row-- {
		sum := r[row]
		for k := row + 1; k < 3; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}
