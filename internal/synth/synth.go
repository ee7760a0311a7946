// Package synth decides which days carry a leap second.
//
// The scanner walks a ΔTAI curve day by day keeping an integer target, the
// leap value. While the curve stays within 0.1 s of the target nothing
// happens. When it drifts out, the scanner follows the drift until it
// leaves the band between 0.1 s and 0.9 s, then inserts one extraordinary
// day somewhere in the drift interval, choosing the most preferred day by
// priority and breaking ties by closeness to the half-second point.
//
// Thread-safety: a scan owns all of its state; concurrent calls to
// Synthesize on independent inputs are safe.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

const (
	tolerance = 0.1
	bandEdge  = 0.9
)

var (
	// ErrEmptyTimeline is returned when the curve has no data at all.
	ErrEmptyTimeline = errors.New("timeline has no data")

	// ErrInvalidRange is returned when start is not before end.
	ErrInvalidRange = errors.New("scan start must precede end")
)

// Valuer yields ΔTAI for a day.
type Valuer interface {
	DeltaTAI(day calendar.Day) (float64, error)
}

// Prioritizer ranks days; lower is more preferred.
type Prioritizer interface {
	Get(day calendar.Day) int
}

// Option configures a scan.
type Option func(*scanner)

// WithMaxSteps overrides DefaultMaxSteps. Zero disables the limit.
func WithMaxSteps(n int) Option {
	return func(s *scanner) {
		s.quota.limit = n
	}
}

// WithSchedule makes the scan add to an existing schedule instead of a new
// one.
func WithSchedule(sched *Schedule) Option {
	return func(s *scanner) {
		s.sched = sched
	}
}

// scanner holds the state of one scan.
type scanner struct {
	v     Valuer
	prio  Prioritizer
	sched *Schedule
	quota quota

	leap float64
}

// Synthesize scans [start, end) and returns the extraordinary days needed to
// keep the leap value within tolerance of the curve.
func Synthesize(ctx context.Context, v Valuer, prio Prioritizer, start, end calendar.Day, opts ...Option) (*Schedule, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidRange, start, end)
	}
	s := &scanner{
		v:     v,
		prio:  prio,
		quota: quota{limit: DefaultMaxSteps},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sched == nil {
		s.sched = NewSchedule()
	}

	first, err := s.value(start)
	if err != nil {
		return nil, err
	}
	s.leap = first

	slog.Debug("scan starting", "start", start.String(), "end", end.String(), "leap", s.leap)

	for pos := start; pos < end; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.quota.check(); err != nil {
			return nil, err
		}
		pos, err = s.step(pos, end)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("scan finished", "extraordinary_days", s.sched.Len(), "steps", s.quota.current)
	return s.sched, nil
}

func (s *scanner) value(d calendar.Day) (float64, error) {
	v, err := s.v.DeltaTAI(d)
	if errors.Is(err, timeline.ErrEmpty) {
		return 0, ErrEmptyTimeline
	}
	if err != nil {
		return 0, fmt.Errorf("value at %s: %w", d, err)
	}
	return v, nil
}

func (s *scanner) near(v float64) bool {
	return math.Abs(s.leap-v) <= tolerance
}

// inBand reports whether v has drifted away from leap by between 0.1 and
// 0.9 seconds in the direction of sign.
func (s *scanner) inBand(v float64, sign int) bool {
	if sign > 0 {
		return v >= s.leap+tolerance && v <= s.leap+bandEdge
	}
	return v >= s.leap-bandEdge && v <= s.leap-tolerance
}

// step processes the stretch starting at base and returns the next position.
func (s *scanner) step(base, limit calendar.Day) (calendar.Day, error) {
	at, err := s.value(base)
	if err != nil {
		return 0, err
	}

	if s.near(at) {
		cur := base + 1
		for cur <= limit {
			v, err := s.value(cur)
			if err != nil {
				return 0, err
			}
			if !s.near(v) {
				break
			}
			cur++
		}
		return cur, nil
	}

	anchor, anchorValue := base, at
	var sign int
	switch {
	case anchorValue-s.leap > 0:
		sign = 1
	case anchorValue-s.leap < 0:
		sign = -1
	default:
		return base + 1, nil
	}

	cur := anchor
	for cur <= limit {
		v, err := s.value(cur)
		if err != nil {
			return 0, err
		}
		if !s.inBand(v, sign) {
			break
		}
		cur++
	}
	if cur >= limit {
		return cur, nil
	}
	cv, err := s.value(cur)
	if err != nil {
		return 0, err
	}
	if s.near(cv) {
		// the drift reverted before a correction was due
		return cur, nil
	}

	best := Decision{Anchor: anchor, Cursor: cur, Day: anchor, Priority: s.prio.Get(anchor), Sign: sign}
	for d := anchor + 1; d < cur; d++ {
		v, err := s.value(d)
		if err != nil {
			return 0, err
		}
		p := s.prio.Get(d)
		score := fold(float64(sign) * (v - anchorValue))
		if p < best.Priority || (p == best.Priority && score >= best.Score) {
			best.Day, best.Priority, best.Score = d, p, score
		}
	}

	if err := s.sched.Set(best.Day, NormalLength+sign); err != nil {
		return 0, err
	}
	s.sched.decisions = append(s.sched.decisions, best)
	s.leap += float64(sign)

	slog.Debug("leap inserted",
		"day", best.Day.String(),
		"sign", sign,
		"priority", best.Priority,
		"score", best.Score,
		"anchor", anchor.String(),
		"cursor", cur.String(),
		"leap", s.leap)
	return best.Day + 1, nil
}

// fold maps a drift in [0, 1] onto its closeness to the half-second point.
func fold(diff float64) float64 {
	if diff > 0.5 {
		return 1 - diff
	}
	return diff
}
