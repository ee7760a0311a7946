// Package pipeline builds an extraordinary-day table from the configured
// ΔT sources.
//
// A build reads every source, merges them into one timeline in precedence
// order, hands the short-horizon IERS projection over to a long-horizon
// curve, scans the result for leap seconds, replaces the scanned days with
// the official ones where configured, accumulates DTAI and encodes the
// table. Runs can be recorded in a store, measured and cross-checked.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/metrics"
	"github.com/roach88/leapcal/internal/priority"
	"github.com/roach88/leapcal/internal/sources"
	"github.com/roach88/leapcal/internal/store"
	"github.com/roach88/leapcal/internal/synth"
	"github.com/roach88/leapcal/internal/table"
	"github.com/roach88/leapcal/internal/taicheck"
	"github.com/roach88/leapcal/internal/timeline"
)

// DTAIBase is the day whose ΔT is pinned to TT-TAI, so that ΔTAI is zero
// there.
var DTAIBase = calendar.FromYMD(1958, 1, 1)

// maxChanges is the number of largest day-to-day jumps kept as diagnostics.
const maxChanges = 5

// Result is the outcome of a build.
type Result struct {
	Timeline *timeline.Timeline
	Priority *priority.Table
	Schedule *synth.Schedule
	DTAI     map[calendar.Day]int
	Rows     []dtai.Row
	Table    *table.Table
	// Encoded is the table file, CHECKSUM line included.
	Encoded  []byte
	Checksum string
	// RunID is set when the run was recorded in a store.
	RunID string
	// Findings are what the table validator reports on Encoded.
	Findings    []table.ValidationError
	CrossCheck  *taicheck.Report
	Diagnostics Diagnostics
}

// Diagnostics describe how the timeline was put together.
type Diagnostics struct {
	// Skipped counts malformed rows per source file.
	Skipped map[string]int
	// LastMeasured is the last IERS UT1-UTC row, the start of the fade.
	LastMeasured calendar.Day
	FadeLength   int
	FadeEnd      calendar.Day
	Parabola     *timeline.ParabolaFit
	// MaxChanges are the largest day-to-day ΔTAI jumps in the scan range.
	MaxChanges []timeline.Change
	// Steps lists DTAI steps other than one second. A well-formed schedule
	// has none.
	Steps []*dtai.StepError
}

// Option configures a build.
type Option func(*builder)

// WithClock replaces time.Now, which decides run timestamps and the "today"
// the encoded table is validated against.
func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		b.now = now
	}
}

// WithMetrics collects the run's metrics into m instead of a private
// registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *builder) {
		b.metrics = m
	}
}

// WithMaxSteps bounds the leap second scan. See synth.WithMaxSteps.
func WithMaxSteps(n int) Option {
	return func(b *builder) {
		b.synthOpts = append(b.synthOpts, synth.WithMaxSteps(n))
	}
}

type builder struct {
	cfg       *config.Config
	now       func() time.Time
	metrics   *metrics.Metrics
	synthOpts []synth.Option
}

// Run performs a build.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	b := &builder{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	began := b.now()

	in, err := readInputs(ctx, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	res := &Result{Diagnostics: Diagnostics{Skipped: make(map[string]int)}}
	if res.Timeline, err = b.merge(in, &res.Diagnostics); err != nil {
		return nil, err
	}
	tl := res.Timeline

	minYear, maxYear := tl.YearRange()
	res.Priority = priority.Build(minYear, maxYear)

	start, end, err := b.scanRange(tl)
	if err != nil {
		return nil, err
	}
	res.Schedule, err = synth.Synthesize(ctx, tl, res.Priority, start, end, b.synthOpts...)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if cfg.Overrides.Finch {
		synth.ApplyOverride(res.Schedule, res.Priority, synth.FinchWindow.Clip(start, end))
	}
	if cfg.Overrides.IERS {
		synth.ApplyOverride(res.Schedule, res.Priority, synth.IERSWindow.Clip(start, end))
	}

	res.DTAI = dtai.Accumulate(res.Schedule, calendar.Epoch)
	res.Rows = dtai.Rows(res.Schedule, res.DTAI)
	res.Diagnostics.Steps = dtai.CheckSteps(res.Rows)
	for _, s := range res.Diagnostics.Steps {
		slog.Warn("irregular DTAI step", "err", s)
	}
	if res.Diagnostics.MaxChanges, err = tl.MaxChanges(start, end, maxChanges); err != nil {
		return nil, fmt.Errorf("max changes: %w", err)
	}

	res.Table = &table.Table{
		Comments:   cfg.Comments,
		Start:      start,
		End:        end,
		Expiration: b.expiration(in),
		Rows:       res.Rows,
	}
	var buf bytes.Buffer
	if res.Checksum, err = table.Encode(&buf, res.Table); err != nil {
		return nil, err
	}
	res.Table.Checksum = res.Checksum
	res.Encoded = buf.Bytes()

	today := calendar.FromTime(b.now())
	if _, res.Findings, err = table.Check(bytes.NewReader(res.Encoded), today); err != nil {
		return nil, fmt.Errorf("check encoded table: %w", err)
	}

	b.metrics.Table(res.Rows, int(res.Table.Expiration))
	b.metrics.Validation(res.Findings)

	if cfg.CrossCheck {
		if err := b.crossCheck(res); err != nil {
			return nil, err
		}
	}
	if cfg.Store != "" {
		if err := b.record(ctx, res, began); err != nil {
			return nil, err
		}
	}

	b.metrics.BuildDuration(b.now().Sub(began))
	if cfg.Metrics != "" {
		if err := b.metrics.WriteTextfile(cfg.Metrics); err != nil {
			return nil, err
		}
	}

	slog.Info("table built",
		"start", start.String(),
		"end", end.String(),
		"expiration", res.Table.Expiration.String(),
		"rows", len(res.Rows),
		"checksum", res.Checksum)
	return res, nil
}

// merge loads the sources in precedence order and applies the fade.
func (b *builder) merge(in *inputs, diag *Diagnostics) (*timeline.Timeline, error) {
	lower, upper, err := b.cfg.BoundDays()
	if err != nil {
		return nil, err
	}
	tl := timeline.New(timeline.WithBounds(lower, upper))

	b.load(tl, "historical", in.historical, diag)
	// ΔT is pinned on the historical reconstruction alone; later sources are
	// already on the TT-TAI scale.
	if err := tl.Rebase(DTAIBase, sources.TTMinusTAI); err != nil {
		return nil, err
	}
	b.load(tl, "usno-predictions", in.predictions, diag)
	b.load(tl, "usno-records", in.records, diag)
	if in.bulletinA != nil {
		b.load(tl, "bulletin-a", in.bulletinA.Project(b.cfg.ProjectionDays), diag)
	}
	if in.finals != nil {
		b.load(tl, "iers-finals", &in.finals.Set, diag)
	}

	if err := b.fade(tl, in, diag); err != nil {
		return nil, err
	}
	return tl, nil
}

func (b *builder) load(tl *timeline.Timeline, name string, s *sources.Set, diag *Diagnostics) {
	if s == nil {
		return
	}
	s.LoadInto(tl)
	diag.Skipped[name] = s.Skipped
	for _, src := range timeline.Precedence() {
		if n := s.Count(src); n > 0 {
			b.metrics.SamplesLoaded(src, n)
		}
	}
}

// fade hands the IERS projection over to the long-horizon curve, starting
// at the last IERS measurement. The fade lasts until the end of the
// Bulletin A projection.
func (b *builder) fade(tl *timeline.Timeline, in *inputs, diag *Diagnostics) error {
	if b.cfg.Fade == config.FadeNone {
		return nil
	}
	if in.finals == nil || !in.finals.HasLast {
		slog.Info("no IERS measurements, fade skipped")
		return nil
	}
	last, lastValue := in.finals.Last, in.finals.LastValue
	start, end := tl.Range()
	if last >= end {
		slog.Info("IERS measurements reach the end of the timeline, fade skipped")
		return nil
	}

	series, fit, err := tl.FitParabola(start, end, last, lastValue)
	switch {
	case err == nil:
		tl.Record(timeline.Parabola, series.Samples())
		diag.Parabola = &fit
	case b.cfg.Fade == config.FadeParabola:
		return fmt.Errorf("parabola: %w", err)
	default:
		slog.Warn("parabola fit failed", "err", err)
	}

	p := timeline.FadeParams{Last: last, End: end}
	if in.bulletinA != nil {
		p.Length = max(0, int(in.bulletinA.BaseDay())+b.cfg.ProjectionDays-int(last))
	}
	if b.cfg.Fade == config.FadeParabola {
		p.Long, p.LongSource = series, timeline.Parabola
	} else {
		if p.Long, err = tl.LayerCurve(timeline.AstroProjection); err != nil {
			return fmt.Errorf("astronomical fade: %w", err)
		}
		p.LongSource = timeline.AstroProjection
	}
	if err := tl.Fade(p); err != nil {
		return err
	}
	diag.LastMeasured, diag.FadeLength, diag.FadeEnd = last, p.Length, end
	return nil
}

// scanRange is the configured range, each end defaulting to the extent of
// the timeline.
func (b *builder) scanRange(tl *timeline.Timeline) (calendar.Day, calendar.Day, error) {
	start, end, err := b.cfg.RangeDays()
	if err != nil {
		return 0, 0, err
	}
	first, last := tl.Range()
	if start == 0 {
		start = first
	}
	if end == 0 {
		end = last
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: %s..%s", synth.ErrInvalidRange, start, end)
	}
	return start, end, nil
}

// expiration prefers the Bulletin C rule. Without a bulletin it counts
// expiration_days from the last IERS measurement, or from today when there
// is none.
func (b *builder) expiration(in *inputs) calendar.Day {
	switch {
	case in.bulletinC != nil:
		return in.bulletinC.Expiration()
	case in.finals != nil && in.finals.HasLast:
		return in.finals.Last + calendar.Day(b.cfg.ExpirationDays)
	default:
		return calendar.FromTime(b.now()) + calendar.Day(b.cfg.ExpirationDays)
	}
}

func (b *builder) crossCheck(res *Result) error {
	r, err := taicheck.Check(res.Rows)
	if errors.Is(err, taicheck.ErrUnsupported) {
		slog.Warn("crosscheck skipped", "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("crosscheck: %w", err)
	}
	for _, m := range r.Mismatches() {
		slog.Warn("DTAI disagrees with glibtai", "day", m.Day.String(), "table", m.Table, "glibtai", m.System)
	}
	res.CrossCheck = r
	return nil
}

// record writes the run, its merged samples, schedule and scan decisions.
func (b *builder) record(ctx context.Context, res *Result, began time.Time) error {
	st, err := store.Open(b.cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := b.cfg.Hash()
	if err != nil {
		return err
	}
	id, err := store.NewRunID()
	if err != nil {
		return err
	}
	run := store.Run{
		ID:         id,
		StartedAt:  began,
		ConfigHash: hash,
		Checksum:   res.Checksum,
		Start:      res.Table.Start,
		End:        res.Table.End,
		Expiration: res.Table.Expiration,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return err
	}
	if err := st.WriteSamples(ctx, id, res.Timeline.Samples()); err != nil {
		return err
	}
	if err := st.WriteSchedule(ctx, id, res.Rows); err != nil {
		return err
	}
	if err := st.WriteDecisions(ctx, id, res.Schedule.Decisions()); err != nil {
		return err
	}
	res.RunID = id
	slog.Debug("run recorded", "id", id, "store", b.cfg.Store)
	return nil
}
