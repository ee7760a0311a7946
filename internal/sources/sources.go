// Package sources reads the ΔT inputs: the historical reconstruction, the
// USNO predictions and records, the IERS finals series and the IERS
// bulletins.
//
// Readers skip malformed rows, count them and log each one; only I/O
// failures and unusable headers are returned as errors.
package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/timeline"
)

// TTMinusTAI is TT-TAI in seconds.
const TTMinusTAI = 32.184

// ParseError describes one malformed input row.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %s", e.Source, e.Line, e.Msg)
}

// Set is the output of one reader.
type Set struct {
	Samples []timeline.Attributed
	// Skipped counts malformed rows.
	Skipped int

	// fractional year range of the rows, when the source carries years
	MinYear, MaxYear float64
	HasYears         bool
}

func (s *Set) add(src timeline.Source, smp timeline.Sample) {
	s.Samples = append(s.Samples, timeline.Attributed{Sample: smp, Source: src})
}

func (s *Set) noteYear(y float64) {
	if !s.HasYears {
		s.MinYear, s.MaxYear, s.HasYears = y, y, true
		return
	}
	s.MinYear = math.Min(s.MinYear, y)
	s.MaxYear = math.Max(s.MaxYear, y)
}

func (s *Set) skip(err *ParseError) {
	s.Skipped++
	slog.Warn("row skipped", "source", err.Source, "line", err.Line, "reason", err.Msg)
}

// Count returns the number of samples attributed to src.
func (s *Set) Count(src timeline.Source) int {
	n := 0
	for _, a := range s.Samples {
		if a.Source == src {
			n++
		}
	}
	return n
}

// LoadInto loads the samples into tl. Consecutive samples of one source
// are loaded together, so the merge order is the row order.
func (s *Set) LoadInto(tl *timeline.Timeline) {
	for i := 0; i < len(s.Samples); {
		j := i
		batch := make([]timeline.Sample, 0)
		for j < len(s.Samples) && s.Samples[j].Source == s.Samples[i].Source {
			batch = append(batch, s.Samples[j].Sample)
			j++
		}
		tl.Load(s.Samples[i].Source, batch)
		i = j
	}
	if s.HasYears {
		tl.NoteYears(s.MinYear, s.MaxYear)
	}
}

// table is a CSV reader that looks columns up by header name.
type table struct {
	name string
	r    *csv.Reader
	cols map[string]int
}

func newTable(name string, r io.Reader, comma rune, header []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := &table{name: name, r: cr, cols: make(map[string]int)}
	if header != nil {
		for i, h := range header {
			t.cols[h] = i
		}
		return t, nil
	}
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i, h := range first {
		t.cols[strings.TrimSpace(h)] = i
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			return fmt.Errorf("%s: missing column %q", t.name, c)
		}
	}
	return nil
}

// next returns the next record and its line number, or io.EOF. Records
// that the CSV layer cannot split are returned as a ParseError.
func (t *table) next() ([]string, int, error) {
	rec, err := t.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Line, &ParseError{Source: t.name, Line: perr.Line, Msg: perr.Err.Error()}
		}
		return nil, 0, err
	}
	line, _ := t.r.FieldPos(0)
	return rec, line, nil
}

func (t *table) field(rec []string, col string) (string, bool) {
	i, ok := t.cols[col]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}

// dayFromYear converts a fractional year to the first day of the month the
// fraction falls in.
func dayFromYear(y float64) calendar.Day {
	year := math.Floor(y)
	month := int((y-year)*12) + 1
	return calendar.FromYMD(int(year), month, 1)
}

// each calls fn for every record. ParseErrors from the CSV layer or from
// fn skip the row; any other error stops the read.
func (t *table) each(s *Set, fn func(rec []string, line int) error) error {
	for {
		rec, line, err := t.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err == nil {
			err = fn(rec, line)
		}
		var perr *ParseError
		switch {
		case err == nil:
		case errors.As(err, &perr):
			s.skip(perr)
		default:
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
}

func (t *table) bad(line int, format string, args ...any) *ParseError {
	return &ParseError{Source: t.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (t *table) float(rec []string, col string, line int) (float64, error) {
	v, ok := t.field(rec, col)
	if !ok || v == "" {
		return 0, t.bad(line, "column %s is empty", col)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, t.bad(line, "column %s: %v", col, err)
	}
	return f, nil
}

func (t *table) int(rec []string, col string, line int) (int, error) {
	v, ok := t.field(rec, col)
	if !ok || v == "" {
		return 0, t.bad(line, "column %s is empty", col)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, t.bad(line, "column %s: %v", col, err)
	}
	return n, nil
}
