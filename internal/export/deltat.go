package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/timeline"
)

// LaTeXDeltaT writes the merged ΔT of every stored day inside win as a
// longtable, rounded to four decimals.
func LaTeXDeltaT(w io.Writer, tl *timeline.Timeline, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("\\begin{longtable}{|r|S[table-number-alignment=right,table-figures-integer=5,table-figures-decimal=4]|r|}\n")
	fmt.Fprintf(bw, "\\caption{Values of $\\Delta$T from %s to %s} \\\\\n", latexDate(win.From), latexDate(win.To))
	bw.WriteString("\\hline Date &{$\\Delta$T} & Julian Day \\endhead \\hline \n")
	bw.WriteString("\\label{table:delta_t}\n")
	for _, d := range tl.Days() {
		if !win.Contains(d) {
			continue
		}
		v, err := tl.Value(d)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%s & %s& \\num{%s}\\\\\\hline\n",
			latexDate(d), formatFloat(math.Round(v*1e4)/1e4), julianDate(d))
	}
	bw.WriteString("\\end{longtable}\n")
	return bw.Flush()
}

// CSVSources writes one line per day and source layer inside win, so a day
// that several sources cover appears once for each of them. Layers are
// listed in load order.
func CSVSources(w io.Writer, tl *timeline.Timeline, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	srcs := tl.Sources()
	bw := bufio.NewWriter(w)
	bw.WriteString("JDN;Year;Month;Day;date;delta_t;source\n")
	for d := win.From; d <= win.To; d++ {
		for _, src := range srcs {
			v, ok := tl.Layer(src)[d]
			if !ok {
				continue
			}
			y, m, dd := d.YMD()
			fmt.Fprintf(bw, "%d;%d;%d;%d;%s;%s;%s\n", d, y, m, dd, spreadsheetDate(d), formatFloat(v), src)
		}
	}
	return bw.Flush()
}

// GnuplotDeltaT writes "day ΔT" pairs for every stored day inside win,
// padded at both edges with the nearest written value.
func GnuplotDeltaT(w io.Writer, tl *timeline.Timeline, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	first := true
	var last float64
	for _, d := range tl.Days() {
		if !win.Contains(d) {
			continue
		}
		v, err := tl.Value(d)
		if err != nil {
			return err
		}
		if first && d > win.From {
			fmt.Fprintf(bw, "%d %s\n", win.From, formatFloat(v))
		}
		first = false
		fmt.Fprintf(bw, "%d %s\n", d, formatFloat(v))
		last = v
	}
	if first {
		return fmt.Errorf("no ΔT samples in %s..%s", win.From, win.To)
	}
	fmt.Fprintf(bw, "%d %s\n", win.To, formatFloat(last))
	return bw.Flush()
}

// Series is the ΔT view the UT1-UTC export needs. *timeline.Timeline
// satisfies it.
type Series interface {
	DeltaTAI(day calendar.Day) (float64, error)
	SourceLabel(day calendar.Day) string
}

type ut1Entry struct {
	source string
	leap   int
	value  float64
}

// UT1UTC writes UT1-UTC for every day in [win.From, win.To). The walk
// starts at epoch, where UT1-UTC is taken as zero, and moves outward in
// both directions, stepping the leap count at each extraordinary day.
// Days without a sample of their own inherit the source of the previous
// day on the walk.
func UT1UTC(w io.Writer, s Series, lengths dtai.Lengths, epoch calendar.Day, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	base, err := s.DeltaTAI(epoch)
	if err != nil {
		return fmt.Errorf("UT1-UTC base: %w", err)
	}

	entries := make(map[calendar.Day]ut1Entry)
	excess := func(d calendar.Day) int { return lengths.Length(d) - 86400 }

	// step records d and moves leap across it in the walk direction dir.
	step := func(d calendar.Day, leap *int, prev *string, dir int) error {
		v, err := s.DeltaTAI(d)
		if err != nil {
			return fmt.Errorf("UT1-UTC at %s: %w", d, err)
		}
		value := base + float64(*leap) - v
		*leap += dir * excess(d)
		src := s.SourceLabel(d)
		if src == "" {
			src = *prev
		}
		*prev = src
		entries[d] = ut1Entry{source: src, leap: *leap, value: value}
		return nil
	}

	leap, prev := 0, "unknown"
	for d := epoch; d < win.To; d++ {
		if err := step(d, &leap, &prev, 1); err != nil {
			return err
		}
	}

	leap, prev = -excess(epoch), "unknown"
	if src := s.SourceLabel(epoch); src != "" {
		prev = src
	}
	for d := epoch - 1; d >= win.From; d-- {
		if err := step(d, &leap, &prev, -1); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("JDN;Year;Month;Day;source;leap;UT1-UTC\n")
	for d := win.From; d < win.To; d++ {
		e, ok := entries[d]
		if !ok {
			continue
		}
		y, m, dd := d.YMD()
		fmt.Fprintf(bw, "%d;%d;%d;%d;%s;%d;%.7f\n", d, y, m, dd, e.source, e.leap, e.value)
	}
	return bw.Flush()
}
