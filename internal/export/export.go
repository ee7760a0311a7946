// Package export renders the extraordinary-day table and the merged ΔT
// timeline in formats meant for other tools: LaTeX longtables, gnuplot
// data files, a C array initializer and semicolon-separated CSV.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
)

// Window is the inclusive day range an export covers.
type Window struct {
	From, To calendar.Day
}

// Contains reports whether d lies in the window.
func (w Window) Contains(d calendar.Day) bool {
	return d >= w.From && d <= w.To
}

func (w Window) check() error {
	if w.To < w.From {
		return fmt.Errorf("export window %s..%s is empty", w.From, w.To)
	}
	return nil
}

// LaTeXTable writes the rows inside win as a longtable of Julian dates,
// day lengths, DTAI and calendar dates.
func LaTeXTable(w io.Writer, rows []dtai.Row, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("\\begin{longtable}{|c|c|r|l|}\n")
	fmt.Fprintf(bw, "\\caption{Extraordinary days from %s to %s} \\\\\n", win.From, win.To)
	bw.WriteString("\\hline Julian Day Number & length in seconds & DTAI & Day Month Year \\endhead \\hline \n")
	bw.WriteString("\\label{table:JDN_DTAI}\n")
	for _, r := range rows {
		if !win.Contains(r.Day) {
			continue
		}
		fmt.Fprintf(bw, "\\num{%s} & \\num{%d} & \\num{%d} & \\# %s\\\\\\hline\n",
			julianDate(r.Day), r.Length, r.DTAI, r.Day)
	}
	bw.WriteString("\\end{longtable}\n")
	return bw.Flush()
}

// GnuplotTable writes "day DTAI" pairs for the rows inside win. A leading
// point at win.From carries the first value when the first row is later,
// and a trailing point at win.To carries the value in force there.
func GnuplotTable(w io.Writer, rows []dtai.Row, win Window) error {
	if err := win.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	first := true
	for _, r := range rows {
		if !win.Contains(r.Day) {
			continue
		}
		if first && r.Day > win.From {
			fmt.Fprintf(bw, "%d %d\n", win.From, r.DTAI)
		}
		first = false
		fmt.Fprintf(bw, "%d %d\n", r.Day, r.DTAI)
	}
	fmt.Fprintf(bw, "%d %d\n", win.To, InForce(rows, win.To))
	return bw.Flush()
}

// CArray writes a C initializer of {day, DTAI} pairs, where day is the
// first day on which DTAI holds, to tab, and a header defining
// DTAI_ENTRY_COUNT to hdr. It returns the number of entries.
func CArray(tab, hdr io.Writer, rows []dtai.Row, win Window) (int, error) {
	if err := win.check(); err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(tab)
	entry := func(d calendar.Day, v int) {
		fmt.Fprintf(bw, "{%d, %d}, /* %s */\n", d, v, d)
	}

	n := 0
	first := true
	for _, r := range rows {
		if !win.Contains(r.Day) {
			continue
		}
		if first && r.Day > win.From {
			entry(win.From+1, InForce(rows, win.From))
			n++
		}
		first = false
		entry(r.Day+1, r.DTAI)
		n++
	}
	if first {
		entry(win.From+1, InForce(rows, win.From))
		n++
	}
	entry(win.To, InForce(rows, win.To))
	n++
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write C table: %w", err)
	}

	if _, err := fmt.Fprintf(hdr, "#define DTAI_ENTRY_COUNT %d\n", n); err != nil {
		return 0, fmt.Errorf("write C header: %w", err)
	}
	return n, nil
}

// InForce returns the DTAI in force at the end of day. Before the first
// row it is the first row's value less that row's excess; with no rows it
// is 0.
func InForce(rows []dtai.Row, day calendar.Day) int {
	if len(rows) == 0 {
		return 0
	}
	if day < rows[0].Day {
		return rows[0].DTAI - (rows[0].Length - 86400)
	}
	v := rows[0].DTAI
	for _, r := range rows {
		if r.Day > day {
			break
		}
		v = r.DTAI
	}
	return v
}

// julianDate formats the Julian date of the midnight that starts d.
func julianDate(d calendar.Day) string {
	return strconv.Itoa(int(d)-1) + ".5"
}

// latexDate is Day.String with negative years written with a doubled
// minus, which LaTeX typesets as a dash.
func latexDate(d calendar.Day) string {
	s := d.String()
	if d.Year() < 0 {
		s = strings.Replace(s, " -", " --", 1)
	}
	return s
}

// spreadsheetDate formats d as a spreadsheet formula.
func spreadsheetDate(d calendar.Day) string {
	y, m, dd := d.YMD()
	return fmt.Sprintf("=date(%d,%d,%d)", y, m, dd)
}

// formatFloat writes v in its shortest round-trip form, keeping a ".0" on
// integral values.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}
	return s
}
