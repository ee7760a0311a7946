package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/export"
)

// Window is the timeline export window: the table's scan range.
func (r *Result) Window() export.Window {
	return export.Window{From: r.Table.Start, To: r.Table.End}
}

// WriteOutputs writes every configured output file. Empty paths are
// skipped.
func (r *Result) WriteOutputs(out config.OutputConfig) error {
	win := r.Window()
	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{out.Table, func(w io.Writer) error {
			_, err := w.Write(r.Encoded)
			return err
		}},
		{out.CSV, func(w io.Writer) error {
			return export.CSVSources(w, r.Timeline, win)
		}},
		{out.LaTeXDeltaT, func(w io.Writer) error {
			return export.LaTeXDeltaT(w, r.Timeline, win)
		}},
		{out.UT1UTC, func(w io.Writer) error {
			return export.UT1UTC(w, r.Timeline, r.Schedule, calendar.Epoch, win)
		}},
	}
	for _, wr := range writers {
		if wr.path == "" {
			continue
		}
		if err := WriteFile(wr.path, wr.write); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates path and hands a buffered writer for it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	slog.Debug("output written", "path", path)
	return nil
}
