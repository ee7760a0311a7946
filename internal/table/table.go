// Package table reads, writes and validates the extraordinary-day table.
//
// A table file is line oriented:
//
//	# free comments
//	START_DATE=2436205	# 1 Jan 1958
//	END_DATE=2488069	# 31 Dec 2099
//	EXPIRATION_DATE=2460856	# 28 Jun 2025
//	2436934	86401	1	# 30 Jun 1959
//	...
//	CHECKSUM=<sha256 hex>
//
// The checksum is the SHA-256 of every byte of the file except the
// CHECKSUM line itself.
package table

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
)

// Header keywords.
const (
	KeyStart      = "START_DATE"
	KeyEnd        = "END_DATE"
	KeyExpiration = "EXPIRATION_DATE"
	KeyChecksum   = "CHECKSUM"
)

var (
	blankPattern   = regexp.MustCompile(`^\s*(#.*)?\n$`)
	keywordPattern = regexp.MustCompile(`^\s*(\w+)\s*=\s*(\w+)\s*(#.*)?\n$`)
	dataPattern    = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s+(-?\d+)\s*(#.*)?\n$`)
)

// Table is the content of a table file.
type Table struct {
	// Comments are the leading comment lines without their "# " prefix.
	Comments   []string
	Start      calendar.Day
	End        calendar.Day
	Expiration calendar.Day
	Rows       []dtai.Row

	// Checksum is the value of the CHECKSUM line, empty if there was none.
	Checksum string
	// Computed is the checksum of the bytes the table was decoded from.
	Computed string

	keywords map[string]string
	// EXPIRATION_DATE was present and a day number
	hasExpiration bool
	// number of line-level errors found while decoding
	decodeErrors int
}

// Keyword returns the raw value of a keyword line.
func (t *Table) Keyword(name string) (string, bool) {
	v, ok := t.keywords[name]
	return v, ok
}

// Between returns the rows whose day lies in [from, to].
func (t *Table) Between(from, to calendar.Day) []dtai.Row {
	out := make([]dtai.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Day >= from && r.Day <= to {
			out = append(out, r)
		}
	}
	return out
}

// DTAI returns TAI-UTC in force at the end of day, or ok=false when day
// precedes every row.
func (t *Table) DTAI(day calendar.Day) (int, bool) {
	val, ok := 0, false
	for _, r := range t.Rows {
		if r.Day > day {
			break
		}
		val, ok = r.DTAI, true
	}
	return val, ok
}

// Encode writes t followed by its CHECKSUM line and returns the checksum.
func Encode(w io.Writer, t *Table) (string, error) {
	body := encodeBody(t)
	sum := digest(body)
	body = append(body, KeyChecksum+"="+sum+"\n"...)
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("write table: %w", err)
	}
	return sum, nil
}

// EncodeWithoutChecksum writes t without a CHECKSUM line and returns the
// checksum the line would carry.
func EncodeWithoutChecksum(w io.Writer, t *Table) (string, error) {
	body := encodeBody(t)
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("write table: %w", err)
	}
	return digest(body), nil
}

func encodeBody(t *Table) []byte {
	var b bytes.Buffer
	for _, c := range t.Comments {
		if c == "" {
			b.WriteString("#\n")
			continue
		}
		b.WriteString("# " + c + "\n")
	}
	fmt.Fprintf(&b, "%s=%d\t# %s\n", KeyStart, t.Start, t.Start)
	fmt.Fprintf(&b, "%s=%d\t# %s\n", KeyEnd, t.End, t.End)
	fmt.Fprintf(&b, "%s=%d\t# %s\n", KeyExpiration, t.Expiration, t.Expiration)
	for _, r := range t.Rows {
		fmt.Fprintf(&b, "%d\t%d\t%d\t# %s\n", r.Day, r.Length, r.DTAI, r.Day)
	}
	return b.Bytes()
}

// Checksum returns the SHA-256 of raw without its CHECKSUM lines.
func Checksum(raw []byte) string {
	h := sha256.New()
	for _, line := range splitLines(raw) {
		if m := keywordPattern.FindSubmatch(line); m != nil && string(m[1]) == KeyChecksum {
			continue
		}
		h.Write(line)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// splitLines splits raw after every newline. A final line without a
// newline is kept as is.
func splitLines(raw []byte) [][]byte {
	lines := bytes.SplitAfter(raw, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}

func commentText(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "#")
	return strings.TrimPrefix(s, " ")
}
