package table

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
)

// Decode parses a table file. It never stops at the first problem: every
// line is examined and every finding is returned. The error return is
// reserved for read failures.
func Decode(r io.Reader) (*Table, []ValidationError, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read table: %w", err)
	}
	t, errs := decode(raw)
	return t, errs, nil
}

func decode(raw []byte) (*Table, []ValidationError) {
	t := &Table{keywords: make(map[string]string), Computed: Checksum(raw)}
	var errs []ValidationError

	seen := make(map[calendar.Day]bool)
	var prev dtai.Row
	inPreamble := true

	for i, b := range splitLines(raw) {
		n := i + 1
		line := string(b)

		if blankPattern.MatchString(line) {
			if inPreamble && strings.HasPrefix(strings.TrimSpace(line), "#") {
				t.Comments = append(t.Comments, commentText(line))
			}
			continue
		}
		inPreamble = false

		if m := keywordPattern.FindStringSubmatch(line); m != nil {
			key, val := m[1], m[2]
			if _, dup := t.keywords[key]; dup {
				errs = append(errs, newError(ErrDuplicateKeyword, key, n, "keyword %s seen more than once", key))
			}
			t.keywords[key] = val
			continue
		}

		if m := dataPattern.FindStringSubmatch(line); m != nil {
			row, err := parseRow(m)
			if err != nil {
				errs = append(errs, newError(ErrUnrecognizedLine, "row", n, "%v", err))
				continue
			}
			if seen[row.Day] {
				errs = append(errs, newError(ErrDuplicateDay, "day", n, "day number %d seen more than once", row.Day))
			}
			if len(t.Rows) > 0 && row.Day < prev.Day {
				errs = append(errs, newError(ErrOutOfOrder, "day", n, "day number %d out of order", row.Day))
			}
			if row.Length != 86399 && row.Length != 86401 {
				errs = append(errs, newError(ErrInvalidLength, "length", n, "day %d has length %d, want 86399 or 86401", row.Day, row.Length))
			}
			if len(t.Rows) > 0 {
				if d := row.DTAI - prev.DTAI; d != 1 && d != -1 {
					errs = append(errs, newError(ErrDTAIStep, "dtai", n,
						"at day number %d, DTAI of %d does not differ from the previous DTAI of %d by plus or minus 1",
						row.Day, row.DTAI, prev.DTAI))
				}
			}
			seen[row.Day] = true
			t.Rows = append(t.Rows, row)
			prev = row
			continue
		}

		errs = append(errs, newError(ErrUnrecognizedLine, "line", n, "line %d is not recognized: %q", n, line))
	}

	dates := []struct {
		key string
		dst *calendar.Day
	}{
		{KeyStart, &t.Start},
		{KeyEnd, &t.End},
		{KeyExpiration, &t.Expiration},
	}
	for _, date := range dates {
		key := date.key
		v, ok := t.keywords[key]
		if !ok {
			continue
		}
		d, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, newError(ErrInvalidKeywordValue, key, 0, "%s=%s is not a day number", key, v))
			continue
		}
		*date.dst = calendar.Day(d)
		if key == KeyExpiration {
			t.hasExpiration = true
		}
	}
	t.Checksum = t.keywords[KeyChecksum]
	t.decodeErrors = len(errs)

	slog.Debug("table decoded", "rows", len(t.Rows), "keywords", len(t.keywords), "errors", len(errs))
	return t, errs
}

func parseRow(m []string) (dtai.Row, error) {
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return dtai.Row{}, fmt.Errorf("day number %s: %w", m[1], err)
	}
	length, err := strconv.Atoi(m[2])
	if err != nil {
		return dtai.Row{}, fmt.Errorf("length %s: %w", m[2], err)
	}
	v, err := strconv.Atoi(m[3])
	if err != nil {
		return dtai.Row{}, fmt.Errorf("DTAI %s: %w", m[3], err)
	}
	return dtai.Row{Day: calendar.Day(day), Length: length, DTAI: v}, nil
}

// Validate checks the header of a decoded table against today. Row ranges
// and the checksum are only checked when nothing else is wrong, since
// either result is meaningless for a malformed file.
func Validate(t *Table, today calendar.Day) []ValidationError {
	var errs []ValidationError

	required := []struct{ key, code, name string }{
		{KeyStart, ErrMissingStart, "start date"},
		{KeyEnd, ErrMissingEnd, "end date"},
		{KeyExpiration, ErrMissingExpiration, "expiration date"},
	}
	for _, r := range required {
		if _, ok := t.keywords[r.key]; !ok {
			errs = append(errs, newError(r.code, r.key, 0, "%s is missing", r.name))
		}
	}

	if t.hasExpiration && today > t.Expiration {
		errs = append(errs, ValidationError{
			Field:    KeyExpiration,
			Code:     WarnExpired,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("table expired on %s; find a later version or update it using leap second information from the IERS",
				t.Expiration),
		})
	}

	if t.decodeErrors > 0 || HasErrors(errs) {
		return errs
	}

	for _, r := range t.Rows {
		if r.Day < t.Start {
			errs = append(errs, newError(ErrBeforeStart, "day", 0, "day number %d is before the start date of %d", r.Day, t.Start))
		}
		if r.Day > t.End {
			errs = append(errs, newError(ErrAfterEnd, "day", 0, "day number %d is after the end date of %d", r.Day, t.End))
		}
	}
	if HasErrors(errs) {
		return errs
	}

	switch {
	case t.Checksum == "":
		errs = append(errs, ValidationError{
			Field:    KeyChecksum,
			Code:     ErrChecksumMissing,
			Severity: SeverityWarning,
			Message:  "no checksum value in file; please add this line: " + KeyChecksum + "=" + t.Computed,
			Fix:      KeyChecksum + "=" + t.Computed,
		})
	case t.Checksum != t.Computed:
		errs = append(errs, newError(ErrChecksumMismatch, KeyChecksum, 0,
			"checksum is incorrect: value in file is %s, but computed value is %s", t.Checksum, t.Computed))
	}
	return errs
}

// Check decodes r and validates it against today.
func Check(r io.Reader, today calendar.Day) (*Table, []ValidationError, error) {
	t, errs, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}
	errs = append(errs, Validate(t, today)...)
	return t, errs, nil
}
