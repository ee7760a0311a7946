package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/leapcal/internal/calendar"
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/synth"
)

// AssertionError is returned when an assertion fails.
// It includes the schedule to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Rows     []dtai.Row // Full schedule for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSchedule:\n")
	for i, r := range e.Rows {
		fmt.Fprintf(&buf, "  [%d] %s %d %d\n", i+1, r.Day.ISO(), r.Length, r.DTAI)
	}

	return buf.String()
}

// Prioritizer ranks days for max_priority.
type Prioritizer interface {
	Get(day calendar.Day) int
}

// EvaluateAssertions runs every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, prio Prioritizer) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertLeapCount:
			err = assertLeapCount(result.Rows, a)
		case AssertLeapOn:
			err = assertLeapOn(result.Rows, a)
		case AssertNoLeap:
			err = assertNoLeap(result.Rows, a)
		case AssertDTAI:
			err = assertDTAI(result.Rows, a)
		case AssertMaxPriority:
			err = assertMaxPriority(result.Rows, result.Decisions, prio, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func findRow(rows []dtai.Row, day string) (dtai.Row, bool) {
	d, err := calendar.ParseISO(day)
	if err != nil {
		return dtai.Row{}, false
	}
	for _, r := range rows {
		if r.Day == d {
			return r, true
		}
	}
	return dtai.Row{}, false
}

func assertLeapCount(rows []dtai.Row, a Assertion) error {
	if len(rows) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLeapCount,
		Expected: fmt.Sprintf("%d extraordinary days", a.Count),
		Actual:   fmt.Sprintf("%d extraordinary days", len(rows)),
		Rows:     rows,
	}
}

func assertLeapOn(rows []dtai.Row, a Assertion) error {
	r, ok := findRow(rows, a.Day)
	if ok && r.Length == a.Length {
		return nil
	}
	actual := "ordinary day"
	if ok {
		actual = fmt.Sprintf("length %d", r.Length)
	}
	return &AssertionError{
		Type:     AssertLeapOn,
		Expected: fmt.Sprintf("%s with length %d", a.Day, a.Length),
		Actual:   actual,
		Rows:     rows,
	}
}

func assertNoLeap(rows []dtai.Row, a Assertion) error {
	r, ok := findRow(rows, a.Day)
	if !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoLeap,
		Expected: fmt.Sprintf("%s to be ordinary", a.Day),
		Actual:   fmt.Sprintf("length %d", r.Length),
		Rows:     rows,
	}
}

func assertDTAI(rows []dtai.Row, a Assertion) error {
	r, ok := findRow(rows, a.Day)
	if ok && r.DTAI == a.Value {
		return nil
	}
	actual := "no row"
	if ok {
		actual = fmt.Sprintf("DTAI %d", r.DTAI)
	}
	return &AssertionError{
		Type:     AssertDTAI,
		Expected: fmt.Sprintf("DTAI %d on %s", a.Value, a.Day),
		Actual:   actual,
		Rows:     rows,
	}
}

func assertMaxPriority(rows []dtai.Row, decisions []synth.Decision, prio Prioritizer, a Assertion) error {
	for _, d := range decisions {
		if p := prio.Get(d.Day); p > a.Priority {
			return &AssertionError{
				Type:     AssertMaxPriority,
				Expected: fmt.Sprintf("every chosen day of class %d or better", a.Priority),
				Actual:   fmt.Sprintf("%s has class %d", d.Day.ISO(), p),
				Rows:     rows,
			}
		}
	}
	return nil
}
