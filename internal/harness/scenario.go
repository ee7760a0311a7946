package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/leapcal/internal/calendar"
)

// Scenario defines a synthesis scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario pins down.
	Description string `yaml:"description"`

	// Timeline is the ΔTAI curve to scan.
	Timeline TimelineSpec `yaml:"timeline"`

	// Range limits the scan. Empty ends default to the first and last point.
	Range RangeSpec `yaml:"range,omitempty"`

	// Overrides lists the official windows to apply after the scan:
	// "finch" and/or "iers".
	Overrides []string `yaml:"overrides,omitempty"`

	// Assertions validate the resulting schedule.
	Assertions []Assertion `yaml:"assertions"`
}

// TimelineSpec is a piecewise linear ΔTAI curve.
type TimelineSpec struct {
	// Lower and Upper are the clamping bounds. Empty means the first and
	// last point.
	Lower  string  `yaml:"lower,omitempty"`
	Upper  string  `yaml:"upper,omitempty"`
	Points []Point `yaml:"points"`
}

// Point is one knot of the curve.
type Point struct {
	Day   string  `yaml:"day"`
	Value float64 `yaml:"value"`
}

// RangeSpec is the half-open scan range [Start, End).
type RangeSpec struct {
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// Assertion validates the schedule.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Day is the day under test (leap_on, no_leap, dtai).
	Day string `yaml:"day,omitempty"`

	// Length is the expected day length (leap_on).
	Length int `yaml:"length,omitempty"`

	// Value is the expected DTAI (dtai).
	Value int `yaml:"value,omitempty"`

	// Count is the expected number of extraordinary days (leap_count).
	Count int `yaml:"count,omitempty"`

	// Priority is the worst acceptable priority class (max_priority).
	Priority int `yaml:"priority,omitempty"`
}

// Assertion type constants.
const (
	AssertLeapCount   = "leap_count"
	AssertLeapOn      = "leap_on"
	AssertNoLeap      = "no_leap"
	AssertDTAI        = "dtai"
	AssertMaxPriority = "max_priority"
)

// Override names.
const (
	OverrideFinch = "finch"
	OverrideIERS  = "iers"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Timeline.Points) < 2 {
		return fmt.Errorf("timeline needs at least two points")
	}
	for i, p := range s.Timeline.Points {
		if _, err := calendar.ParseISO(p.Day); err != nil {
			return fmt.Errorf("timeline.points[%d]: %w", i, err)
		}
	}
	for field, v := range map[string]string{
		"timeline.lower": s.Timeline.Lower,
		"timeline.upper": s.Timeline.Upper,
		"range.start":    s.Range.Start,
		"range.end":      s.Range.End,
	} {
		if v == "" {
			continue
		}
		if _, err := calendar.ParseISO(v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	for i, o := range s.Overrides {
		if o != OverrideFinch && o != OverrideIERS {
			return fmt.Errorf("overrides[%d]: unknown override %q", i, o)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needDay := func() error {
		if a.Day == "" {
			return fmt.Errorf("assertions[%d]: day is required for %s", index, a.Type)
		}
		if _, err := calendar.ParseISO(a.Day); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertLeapCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for leap_count", index)
		}
	case AssertLeapOn:
		if err := needDay(); err != nil {
			return err
		}
		if a.Length != 86399 && a.Length != 86401 {
			return fmt.Errorf("assertions[%d]: length must be 86399 or 86401 for leap_on", index)
		}
	case AssertNoLeap, AssertDTAI:
		return needDay()
	case AssertMaxPriority:
		if a.Priority < 1 {
			return fmt.Errorf("assertions[%d]: priority is required for max_priority", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
