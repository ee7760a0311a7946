package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats a result as the text stored in golden files: one line
// per extraordinary day, then one line per scanner decision.
func Render(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# %s\n", name)
	for _, r := range result.Rows {
		fmt.Fprintf(&buf, "leap %s %d %d\n", r.Day.ISO(), r.Length, r.DTAI)
	}
	for _, d := range result.Decisions {
		fmt.Fprintf(&buf, "decision %s..%s chose %s class %d sign %+d\n",
			d.Anchor.ISO(), d.Cursor.ISO(), d.Day.ISO(), d.Priority, d.Sign)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the schedule against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the schedule doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Render(name, result))
}
