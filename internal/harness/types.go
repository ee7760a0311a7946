package harness

import (
	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/synth"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Rows is the final schedule with DTAI, in day order.
	Rows []dtai.Row `json:"rows"`

	// Decisions are the scanner's choices in the order they were made.
	// Overrides are applied after the scan and do not appear here.
	Decisions []synth.Decision `json:"decisions"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Rows:      []dtai.Row{},
		Decisions: []synth.Decision{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
