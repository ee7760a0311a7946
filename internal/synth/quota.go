package synth

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps bounds the number of scan steps of one Synthesize call.
// Every step advances by at least one day, so the default is well above
// the number of days between -2000 and 2500.
const DefaultMaxSteps = 2_000_000

// ErrStepsExceeded is the sentinel matched by StepsExceededError.
var ErrStepsExceeded = errors.New("scan steps exceeded")

// quota counts scan steps against a limit.
type quota struct {
	limit   int
	current int
}

func (q *quota) check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &StepsExceededError{Steps: q.current, Limit: q.limit}
	}
	return nil
}

// StepsExceededError is returned when a scan takes more steps than allowed.
type StepsExceededError struct {
	Steps int
	Limit int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("scan took %d steps, limit is %d", e.Steps, e.Limit)
}

// Is reports whether target is ErrStepsExceeded.
func (e *StepsExceededError) Is(target error) bool {
	return target == ErrStepsExceeded
}
