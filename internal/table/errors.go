package table

import "fmt"

// Validation error codes (E201-E299, W301-W399)
const (
	// Line-level errors (E201-E205)
	ErrUnrecognizedLine = "E201" // neither keyword, data, comment nor blank
	ErrDuplicateKeyword = "E202" // keyword seen more than once
	ErrDuplicateDay     = "E203" // day number seen more than once
	ErrOutOfOrder       = "E204" // day number lower than the previous one
	ErrDTAIStep         = "E205" // DTAI differs from the previous row by other than 1

	// Header errors (E206-E208)
	ErrMissingStart      = "E206"
	ErrMissingEnd        = "E207"
	ErrMissingExpiration = "E208"

	// Range and integrity errors (E209-E212)
	ErrBeforeStart      = "E209"
	ErrAfterEnd         = "E210"
	ErrChecksumMismatch = "E211"
	ErrChecksumMissing  = "E212" // warning; Fix carries the line to add

	ErrInvalidLength       = "E213" // length is neither 86399 nor 86401
	ErrInvalidKeywordValue = "E214" // a date keyword whose value is not a day number

	// Staleness
	WarnExpired = "W301"
)

// Severity of a ValidationError.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one problem found in a table file.
type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	// Fix is a line that resolves the problem, when one is known.
	Fix string `json:"fix,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// HasErrors reports whether errs contains an error-severity entry.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Failed reports whether a table with these findings must not be trusted:
// it has errors or it has expired.
func Failed(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError || e.Code == WarnExpired {
			return true
		}
	}
	return false
}

func newError(code, field string, line int, format string, args ...any) ValidationError {
	return ValidationError{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Code:     code,
		Line:     line,
		Severity: SeverityError,
	}
}
