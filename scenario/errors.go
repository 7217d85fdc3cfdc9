package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError via errors.Is.
	ErrFormat = errors.New("malformed scenario")
	// ErrMissingField indicates a record ended before all fixed fields were read.
	ErrMissingField = errors.New("missing field")
	// ErrDuplicateVessel indicates two NEWT records share an ID.
	ErrDuplicateVessel = errors.New("duplicate vessel id")
	// ErrNonFinite indicates a NaN or infinite numeric field.
	ErrNonFinite = errors.New("non-finite number")
)

// FormatError describes a malformed field in a scenario record.
type FormatError struct {
	Line    int    // 1-based source line
	Keyword string // record keyword, e.g. NEWT
	Field   string // field name within the record
	Value   string // offending token, empty when the field is missing
	Err     error
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("scenario: line %d: %s %s: %v", e.Line, e.Keyword, e.Field, e.Err)
	}
	return fmt.Sprintf("scenario: line %d: %s %s: invalid value %q: %v", e.Line, e.Keyword, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is lets callers test any FormatError against ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }
