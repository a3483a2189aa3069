package analytics

import (
	"fmt"
	"time"
)

// ParseError reports a timestamp argument that could not be parsed.
// Caller's fault; handlers map it to 400.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s timestamp %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidRangeError reports a window whose upper bound is not strictly
// after its lower bound.
type InvalidRangeError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("to (%s) must be after from (%s)",
		e.To.Format(time.RFC3339), e.From.Format(time.RFC3339))
}

// NotFoundError reports a referenced organization that does not exist.
// Distinguishes "no such org" from "org with no data".
type NotFoundError struct {
	OrgID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("organization %d not found", e.OrgID)
}
