package analytics

import "time"

// Window is a half-open time interval [From, To): the lower bound is
// inclusive, the upper bound exclusive. An event occurring exactly at
// To is excluded.
type Window struct {
	From time.Time
	To   time.Time
}

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a boundary timestamp. Bare dates resolve to
// midnight UTC.
func ParseTimestamp(field, value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Field: field, Value: value, Err: lastErr}
}

// ParseWindow parses and validates a [from, to) window. It returns a
// ParseError when either string is not a recognized timestamp and an
// InvalidRangeError unless to is strictly after from.
func ParseWindow(from, to string) (Window, error) {
	start, err := ParseTimestamp("from", from)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseTimestamp("to", to)
	if err != nil {
		return Window{}, err
	}
	if !end.After(start) {
		return Window{}, &InvalidRangeError{From: start, To: end}
	}
	return Window{From: start, To: end}, nil
}
