package timescale

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownLeapSecondEra is returned for UTC instants outside the span
	// of the leap-second table.
	ErrUnknownLeapSecondEra = errors.New("unknown leap second era")
	ErrBadCalendar          = errors.New("invalid calendar date")
	ErrParse                = errors.New("unparseable time")
)

// TimeError reports a failed conversion at the time system boundary.
type TimeError struct {
	Input string
	Err   error
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("timescale: %s: %v", e.Input, e.Err)
}

func (e *TimeError) Unwrap() error {
	return e.Err
}

func timeErr(input string, err error) error {
	return &TimeError{Input: input, Err: err}
}
