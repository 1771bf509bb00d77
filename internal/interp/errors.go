package interp

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-ephem/internal/catalog"
)

var (
	// ErrEpochOutOfWindow is returned when an epoch lies outside every
	// record of a segment, beyond the rounding slack at the boundaries.
	ErrEpochOutOfWindow = errors.New("epoch outside interpolation window")

	// ErrDegenerate is returned for tables that cannot be interpolated,
	// such as repeated epochs or zero-width records.
	ErrDegenerate = errors.New("degenerate interpolation table")
)

// InterpError reports a numerical evaluation failure for one segment.
type InterpError struct {
	Segment string
	Type    catalog.SegmentType
	ET      float64
	Err     error
}

func (e *InterpError) Error() string {
	return fmt.Sprintf("interp: %s segment %q at ET %.6f: %v", e.Type, e.Segment, e.ET, e.Err)
}

func (e *InterpError) Unwrap() error {
	return e.Err
}

func interpErr(seg catalog.Segment, et float64, err error) error {
	return &InterpError{Segment: seg.Name, Type: seg.Type, ET: et, Err: err}
}
