package catalog

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-ephem/internal/timescale"
)

var (
	// ErrNoCoverage means no loaded segment covers the requested epoch.
	ErrNoCoverage = errors.New("no coverage")

	// ErrUnsupportedSegmentType is carried in a *daf.FormatError.
	ErrUnsupportedSegmentType = errors.New("unsupported segment type")
)

// AnyCenter in a LookupError marks a lookup by target alone.
const AnyCenter = -1 << 31

// LookupError reports a failed segment lookup.
type LookupError struct {
	Target int
	Center int
	Epoch  timescale.Epoch
	Err    error
}

func (e *LookupError) Error() string {
	if e.Center == AnyCenter {
		return fmt.Sprintf("catalog: body %d at %v: %v", e.Target, e.Epoch, e.Err)
	}
	return fmt.Sprintf("catalog: %d wrt %d at %v: %v", e.Target, e.Center, e.Epoch, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func noCoverage(target, center int, ep timescale.Epoch) error {
	return &LookupError{Target: target, Center: center, Epoch: ep, Err: ErrNoCoverage}
}
