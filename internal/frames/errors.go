package frames

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-ephem/internal/timescale"
)

var (
	ErrNoPath       = errors.New("no path between frames")
	ErrUnknownFrame = errors.New("unknown frame")
	ErrTooDeep      = errors.New("frame chain too deep")
)

// GraphError reports a failed frame resolution.
type GraphError struct {
	From, To ID
	Epoch    timescale.Epoch
	Err      error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("frames: %v to %v at %v: %v", e.From, e.To, e.Epoch, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}
