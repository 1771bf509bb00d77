package ephem

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-ephem/internal/timescale"
)

var (
	// ErrAberrationDidNotConverge means converged Newtonian light time did
	// not settle within the iteration limit.
	ErrAberrationDidNotConverge = errors.New("light time did not converge")

	// ErrUnknownBody means a body name could not be resolved.
	ErrUnknownBody = errors.New("unknown body")

	// ErrNoKernels means the pool holds no kernel able to answer.
	ErrNoKernels = errors.New("no kernels loaded")
)

// QueryError wraps every failure surfaced by an Almanac query. The
// underlying typed error stays reachable through errors.Is and errors.As.
type QueryError struct {
	Op       string
	Target   int
	Observer int
	Frame    string
	Epoch    timescale.Epoch
	Err      error
}

func (e *QueryError) Error() string {
	switch e.Op {
	case "transform":
		return fmt.Sprintf("ephem: transform %s at %v: %v", e.Frame, e.Epoch, e.Err)
	case "state", "path":
		return fmt.Sprintf("ephem: %s %s wrt %s in %s at %v: %v",
			e.Op, Name(e.Target), Name(e.Observer), e.Frame, e.Epoch, e.Err)
	case "azel", "passes", "separation":
		return fmt.Sprintf("ephem: %s %s from %s at %v: %v",
			e.Op, Name(e.Target), Name(e.Observer), e.Epoch, e.Err)
	}
	return fmt.Sprintf("ephem: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
