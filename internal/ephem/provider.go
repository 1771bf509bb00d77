package ephem

import (
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// Provider is the read side of an Almanac, as consumed by the terminal
// browser and other front ends.
type Provider interface {
	// Kernels lists the loaded kernels in load order.
	Kernels() []KernelInfo

	// Inspect lists the segments of one kernel.
	Inspect(h KernelHandle) ([]SegmentSummary, error)

	// Coverage returns the merged windows of a body's trajectory data.
	Coverage(target int) []catalog.Window

	// Bodies lists the bodies with trajectory data.
	Bodies() []int

	// State evaluates target relative to observer.
	State(target, observer int, frame string, ep timescale.Epoch, ab Aberration) (StateVector, error)

	// Transform returns the rotation between two frames.
	Transform(from, to string, ep timescale.Epoch) (frames.Transform, error)
}

var _ Provider = (*Almanac)(nil)
