// Package catalog indexes the segments of loaded kernels by body pair and
// time, and stacks catalogs so later-loaded kernels take precedence.
package catalog

import (
	"fmt"

	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// KernelID identifies a loaded kernel. IDs increase with load order.
type KernelID uint64

// SegmentType is the closed set of supported interpolation layouts.
type SegmentType int

const (
	TypeUnknown SegmentType = iota
	SPKChebyshevPosition    // SPK type 2
	SPKChebyshevState       // SPK type 3
	SPKLagrangeEqual        // SPK type 8
	SPKLagrangeUnequal      // SPK type 9
	SPKHermiteEqual         // SPK type 12
	SPKHermiteUnequal       // SPK type 13
	PCKChebyshevAngles      // binary PCK type 2
	PCKChebyshevAngleRates  // binary PCK type 3
)

// classify maps a kernel kind and NAIF type code to a SegmentType.
func classify(kind daf.Kind, code int) (SegmentType, bool) {
	switch kind {
	case daf.KindSPK:
		switch code {
		case 2:
			return SPKChebyshevPosition, true
		case 3:
			return SPKChebyshevState, true
		case 8:
			return SPKLagrangeEqual, true
		case 9:
			return SPKLagrangeUnequal, true
		case 12:
			return SPKHermiteEqual, true
		case 13:
			return SPKHermiteUnequal, true
		}
	case daf.KindPCK:
		switch code {
		case 2:
			return PCKChebyshevAngles, true
		case 3:
			return PCKChebyshevAngleRates, true
		}
	}
	return TypeUnknown, false
}

// Code returns the NAIF type number.
func (t SegmentType) Code() int {
	switch t {
	case SPKChebyshevPosition, PCKChebyshevAngles:
		return 2
	case SPKChebyshevState, PCKChebyshevAngleRates:
		return 3
	case SPKLagrangeEqual:
		return 8
	case SPKLagrangeUnequal:
		return 9
	case SPKHermiteEqual:
		return 12
	case SPKHermiteUnequal:
		return 13
	}
	return 0
}

// Orientation reports whether the type carries Euler angles rather than
// Cartesian states.
func (t SegmentType) Orientation() bool {
	return t == PCKChebyshevAngles || t == PCKChebyshevAngleRates
}

func (t SegmentType) String() string {
	switch t {
	case SPKChebyshevPosition:
		return "SPK2 Chebyshev position"
	case SPKChebyshevState:
		return "SPK3 Chebyshev state"
	case SPKLagrangeEqual:
		return "SPK8 Lagrange equal step"
	case SPKLagrangeUnequal:
		return "SPK9 Lagrange unequal step"
	case SPKHermiteEqual:
		return "SPK12 Hermite equal step"
	case SPKHermiteUnequal:
		return "SPK13 Hermite unequal step"
	case PCKChebyshevAngles:
		return "PCK2 Chebyshev angles"
	case PCKChebyshevAngleRates:
		return "PCK3 Chebyshev angles and rates"
	}
	return fmt.Sprintf("SegmentType(%d)", int(t))
}

// Segment describes one array of a kernel. For PCK segments Target is the
// body-fixed frame and Center and Frame both hold the reference frame.
type Segment struct {
	Name   string
	Target int
	Center int
	Frame  int
	Type   SegmentType

	// StartET and EndET are the bounds as stored; Start and End are the
	// same instants at nanosecond resolution.
	StartET, EndET float64
	Start, End     timescale.Epoch

	StartAddr, EndAddr int

	Kernel KernelID
	Index  int // position in file order
}

// Key returns the index key of the segment.
func (s Segment) Key() Key {
	return Key{Target: s.Target, Center: s.Center}
}

// Len returns the number of words in the segment's array.
func (s Segment) Len() int {
	return s.EndAddr - s.StartAddr + 1
}

// Covers reports whether ep lies in the closed interval [Start, End].
func (s Segment) Covers(ep timescale.Epoch) bool {
	return !ep.Before(s.Start) && !ep.After(s.End)
}

// Key is the lookup key: (target, center) for SPK, (frame, reference) for
// PCK.
type Key struct {
	Target, Center int
}

func (k Key) String() string {
	return fmt.Sprintf("%d wrt %d", k.Target, k.Center)
}
