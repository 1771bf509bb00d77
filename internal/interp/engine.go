// Package interp evaluates kernel segments: Chebyshev records, Lagrange and
// Hermite tables for trajectories, and Chebyshev Euler angles for
// orientation.
//
// Evaluation is pure given the segment and its backing bytes; the optional
// record cache only memoizes decoded words.
package interp

import (
	"fmt"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

// State is a Cartesian position (km) and velocity (km/s).
type State struct {
	Position astro.Vec3
	Velocity astro.Vec3
}

// Orientation holds the 3-1-3 Euler angles (φ, δ, w) of a body-fixed frame
// relative to its reference frame, in radians, and their rates in rad/s.
type Orientation struct {
	Angles [3]float64
	Rates  [3]float64
}

// Matrix returns the rotation from the reference frame to the body-fixed
// frame, R = [w]₃[δ]₁[φ]₃, and its time derivative.
func (o Orientation) Matrix() (astro.Mat3, astro.Mat3) {
	return astro.EulerToMat(
		[3]float64{o.Angles[2], o.Angles[1], o.Angles[0]},
		[3]float64{o.Rates[2], o.Rates[1], o.Rates[0]},
		3, 1, 3)
}

// Engine evaluates segments. The zero value works without a cache.
type Engine struct {
	cache *Cache
}

// NewEngine returns an engine using cache, which may be nil.
func NewEngine(cache *Cache) *Engine {
	return &Engine{cache: cache}
}

// Evaluate returns the state of seg's target relative to its center, in the
// segment's frame, at et seconds past J2000 TDB.
func (e *Engine) Evaluate(f *daf.File, seg catalog.Segment, et float64) (State, error) {
	var out [6]float64
	var err error
	switch seg.Type {
	case catalog.SPKChebyshevPosition:
		out, err = e.chebyshev(f, seg, et, false)
	case catalog.SPKChebyshevState:
		out, err = e.chebyshev(f, seg, et, true)
	case catalog.SPKLagrangeEqual, catalog.SPKLagrangeUnequal:
		out, err = e.lagrange(f, seg, et)
	case catalog.SPKHermiteEqual, catalog.SPKHermiteUnequal:
		out, err = e.hermite(f, seg, et)
	case catalog.PCKChebyshevAngles, catalog.PCKChebyshevAngleRates:
		err = fmt.Errorf("%w: orientation segment evaluated as a state", catalog.ErrUnsupportedSegmentType)
	default:
		err = catalog.ErrUnsupportedSegmentType
	}
	if err != nil {
		return State{}, interpErr(seg, et, err)
	}
	return State{
		Position: astro.Vec3{X: out[0], Y: out[1], Z: out[2]},
		Velocity: astro.Vec3{X: out[3], Y: out[4], Z: out[5]},
	}, nil
}

// Orientation returns the Euler angles and rates of an orientation segment
// at et.
func (e *Engine) Orientation(f *daf.File, seg catalog.Segment, et float64) (Orientation, error) {
	var out [6]float64
	var err error
	switch seg.Type {
	case catalog.PCKChebyshevAngles:
		out, err = e.chebyshev(f, seg, et, false)
	case catalog.PCKChebyshevAngleRates:
		out, err = e.chebyshev(f, seg, et, true)
	default:
		err = fmt.Errorf("%w: state segment evaluated as an orientation", catalog.ErrUnsupportedSegmentType)
	}
	if err != nil {
		return Orientation{}, interpErr(seg, et, err)
	}
	return Orientation{
		Angles: [3]float64{out[0], out[1], out[2]},
		Rates:  [3]float64{out[3], out[4], out[5]},
	}, nil
}

// words reads count words at the 1-based address addr, through the cache
// when one is configured. kind and slot identify the block within the
// segment.
func (e *Engine) words(f *daf.File, seg catalog.Segment, kind blockKind, slot, addr, count int) ([]float64, error) {
	if e == nil || e.cache == nil {
		return f.DoubleArray(addr, count)
	}
	k := recordKey{kernel: seg.Kernel, segment: seg.Index, kind: kind, slot: slot}
	if rec, ok := e.cache.get(k); ok && len(rec) == count {
		return rec, nil
	}
	rec, err := f.DoubleArray(addr, count)
	if err != nil {
		return nil, err
	}
	e.cache.add(k, rec)
	return rec, nil
}

// trailer returns the last four words of a segment.
func trailer(f *daf.File, seg catalog.Segment) ([4]float64, error) {
	var t [4]float64
	if seg.Len() < 4 {
		return t, fmt.Errorf("%w: segment of %d words", ErrDegenerate, seg.Len())
	}
	err := f.ReadDoubles(seg.EndAddr-3, t[:])
	return t, err
}
