package ephem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// StateVector is the state of a target relative to an observer.
type StateVector struct {
	Target     int             `json:"target"`
	Observer   int             `json:"observer"`
	Frame      string          `json:"frame"`
	Epoch      timescale.Epoch `json:"-"`
	ET         float64         `json:"et"`
	Aberration Aberration      `json:"aberration"`
	Position   astro.Vec3      `json:"position_km"`
	Velocity   astro.Vec3      `json:"velocity_km_s"`
	LightTime  float64         `json:"light_time_s"` // one-way; zero when uncorrected
}

// Range returns the distance in km.
func (s StateVector) Range() float64 {
	return s.Position.Norm()
}

// RangeRate returns the rate of change of the distance in km/s.
func (s StateVector) RangeRate() float64 {
	r := s.Position.Norm()
	if r == 0 {
		return 0
	}
	return s.Position.Dot(s.Velocity) / r
}

// Frame resolves a frame name or integer code in the current pool.
func (a *Almanac) Frame(name string) (frames.ID, error) {
	return resolveFrame(a.pool.Snapshot(), name)
}

func resolveFrame(snap *state.Snapshot, name string) (frames.ID, error) {
	if id, ok := snap.Graph.ByName(name); ok {
		return id, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		if _, ok := snap.Graph.ByID(frames.ID(n)); ok {
			return frames.ID(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", frames.ErrUnknownFrame, name)
}

// ResolveBody resolves a body name, alias or integer code.
func ResolveBody(s string) (int, error) {
	id, ok := TargetID(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, s)
	}
	return id, nil
}

// State returns the state of target relative to observer in frame at ep,
// with the requested aberration corrections.
func (a *Almanac) State(target, observer int, frame string, ep timescale.Epoch, ab Aberration) (StateVector, error) {
	snap := a.pool.Snapshot()
	sv, err := a.state(snap, target, observer, frame, ep, ab)
	a.metrics.ObserveQuery("state", err)
	if err != nil {
		return StateVector{}, &QueryError{Op: "state", Target: target, Observer: observer, Frame: frame, Epoch: ep, Err: err}
	}
	return sv, nil
}

func (a *Almanac) state(snap *state.Snapshot, target, observer int, frame string, ep timescale.Epoch, ab Aberration) (StateVector, error) {
	if snap.SPK.Len() == 0 {
		return StateVector{}, ErrNoKernels
	}
	fid, err := resolveFrame(snap, frame)
	if err != nil {
		return StateVector{}, err
	}

	r := resolver{snap: snap, engine: a.engine}
	st, lt, err := r.corrected(target, observer, ep, ab, a.opts.maxIterations)
	if err != nil {
		return StateVector{}, err
	}
	if fid != frames.J2000 {
		t, err := snap.Graph.Transform(frames.J2000, fid, ep)
		if err != nil {
			return StateVector{}, err
		}
		st.Position, st.Velocity = t.Apply(st.Position, st.Velocity)
	}

	name := frame
	if f, ok := snap.Graph.ByID(fid); ok {
		name = f.Name
	}
	return StateVector{
		Target:     target,
		Observer:   observer,
		Frame:      name,
		Epoch:      ep,
		ET:         ep.ET(),
		Aberration: ab,
		Position:   st.Position,
		Velocity:   st.Velocity,
		LightTime:  lt,
	}, nil
}

// Transform returns the transform from frame from to frame to at ep.
func (a *Almanac) Transform(from, to string, ep timescale.Epoch) (frames.Transform, error) {
	t, err := a.transform(a.pool.Snapshot(), from, to, ep)
	a.metrics.ObserveQuery("transform", err)
	if err != nil {
		return frames.Transform{}, &QueryError{Op: "transform", Frame: from + " -> " + to, Epoch: ep, Err: err}
	}
	return t, nil
}

func (a *Almanac) transform(snap *state.Snapshot, from, to string, ep timescale.Epoch) (frames.Transform, error) {
	f, err := resolveFrame(snap, from)
	if err != nil {
		return frames.Transform{}, err
	}
	t, err := resolveFrame(snap, to)
	if err != nil {
		return frames.Transform{}, err
	}
	return snap.Graph.Transform(f, t, ep)
}

// FramePath returns the edges from a frame up to its root at ep.
func (a *Almanac) FramePath(name string, ep timescale.Epoch) ([]frames.Edge, error) {
	snap := a.pool.Snapshot()
	id, err := resolveFrame(snap, name)
	if err != nil {
		return nil, &QueryError{Op: "frame path", Frame: name, Epoch: ep, Err: err}
	}
	edges, err := snap.Graph.Path(id, ep)
	if err != nil {
		return nil, &QueryError{Op: "frame path", Frame: name, Epoch: ep, Err: err}
	}
	return edges, nil
}

// Geodetic returns the planetodetic coordinates of target above body at
// ep, using the body's IAU frame and reference ellipsoid.
func (a *Almanac) Geodetic(target, body int, ep timescale.Epoch) (astro.Geodetic, error) {
	fail := func(err error) (astro.Geodetic, error) {
		return astro.Geodetic{}, &QueryError{Op: "geodetic", Target: target, Observer: body, Epoch: ep, Err: err}
	}
	b, ok := a.Body(body)
	if !ok {
		return fail(fmt.Errorf("%w: no constants for %s", ErrUnknownBody, Name(body)))
	}
	snap := a.pool.Snapshot()
	f, _ := snap.Graph.ByID(b.Frame)
	sv, err := a.state(snap, target, body, f.Name, ep, None)
	if err != nil {
		return fail(err)
	}
	g, err := b.Geodetic(sv.Position)
	if err != nil {
		return fail(err)
	}
	return g, nil
}
