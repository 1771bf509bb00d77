package ephem

import (
	"fmt"
	"math"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// maxChain bounds the number of segments chained from a body to its root.
const maxChain = 32

// resolver evaluates geometric states against one snapshot.
type resolver struct {
	snap   *state.Snapshot
	engine *interp.Engine
}

// path is a body's center chain at one epoch. nodes[0] is the body itself
// and rel[i] is its state relative to nodes[i], in J2000.
type path struct {
	nodes []int
	rel   []interp.State
	stop  error // why the walk ended before the barycenter, if it did
}

// walk follows center links from body toward the solar system barycenter.
func (r resolver) walk(body int, ep timescale.Epoch) (path, error) {
	p := path{nodes: []int{body}, rel: []interp.State{{}}}
	seen := map[int]bool{body: true}
	for cur := body; cur != SSB; {
		if len(p.nodes) > maxChain {
			return p, fmt.Errorf("center chain of %s longer than %d", Name(body), maxChain)
		}
		m, err := r.snap.SPK.LookupAny(cur, ep)
		if err != nil {
			p.stop = err
			return p, nil
		}
		if seen[m.Center] {
			return p, fmt.Errorf("center chain of %s loops at %s", Name(body), Name(m.Center))
		}
		st, err := r.evaluate(m, ep)
		if err != nil {
			return p, err
		}
		last := p.rel[len(p.rel)-1]
		p.nodes = append(p.nodes, m.Center)
		p.rel = append(p.rel, interp.State{
			Position: last.Position.Add(st.Position),
			Velocity: last.Velocity.Add(st.Velocity),
		})
		seen[m.Center] = true
		cur = m.Center
	}
	return p, nil
}

// evaluate returns a segment's state rotated into J2000.
func (r resolver) evaluate(m catalog.Match, ep timescale.Epoch) (interp.State, error) {
	st, err := r.engine.Evaluate(m.File, m.Segment, ep.ET())
	if err != nil {
		return interp.State{}, err
	}
	if frames.ID(m.Frame) == frames.J2000 {
		return st, nil
	}
	t, err := r.snap.Graph.Transform(frames.ID(m.Frame), frames.J2000, ep)
	if err != nil {
		return interp.State{}, err
	}
	st.Position, st.Velocity = t.Apply(st.Position, st.Velocity)
	return st, nil
}

// geometric returns the state of target relative to observer in J2000,
// joining the two center chains at their lowest common node.
func (r resolver) geometric(target, observer int, ep timescale.Epoch) (interp.State, error) {
	if target == observer {
		return interp.State{}, nil
	}
	tp, err := r.walk(target, ep)
	if err != nil {
		return interp.State{}, err
	}
	op, err := r.walk(observer, ep)
	if err != nil {
		return interp.State{}, err
	}

	at := make(map[int]int, len(op.nodes))
	for j, n := range op.nodes {
		at[n] = j
	}
	for i, n := range tp.nodes {
		if j, ok := at[n]; ok {
			return interp.State{
				Position: tp.rel[i].Position.Sub(op.rel[j].Position),
				Velocity: tp.rel[i].Velocity.Sub(op.rel[j].Velocity),
			}, nil
		}
	}
	switch {
	case tp.stop != nil:
		return interp.State{}, tp.stop
	case op.stop != nil:
		return interp.State{}, op.stop
	}
	return interp.State{}, &catalog.LookupError{Target: target, Center: observer, Epoch: ep, Err: catalog.ErrNoCoverage}
}

// barycentric returns the state of body relative to the solar system
// barycenter in J2000.
func (r resolver) barycentric(body int, ep timescale.Epoch) (interp.State, error) {
	p, err := r.walk(body, ep)
	if err != nil {
		return interp.State{}, err
	}
	if last := len(p.nodes) - 1; p.nodes[last] == SSB {
		return p.rel[last], nil
	}
	return interp.State{}, p.stop
}

// corrected returns the apparent state of target seen from observer,
// corrected as ab requests, in J2000, and the one-way light time.
func (r resolver) corrected(target, observer int, ep timescale.Epoch, ab Aberration, maxIter int) (interp.State, float64, error) {
	if !ab.LightTime() {
		st, err := r.geometric(target, observer, ep)
		return st, 0, err
	}

	obs, err := r.barycentric(observer, ep)
	if err != nil {
		return interp.State{}, 0, err
	}
	tgt, err := r.barycentric(target, ep)
	if err != nil {
		return interp.State{}, 0, err
	}

	sign := -1.0
	if ab.Transmission() {
		sign = 1
	}
	rel := tgt.Position.Sub(obs.Position)
	lt := rel.Norm() / astro.C

	passes, converged := 1, true
	if ab.Converged() {
		passes, converged = maxIter, false
	}
	for i := 0; i < passes; i++ {
		tgt, err = r.barycentric(target, ep.AddSeconds(sign*lt))
		if err != nil {
			return interp.State{}, 0, err
		}
		rel = tgt.Position.Sub(obs.Position)
		next := rel.Norm() / astro.C
		delta := next - lt
		lt = next
		if ab.Converged() && math.Abs(delta) <= ltRelTol*lt+ltAbsTol {
			converged = true
			break
		}
	}
	if !converged {
		return interp.State{}, 0, fmt.Errorf("%w after %d iterations", ErrAberrationDidNotConverge, maxIter)
	}

	// d(lt)/dt from lt = |r|/c with r = p_t(t + s·lt) - p_o(t).
	var vel astro.Vec3
	if d := rel.Norm(); d > 0 {
		u := rel.Scale(1 / d)
		dlt := u.Dot(tgt.Velocity.Sub(obs.Velocity)) / (astro.C - sign*u.Dot(tgt.Velocity))
		vel = tgt.Velocity.Scale(1 + sign*dlt).Sub(obs.Velocity)
	} else {
		vel = tgt.Velocity.Sub(obs.Velocity)
	}

	pos := rel
	if ab.Stellar() {
		if pos, err = stellar(rel, obs.Velocity, ab.Transmission()); err != nil {
			return interp.State{}, 0, err
		}
	}
	return interp.State{Position: pos, Velocity: vel}, lt, nil
}
