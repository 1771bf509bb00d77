package frames

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// MaxDepth bounds the length of any frame chain.
const MaxDepth = 32

// OrientationSource evaluates kernel-backed frames. Orientation returns the
// reference frame of the segment covering ep and the rotation from that
// frame to the body-fixed frame with class id classID.
type OrientationSource interface {
	Orientation(classID int, ep timescale.Epoch) (reference ID, r, dr astro.Mat3, err error)
}

// Graph is an immutable set of frames. Methods returning a *Graph never
// modify the receiver.
type Graph struct {
	frames map[ID]*Frame
	names  map[string]ID
	source OrientationSource
}

var builtin = sync.OnceValue(func() *Graph {
	g := &Graph{frames: make(map[ID]*Frame), names: make(map[string]ID)}
	g.add(&Frame{ID: J2000, Name: "J2000", Center: 0, Kind: KindRoot})
	g.add(&Frame{ID: ECLIPJ2000, Name: "ECLIPJ2000", Center: 0, Kind: KindFixed, Parent: J2000,
		rotation: astro.EclipticMatrix()})

	iau := []struct {
		id     ID
		name   string
		center int
	}{
		{IAUSun, "IAU_SUN", 10},
		{IAUMercury, "IAU_MERCURY", 199},
		{IAUVenus, "IAU_VENUS", 299},
		{IAUEarth, "IAU_EARTH", 399},
		{IAUMars, "IAU_MARS", 499},
		{IAUJupiter, "IAU_JUPITER", 599},
		{IAUSaturn, "IAU_SATURN", 699},
		{IAUUranus, "IAU_URANUS", 799},
		{IAUNeptune, "IAU_NEPTUNE", 899},
		{IAUMoon, "IAU_MOON", 301},
	}
	for _, f := range iau {
		g.add(&Frame{ID: f.id, Name: f.name, Center: f.center, Kind: KindIAU, Parent: J2000, model: iauModels[f.id]})
	}

	g.add(&Frame{ID: ITRF93, Name: "ITRF93", Center: 399, Kind: KindKernel, Parent: J2000, ClassID: 3000})
	g.add(&Frame{ID: MoonPADE421, Name: "MOON_PA_DE421", Center: 301, Kind: KindKernel, Parent: J2000, ClassID: 31006})
	g.add(&Frame{ID: MoonPADE440, Name: "MOON_PA_DE440", Center: 301, Kind: KindKernel, Parent: J2000, ClassID: 31008})
	g.names["MOON_PA"] = MoonPADE440
	return g
})

// New returns the graph of built-in frames without kernel frame support.
func New() *Graph {
	return builtin()
}

func (g *Graph) add(f *Frame) {
	g.frames[f.ID] = f
	g.names[strings.ToUpper(f.Name)] = f.ID
}

func (g *Graph) clone() *Graph {
	return &Graph{frames: maps.Clone(g.frames), names: maps.Clone(g.names), source: g.source}
}

// WithSource returns a graph whose kernel frames are evaluated by src.
func (g *Graph) WithSource(src OrientationSource) *Graph {
	out := g.clone()
	out.source = src
	return out
}

// WithFixedFrame returns a graph with an extra frame related to parent by
// the constant rotation r (parent to frame).
func (g *Graph) WithFixedFrame(id ID, name string, parent ID, r astro.Mat3) (*Graph, error) {
	if _, ok := g.frames[parent]; !ok {
		return nil, fmt.Errorf("%w: parent %d of %s", ErrUnknownFrame, parent, name)
	}
	return g.with(&Frame{ID: id, Name: name, Kind: KindFixed, Parent: parent, rotation: r,
		Center: g.frames[parent].Center})
}

// WithKernelFrame returns a graph with an extra frame oriented by binary
// PCK segments of the given class id.
func (g *Graph) WithKernelFrame(id ID, name string, classID, center int) (*Graph, error) {
	return g.with(&Frame{ID: id, Name: name, Kind: KindKernel, Parent: J2000, ClassID: classID, Center: center})
}

func (g *Graph) with(f *Frame) (*Graph, error) {
	if _, ok := g.frames[f.ID]; ok {
		return nil, fmt.Errorf("frame %d already defined", int(f.ID))
	}
	if _, ok := g.names[strings.ToUpper(f.Name)]; ok {
		return nil, fmt.Errorf("frame name %q already defined", f.Name)
	}
	out := g.clone()
	out.add(f)
	return out, nil
}

// ByName resolves a frame name, case-insensitively.
func (g *Graph) ByName(name string) (ID, bool) {
	id, ok := g.names[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

// ByID returns the frame with the given code.
func (g *Graph) ByID(id ID) (Frame, bool) {
	f, ok := g.frames[id]
	if !ok {
		return Frame{}, false
	}
	return *f, true
}

// Frames returns every frame sorted by code.
func (g *Graph) Frames() []Frame {
	out := make([]Frame, 0, len(g.frames))
	for _, f := range g.frames {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Transform returns the transform from frame from to frame to at ep.
func (g *Graph) Transform(from, to ID, ep timescale.Epoch) (Transform, error) {
	fail := func(err error) (Transform, error) {
		return Transform{}, &GraphError{From: from, To: to, Epoch: ep, Err: err}
	}
	for _, id := range []ID{from, to} {
		if _, ok := g.frames[id]; !ok {
			return fail(fmt.Errorf("%w: %d", ErrUnknownFrame, int(id)))
		}
	}
	if from == to {
		return Identity(from, ep), nil
	}

	up, err := g.chain(from, ep)
	if err != nil {
		return fail(err)
	}
	down, err := g.chain(to, ep)
	if err != nil {
		return fail(err)
	}

	pos := make(map[ID]int, len(down))
	for i, l := range down {
		pos[l.frame] = i
	}
	for i, l := range up {
		j, ok := pos[l.frame]
		if !ok {
			continue
		}
		t := Identity(from, ep)
		for _, step := range up[:i] {
			t = t.Then(step.toParent)
		}
		back := Identity(to, ep)
		for _, step := range down[:j] {
			back = back.Then(step.toParent)
		}
		return t.Then(back.Inverse()), nil
	}
	return fail(fmt.Errorf("%w: %v and %v share no ancestor", ErrNoPath, from, to))
}

// Path returns the edges from id up to its root at ep.
func (g *Graph) Path(id ID, ep timescale.Epoch) ([]Edge, error) {
	links, err := g.chain(id, ep)
	if err != nil {
		return nil, err
	}
	var out []Edge
	for _, l := range links[:len(links)-1] {
		out = append(out, Edge{Child: l.frame, Parent: l.toParent.To, Kind: l.kind})
	}
	return out, nil
}

type link struct {
	frame    ID
	kind     Kind
	toParent Transform // unset for the last link
}

// chain walks from id to a root. The last element is the root itself.
func (g *Graph) chain(id ID, ep timescale.Epoch) ([]link, error) {
	var out []link
	for depth := 0; ; depth++ {
		if depth > MaxDepth {
			return nil, fmt.Errorf("%w: more than %d links above %v", ErrTooDeep, MaxDepth, out[0].frame)
		}
		f, ok := g.frames[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFrame, int(id))
		}
		if f.Kind == KindRoot {
			return append(out, link{frame: id, kind: KindRoot}), nil
		}
		parent, r, dr, err := g.edge(f, ep)
		if err != nil {
			return nil, err
		}
		// The edge maps parent to child; the chain needs child to parent.
		down := Transform{From: parent, To: id, Epoch: ep, Rotation: r, RotationRate: dr}
		out = append(out, link{frame: id, kind: f.Kind, toParent: down.Inverse()})
		id = parent
	}
}

// edge returns the parent of f at ep and the parent to f rotation.
func (g *Graph) edge(f *Frame, ep timescale.Epoch) (ID, astro.Mat3, astro.Mat3, error) {
	switch f.Kind {
	case KindFixed:
		return f.Parent, f.rotation, astro.Mat3{}, nil
	case KindIAU:
		r, dr := f.model.rotation(ep.ET())
		return f.Parent, r, dr, nil
	case KindKernel:
		if g.source == nil {
			return 0, astro.Mat3{}, astro.Mat3{}, fmt.Errorf("%w: %s needs orientation kernels", ErrNoPath, f.Name)
		}
		return g.source.Orientation(f.ClassID, ep)
	}
	return 0, astro.Mat3{}, astro.Mat3{}, fmt.Errorf("frame %s has no parent", f.Name)
}
