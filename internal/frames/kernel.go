package frames

import (
	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// stackSource evaluates kernel frames from binary PCK catalogs, whose keys
// are (frame class id, reference frame).
type stackSource struct {
	stack  *catalog.Stack
	engine *interp.Engine
}

// WithKernelFrames returns a graph whose kernel frames resolve against the
// orientation catalogs of stack.
func (g *Graph) WithKernelFrames(stack *catalog.Stack, engine *interp.Engine) *Graph {
	return g.WithSource(stackSource{stack: stack, engine: engine})
}

func (s stackSource) Orientation(classID int, ep timescale.Epoch) (ID, astro.Mat3, astro.Mat3, error) {
	m, err := s.stack.LookupAny(classID, ep)
	if err != nil {
		return 0, astro.Mat3{}, astro.Mat3{}, err
	}
	o, err := s.engine.Orientation(m.File, m.Segment, ep.ET())
	if err != nil {
		return 0, astro.Mat3{}, astro.Mat3{}, err
	}
	r, dr := o.Matrix()
	return ID(m.Center), r, dr, nil
}
