// Package frames resolves rotations between reference frames. Frames form
// a shallow tree rooted at J2000; a transform composes the chain from the
// source up to the lowest common ancestor with the inverse of the chain
// from the destination.
package frames

import (
	"fmt"

	"github.com/litescript/ls-ephem/internal/astro"
)

// ID is a NAIF frame code.
type ID int

// Built-in frame codes.
const (
	J2000      ID = 1
	ECLIPJ2000 ID = 17

	IAUSun     ID = 10010
	IAUMercury ID = 10011
	IAUVenus   ID = 10012
	IAUEarth   ID = 10013
	IAUMars    ID = 10014
	IAUJupiter ID = 10015
	IAUSaturn  ID = 10016
	IAUUranus  ID = 10017
	IAUNeptune ID = 10018
	IAUMoon    ID = 10020

	ITRF93      ID = 13000
	MoonPADE421 ID = 31006
	MoonPADE440 ID = 31008
)

// Kind classifies how a frame relates to its parent.
type Kind int

const (
	KindRoot   Kind = iota // inertial root
	KindFixed              // constant rotation from the parent
	KindIAU                // analytic IAU rotation model relative to J2000
	KindKernel             // binary PCK orientation segments
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindFixed:
		return "fixed"
	case KindIAU:
		return "IAU"
	case KindKernel:
		return "kernel"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Frame describes a node of the graph.
type Frame struct {
	ID     ID
	Name   string
	Center int // NAIF body at the frame origin
	Kind   Kind

	// Parent is fixed for root, fixed and IAU frames. Kernel frames take
	// their parent from the segment covering each epoch.
	Parent ID

	// ClassID is the PCK frame class id of a kernel frame.
	ClassID int

	rotation astro.Mat3 // parent to frame, fixed frames only
	model    *iauModel
}

// Edge is a resolved link from a frame to its parent at one epoch.
type Edge struct {
	Child, Parent ID
	Kind          Kind
}

func (id ID) String() string {
	if f, ok := builtin().frames[id]; ok {
		return f.Name
	}
	return fmt.Sprintf("frame %d", int(id))
}
