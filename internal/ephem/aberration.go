package ephem

import (
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-ephem/internal/astro"
)

// Aberration selects the observer-relative corrections applied to a state.
type Aberration int

const (
	None Aberration = iota // geometric
	LT                     // one-way light time, one pass
	LTS                    // LT plus stellar aberration
	CN                     // converged Newtonian light time
	CNS                    // CN plus stellar aberration
	XLT                    // transmission cases: the signal leaves the observer at the epoch
	XLTS
	XCN
	XCNS
)

var aberrationNames = [...]string{"NONE", "LT", "LT+S", "CN", "CN+S", "XLT", "XLT+S", "XCN", "XCN+S"}

func (a Aberration) String() string {
	if a < 0 || int(a) >= len(aberrationNames) {
		return fmt.Sprintf("Aberration(%d)", int(a))
	}
	return aberrationNames[a]
}

// ParseAberration parses a correction name such as "LT+S" or "xcn".
func ParseAberration(s string) (Aberration, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if key == "" {
		return None, nil
	}
	for i, name := range aberrationNames {
		if key == name {
			return Aberration(i), nil
		}
	}
	return None, fmt.Errorf("unknown aberration correction %q", s)
}

// LightTime reports whether the correction includes light time.
func (a Aberration) LightTime() bool {
	return a != None
}

// Converged reports whether light time is iterated to convergence.
func (a Aberration) Converged() bool {
	return a == CN || a == CNS || a == XCN || a == XCNS
}

// Stellar reports whether stellar aberration is applied.
func (a Aberration) Stellar() bool {
	return a == LTS || a == CNS || a == XLTS || a == XCNS
}

// Transmission reports whether the correction is for an outgoing signal.
func (a Aberration) Transmission() bool {
	return a >= XLT
}

// MarshalText implements encoding.TextMarshaler.
func (a Aberration) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Aberration) UnmarshalText(b []byte) error {
	v, err := ParseAberration(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Light-time convergence tolerances.
const (
	ltRelTol = 1e-12
	ltAbsTol = 1e-15 // seconds
)

// stellar applies first-order relativistic stellar aberration to the
// light-time corrected position p seen by an observer moving with velocity
// v relative to the solar system barycenter. For transmission the sign of
// the observer velocity flips.
func stellar(p, v astro.Vec3, transmit bool) (astro.Vec3, error) {
	if transmit {
		v = v.Neg()
	}
	vbyc := v.Scale(1 / astro.C)
	if vbyc.Dot(vbyc) >= 1 {
		return astro.Vec3{}, fmt.Errorf("observer speed %g km/s is not below c", v.Norm())
	}
	r := p.Norm()
	if r == 0 {
		return p, nil
	}
	u := p.Scale(1 / r)
	h := u.Cross(vbyc)
	sinphi := h.Norm()
	if sinphi == 0 {
		return p, nil
	}
	phi := math.Asin(sinphi)
	return u.Rotate(h.Normalized(), phi).Scale(r), nil
}
