package frames

import (
	"fmt"

	"github.com/litescript/ls-ephem/internal/astro"
)

// Body holds the physical constants attached to a body-fixed frame.
type Body struct {
	ID    int
	Name  string
	GM    float64 // km³/s²
	Shape astro.Ellipsoid
	Frame ID // IAU body-fixed frame
}

// bodies carries GM values from DE440 and radii from pck00010.
var bodies = map[int]Body{
	10:  {10, "SUN", 132712440041.279419, astro.Ellipsoid{SemiMajorKm: 696000, SemiMinorKm: 696000, PolarKm: 696000}, IAUSun},
	199: {199, "MERCURY", 22031.868551, astro.Ellipsoid{SemiMajorKm: 2440.53, SemiMinorKm: 2440.53, PolarKm: 2438.26}, IAUMercury},
	299: {299, "VENUS", 324858.592, astro.Ellipsoid{SemiMajorKm: 6051.8, SemiMinorKm: 6051.8, PolarKm: 6051.8}, IAUVenus},
	399: {399, "EARTH", 398600.435507, astro.Ellipsoid{SemiMajorKm: 6378.1366, SemiMinorKm: 6378.1366, PolarKm: 6356.7519}, IAUEarth},
	301: {301, "MOON", 4902.800118, astro.Ellipsoid{SemiMajorKm: 1737.4, SemiMinorKm: 1737.4, PolarKm: 1737.4}, IAUMoon},
	499: {499, "MARS", 42828.375816, astro.Ellipsoid{SemiMajorKm: 3396.19, SemiMinorKm: 3396.19, PolarKm: 3376.20}, IAUMars},
	599: {599, "JUPITER", 126712764.1, astro.Ellipsoid{SemiMajorKm: 71492, SemiMinorKm: 71492, PolarKm: 66854}, IAUJupiter},
	699: {699, "SATURN", 37940584.8418, astro.Ellipsoid{SemiMajorKm: 60268, SemiMinorKm: 60268, PolarKm: 54364}, IAUSaturn},
	799: {799, "URANUS", 5794556.4, astro.Ellipsoid{SemiMajorKm: 25559, SemiMinorKm: 25559, PolarKm: 24973}, IAUUranus},
	899: {899, "NEPTUNE", 6836527.10058, astro.Ellipsoid{SemiMajorKm: 24764, SemiMinorKm: 24764, PolarKm: 24341}, IAUNeptune},
}

// BodyConstants returns the constants of a NAIF body.
func BodyConstants(id int) (Body, bool) {
	b, ok := bodies[id]
	return b, ok
}

// Bodies returns the bodies with known constants, with overrides applied
// on top of the built-in values.
func Bodies(overrides map[int]Body) map[int]Body {
	out := make(map[int]Body, len(bodies)+len(overrides))
	for id, b := range bodies {
		out[id] = b
	}
	for id, b := range overrides {
		base, ok := out[id]
		if !ok {
			out[id] = b
			continue
		}
		if b.GM != 0 {
			base.GM = b.GM
		}
		if b.Shape != (astro.Ellipsoid{}) {
			base.Shape = b.Shape
		}
		out[id] = base
	}
	return out
}

// Geodetic converts a position in the body's fixed frame to planetodetic
// coordinates on its reference ellipsoid.
func (b Body) Geodetic(pos astro.Vec3) (astro.Geodetic, error) {
	g, err := astro.ToGeodetic(pos, b.Shape.MeanEquatorialRadius(), b.Shape.Flattening())
	if err != nil {
		return astro.Geodetic{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	return g, nil
}
