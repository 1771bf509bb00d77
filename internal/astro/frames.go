package astro

import "math"

// ObliquityJ2000 is the IAU 1976 mean obliquity of the ecliptic at J2000
// (84381.448 arcseconds) in radians. It defines the ECLIPJ2000 frame.
const ObliquityJ2000 = 84381.448 / 3600 * math.Pi / 180

// EquatorialToEcliptic converts J2000 equatorial XYZ to ecliptic XYZ.
// Input is in any units (km, AU, etc); output is in the same units.
func EquatorialToEcliptic(eq Vec3) Vec3 {
	return EclipticMatrix().MulVec(eq)
}

// EclipticToEquatorial converts ecliptic XYZ to J2000 equatorial XYZ.
func EclipticToEquatorial(ecl Vec3) Vec3 {
	return EclipticMatrix().Transpose().MulVec(ecl)
}

// EclipticMatrix returns the rotation from J2000 to ECLIPJ2000.
func EclipticMatrix() Mat3 {
	return RotX(ObliquityJ2000)
}

// EclipticLatitude returns the ecliptic latitude in degrees for a vector.
func EclipticLatitude(v Vec3) float64 {
	r := v.Norm()
	if r == 0 {
		return 0
	}
	return RadToDeg(math.Asin(v.Z / r))
}

// EclipticLongitude returns the ecliptic longitude in degrees for a vector.
func EclipticLongitude(v Vec3) float64 {
	lon := RadToDeg(math.Atan2(v.Y, v.X))
	if lon < 0 {
		lon += 360
	}
	return lon
}

// RADec returns right ascension and declination in degrees for a vector
// expressed in an equatorial frame.
func RADec(v Vec3) (raDeg, decDeg float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}
	raDeg = RadToDeg(math.Atan2(v.Y, v.X))
	if raDeg < 0 {
		raDeg += 360
	}
	return raDeg, RadToDeg(math.Asin(v.Z / r))
}
