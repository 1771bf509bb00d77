package astro

import (
	"errors"
	"math"
)

// ErrDegenerateEllipsoid is returned for non-positive radii or flattening >= 1.
var ErrDegenerateEllipsoid = errors.New("degenerate ellipsoid")

// Ellipsoid is a body shape with a polar axis along +Z.
type Ellipsoid struct {
	SemiMajorKm float64 // largest equatorial radius
	SemiMinorKm float64 // smallest equatorial radius
	PolarKm     float64
}

// MeanEquatorialRadius returns the mean of the equatorial radii.
func (e Ellipsoid) MeanEquatorialRadius() float64 {
	return (e.SemiMajorKm + e.SemiMinorKm) / 2
}

// Flattening returns (a - c) / a using the mean equatorial radius.
func (e Ellipsoid) Flattening() float64 {
	a := e.MeanEquatorialRadius()
	if a == 0 {
		return 0
	}
	return (a - e.PolarKm) / a
}

// Geodetic holds planetodetic coordinates.
type Geodetic struct {
	LatDeg float64 `json:"lat_deg"` // planetodetic latitude, north positive
	LonDeg float64 `json:"lon_deg"` // east longitude in (-180, 180]
	AltKm  float64 `json:"alt_km"`  // height above the reference ellipsoid
}

// ToGeodetic converts a body-fixed position to planetodetic coordinates on
// an oblate spheroid of equatorial radius re and flattening f.
func ToGeodetic(p Vec3, re, f float64) (Geodetic, error) {
	if re <= 0 || f >= 1 {
		return Geodetic{}, ErrDegenerateEllipsoid
	}
	lon := math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)
	rp := re * (1 - f)
	e2 := 1 - (rp*rp)/(re*re)

	if rho == 0 {
		alt := math.Abs(p.Z) - rp
		lat := math.Pi / 2
		if p.Z < 0 {
			lat = -lat
		}
		return Geodetic{LatDeg: RadToDeg(lat), LonDeg: RadToDeg(lon), AltKm: alt}, nil
	}

	// Fixed-point on latitude; converges in a handful of steps for f < 0.1.
	lat := math.Atan2(p.Z, rho*(1-e2))
	var alt float64
	for i := 0; i < 16; i++ {
		sinLat := math.Sin(lat)
		n := re / math.Sqrt(1-e2*sinLat*sinLat)
		alt = rho/math.Cos(lat) - n
		next := math.Atan2(p.Z, rho*(1-e2*n/(n+alt)))
		if math.Abs(next-lat) < 1e-15 {
			lat = next
			break
		}
		lat = next
	}
	sinLat := math.Sin(lat)
	n := re / math.Sqrt(1-e2*sinLat*sinLat)
	if math.Abs(lat) < math.Pi/4 {
		alt = rho/math.Cos(lat) - n
	} else {
		alt = p.Z/sinLat - n*(1-e2)
	}
	return Geodetic{LatDeg: RadToDeg(lat), LonDeg: RadToDeg(lon), AltKm: alt}, nil
}

// FromGeodetic converts planetodetic coordinates to a body-fixed position.
func FromGeodetic(g Geodetic, re, f float64) (Vec3, error) {
	if re <= 0 || f >= 1 {
		return Vec3{}, ErrDegenerateEllipsoid
	}
	lat, lon := DegToRad(g.LatDeg), DegToRad(g.LonDeg)
	rp := re * (1 - f)
	e2 := 1 - (rp*rp)/(re*re)
	sinLat := math.Sin(lat)
	n := re / math.Sqrt(1-e2*sinLat*sinLat)
	return Vec3{
		X: (n + g.AltKm) * math.Cos(lat) * math.Cos(lon),
		Y: (n + g.AltKm) * math.Cos(lat) * math.Sin(lon),
		Z: (n*(1-e2) + g.AltKm) * sinLat,
	}, nil
}
