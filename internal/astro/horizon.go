package astro

import "math"

// Horizontal holds topocentric coordinates of a target seen from a site.
type Horizontal struct {
	AzDeg   float64 `json:"az_deg"` // 0 = north, 90 = east
	ElDeg   float64 `json:"el_deg"` // 0 = horizon, 90 = zenith
	RangeKm float64 `json:"range_km"`
}

// ENU returns the rotation from a body-fixed frame to the local
// east-north-up frame at the given planetodetic site.
func ENU(site Geodetic) Mat3 {
	sLat, cLat := math.Sincos(DegToRad(site.LatDeg))
	sLon, cLon := math.Sincos(DegToRad(site.LonDeg))
	return Mat3{
		{-sLon, cLon, 0},
		{-sLat * cLon, -sLat * sLon, cLat},
		{cLat * cLon, cLat * sLon, sLat},
	}
}

// ToHorizontal converts a site-relative body-fixed vector to azimuth,
// elevation and range. The local vertical is the ellipsoid normal.
func ToHorizontal(rel Vec3, site Geodetic) Horizontal {
	r := rel.Norm()
	if r == 0 {
		return Horizontal{}
	}
	enu := ENU(site).MulVec(rel)
	az := RadToDeg(math.Atan2(enu.X, enu.Y))
	if az < 0 {
		az += 360
	}
	el := math.Asin(math.Max(-1, math.Min(1, enu.Z/r)))
	return Horizontal{AzDeg: az, ElDeg: RadToDeg(el), RangeKm: r}
}
