package frames

import (
	"math"

	"github.com/litescript/ls-ephem/internal/astro"
)

const (
	secondsPerDay     = 86400.0
	secondsPerCentury = 36525 * secondsPerDay
	deg               = math.Pi / 180
)

// iauModel is a body rotation model in the PCK text kernel form:
//
//	α = ra[0] + ra[1]·T + ra[2]·T² + Σ raNut[i]·sin θᵢ
//	δ = dec[0] + dec[1]·T + dec[2]·T² + Σ decNut[i]·cos θᵢ
//	W = pm[0] + pm[1]·d + pm[2]·d² + Σ pmNut[i]·sin θᵢ
//	θᵢ = angles[i][0] + angles[i][1]·T
//
// with d days and T Julian centuries past J2000 TDB, all in degrees.
type iauModel struct {
	ra, dec, pm          [3]float64
	raNut, decNut, pmNut []float64
	angles               [][2]float64
}

// rotation returns the J2000 to body-fixed rotation
// R = [W]₃ [90° - δ]₁ [90° + α]₃ and its derivative at et.
func (m *iauModel) rotation(et float64) (astro.Mat3, astro.Mat3) {
	d := et / secondsPerDay
	t := et / secondsPerCentury

	ra := m.ra[0] + m.ra[1]*t + m.ra[2]*t*t
	dec := m.dec[0] + m.dec[1]*t + m.dec[2]*t*t
	w := m.pm[0] + m.pm[1]*d + m.pm[2]*d*d

	// Rates in degrees per second.
	dra := (m.ra[1] + 2*m.ra[2]*t) / secondsPerCentury
	ddec := (m.dec[1] + 2*m.dec[2]*t) / secondsPerCentury
	dw := (m.pm[1] + 2*m.pm[2]*d) / secondsPerDay

	for i, a := range m.angles {
		theta := (a[0] + a[1]*t) * deg
		dtheta := a[1] * deg / secondsPerCentury
		s, c := math.Sincos(theta)
		if i < len(m.raNut) {
			ra += m.raNut[i] * s
			dra += m.raNut[i] * c * dtheta
		}
		if i < len(m.decNut) {
			dec += m.decNut[i] * c
			ddec -= m.decNut[i] * s * dtheta
		}
		if i < len(m.pmNut) {
			w += m.pmNut[i] * s
			dw += m.pmNut[i] * c * dtheta
		}
	}

	return astro.EulerToMat(
		[3]float64{w * deg, (90 - dec) * deg, (90 + ra) * deg},
		[3]float64{dw * deg, -ddec * deg, dra * deg},
		3, 1, 3)
}

// perDay converts a rate in degrees per day to degrees per century, the
// unit of the nutation-precession angle rates.
func perDay(v float64) float64 {
	return v * 36525
}

// IAU 2009 rotation elements as distributed in pck00010.
var iauModels = map[ID]*iauModel{
	IAUSun: {
		ra:  [3]float64{286.13},
		dec: [3]float64{63.87},
		pm:  [3]float64{84.176, 14.1844000},
	},
	IAUMercury: {
		ra:  [3]float64{281.0097, -0.0328},
		dec: [3]float64{61.4143, -0.0049},
		pm:  [3]float64{329.5469, 6.1385025},
	},
	IAUVenus: {
		ra:  [3]float64{272.76},
		dec: [3]float64{67.16},
		pm:  [3]float64{160.20, -1.4813688},
	},
	IAUEarth: {
		ra:  [3]float64{0, -0.641},
		dec: [3]float64{90, -0.557},
		pm:  [3]float64{190.147, 360.9856235},
	},
	IAUMars: {
		ra:  [3]float64{317.68143, -0.1061},
		dec: [3]float64{52.88650, -0.0609},
		pm:  [3]float64{176.630, 350.89198226},
	},
	IAUJupiter: {
		ra:  [3]float64{268.056595, -0.006499},
		dec: [3]float64{64.495303, 0.002413},
		pm:  [3]float64{284.95, 870.5360000},
	},
	IAUSaturn: {
		ra:  [3]float64{40.589, -0.036},
		dec: [3]float64{83.537, -0.004},
		pm:  [3]float64{38.90, 810.7939024},
	},
	IAUUranus: {
		ra:  [3]float64{257.311},
		dec: [3]float64{-15.175},
		pm:  [3]float64{203.81, -501.1600928},
	},
	IAUNeptune: {
		ra:     [3]float64{299.36},
		dec:    [3]float64{43.46},
		pm:     [3]float64{253.18, 536.3128492},
		raNut:  []float64{0.70},
		decNut: []float64{-0.51},
		pmNut:  []float64{-0.48},
		angles: [][2]float64{{357.85, 52.316}},
	},
	IAUMoon: {
		ra:     [3]float64{269.9949, 0.0031},
		dec:    [3]float64{66.5392, 0.0130},
		pm:     [3]float64{38.3213, 13.17635815, -1.4e-12},
		raNut:  []float64{-3.8787, -0.1204, 0.0700, -0.0172, 0, 0.0072, 0, 0, 0, -0.0052, 0, 0, 0.0043},
		decNut: []float64{1.5419, 0.0239, -0.0278, 0.0068, 0, -0.0029, 0.0009, 0, 0, 0.0008, 0, 0, -0.0009},
		pmNut:  []float64{3.5610, 0.1208, -0.0642, 0.0158, 0.0252, -0.0066, -0.0047, -0.0046, 0.0028, 0.0052, 0.0040, 0.0019, -0.0044},
		angles: [][2]float64{
			{125.045, perDay(-0.0529921)},
			{250.089, perDay(-0.1059842)},
			{260.008, perDay(13.0120009)},
			{176.625, perDay(13.3407154)},
			{357.529, perDay(0.9856003)},
			{311.589, perDay(26.4057084)},
			{134.963, perDay(13.0649930)},
			{276.617, perDay(0.3287146)},
			{34.226, perDay(1.7484877)},
			{15.134, perDay(-0.1589763)},
			{119.743, perDay(0.0036096)},
			{239.961, perDay(0.1643573)},
			{25.053, perDay(12.9590088)},
		},
	},
}
