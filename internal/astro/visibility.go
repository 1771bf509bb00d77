package astro

import (
	"errors"
	"math"
)

// ErrInsufficientSamples is returned when too few samples are given to
// bracket a horizon crossing.
var ErrInsufficientSamples = errors.New("insufficient samples for visibility calculation")

// ElevationSample is the elevation of a target at one epoch.
type ElevationSample struct {
	ET    float64 // TDB seconds past J2000
	ElDeg float64
}

// Pass is one interval during which a target stays above the minimum
// elevation. Rise or Set is unknown when the pass is already in progress
// at the first sample or still in progress at the last one.
type Pass struct {
	Rise      float64 `json:"rise_et"`
	Transit   float64 `json:"transit_et"`
	Set       float64 `json:"set_et"`
	MaxElDeg  float64 `json:"max_elevation_deg"`
	RiseKnown bool    `json:"rise_known"`
	SetKnown  bool    `json:"set_known"`
}

// Duration returns Set - Rise in seconds.
func (p Pass) Duration() float64 {
	return p.Set - p.Rise
}

// FindPasses scans chronologically ordered samples for intervals above
// minElDeg. Crossings are interpolated linearly and the peak is refined
// with a parabola through the three samples around the discrete maximum.
func FindPasses(samples []ElevationSample, minElDeg float64) ([]Pass, error) {
	if len(samples) < 3 {
		return nil, ErrInsufficientSamples
	}

	var passes []Pass
	var cur *Pass
	peak := 0
	for i, s := range samples {
		up := s.ElDeg > minElDeg
		switch {
		case up && cur == nil:
			p := Pass{Rise: s.ET}
			if i > 0 {
				prev := samples[i-1]
				p.Rise = interpolateCrossing(prev, s, minElDeg)
				p.RiseKnown = true
			}
			passes = append(passes, p)
			cur = &passes[len(passes)-1]
			peak = i
		case up:
			if s.ElDeg > samples[peak].ElDeg {
				peak = i
			}
		case cur != nil:
			cur.Set = interpolateCrossing(samples[i-1], s, minElDeg)
			cur.SetKnown = true
			cur.Transit, cur.MaxElDeg = refinePeak(samples, peak)
			cur = nil
		}
	}
	if cur != nil {
		cur.Set = samples[len(samples)-1].ET
		cur.Transit, cur.MaxElDeg = refinePeak(samples, peak)
	}
	return passes, nil
}

// interpolateCrossing finds the epoch between a and b where the elevation
// crosses threshold.
func interpolateCrossing(a, b ElevationSample, threshold float64) float64 {
	d := b.ElDeg - a.ElDeg
	if math.Abs(d) < 1e-9 {
		return a.ET
	}
	frac := math.Max(0, math.Min(1, (threshold-a.ElDeg)/d))
	return a.ET + frac*(b.ET-a.ET)
}

// refinePeak fits y = a t² + b t + c through samples i-1, i, i+1 and
// returns the vertex when the parabola opens downward.
func refinePeak(samples []ElevationSample, i int) (float64, float64) {
	if i == 0 || i == len(samples)-1 {
		return samples[i].ET, samples[i].ElDeg
	}
	y0, y1, y2 := samples[i-1].ElDeg, samples[i].ElDeg, samples[i+1].ElDeg
	c := y1
	a := (y0+y2)/2 - c
	b := (y2 - y0) / 2
	if a >= 0 {
		return samples[i].ET, y1
	}
	t := math.Max(-1, math.Min(1, -b/(2*a)))

	// Samples need not be equally spaced; scale by the side the vertex falls on.
	dt := samples[i+1].ET - samples[i].ET
	if t < 0 {
		dt = samples[i].ET - samples[i-1].ET
	}
	return samples[i].ET + t*dt, a*t*t + b*t + c
}

// ElevationTier buckets an elevation for display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // below horizon
	ElevationLow                         // 0-15 degrees
	ElevationMedium                      // 15-45 degrees
	ElevationHigh                        // 45+ degrees
)

// ElevationTierOf returns the tier for an elevation in degrees.
func ElevationTierOf(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 15:
		return ElevationLow
	case elDeg < 45:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}

// SeparationTier buckets the angle between a target and the Sun.
type SeparationTier int

const (
	SeparationSafe    SeparationTier = iota // >= 20 degrees
	SeparationCaution                       // 10-20 degrees
	SeparationWarning                       // < 10 degrees
)

// SeparationTierOf returns the tier for a Sun separation in degrees.
func SeparationTierOf(sepDeg float64) SeparationTier {
	switch {
	case sepDeg < 10:
		return SeparationWarning
	case sepDeg < 20:
		return SeparationCaution
	default:
		return SeparationSafe
	}
}
