package ephem

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// Site is a fixed location on the surface of a body.
type Site struct {
	Name  string `json:"name"`
	Body  int    `json:"body"`
	Frame string `json:"frame,omitempty"` // body-fixed frame; empty selects the body's IAU frame
	astro.Geodetic
}

// Sites holds the built-in ground stations, keyed by normalized name.
var Sites = map[string]Site{
	"GOLDSTONE": {Name: "Goldstone", Body: Earth, Geodetic: astro.Geodetic{LatDeg: 35.4267, LonDeg: -116.8900, AltKm: 1.0}},
	"CANBERRA":  {Name: "Canberra", Body: Earth, Geodetic: astro.Geodetic{LatDeg: -35.4014, LonDeg: 148.9817, AltKm: 0.69}},
	"MADRID":    {Name: "Madrid", Body: Earth, Geodetic: astro.Geodetic{LatDeg: 40.4314, LonDeg: -4.2481, AltKm: 0.83}},
}

func init() {
	Sites["GDSCC"] = Sites["GOLDSTONE"]
	Sites["CDSCC"] = Sites["CANBERRA"]
	Sites["MDSCC"] = Sites["MADRID"]
}

// ParseSite resolves a built-in site name or "lat,lon[,alt_km]" in
// degrees on the Earth.
func ParseSite(s string) (Site, error) {
	if site, ok := Sites[normalizeName(s)]; ok {
		return site, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Site{}, fmt.Errorf("site %q: want a station name or lat,lon[,alt_km]", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Site{}, fmt.Errorf("site %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] < -90 || v[0] > 90 {
		return Site{}, fmt.Errorf("site %q: latitude out of range", s)
	}
	return Site{
		Name:     strings.TrimSpace(s),
		Body:     Earth,
		Geodetic: astro.Geodetic{LatDeg: v[0], LonDeg: v[1], AltKm: v[2]},
	}, nil
}

// Topocentric is the apparent position of a target seen from a site.
// Aberration corrections are computed for the center of the site's body.
type Topocentric struct {
	Site   string          `json:"site"`
	Target int             `json:"target"`
	Epoch  timescale.Epoch `json:"-"`
	ET     float64         `json:"et"`
	astro.Horizontal
	RangeRate float64 `json:"range_rate_km_s"`
	LightTime float64 `json:"light_time_s"`
}

// AzEl returns the azimuth, elevation and range of target from site at ep.
func (a *Almanac) AzEl(target int, site Site, ep timescale.Epoch, ab Aberration) (Topocentric, error) {
	t, err := a.azel(a.pool.Snapshot(), target, site, ep, ab)
	a.metrics.ObserveQuery("azel", err)
	if err != nil {
		return Topocentric{}, &QueryError{Op: "azel", Target: target, Observer: site.Body, Frame: site.Frame, Epoch: ep, Err: err}
	}
	return t, nil
}

func (a *Almanac) azel(snap *state.Snapshot, target int, site Site, ep timescale.Epoch, ab Aberration) (Topocentric, error) {
	b, ok := a.Body(site.Body)
	if !ok {
		return Topocentric{}, fmt.Errorf("%w: no constants for %s", ErrUnknownBody, Name(site.Body))
	}
	frame := site.Frame
	if frame == "" {
		f, _ := snap.Graph.ByID(b.Frame)
		frame = f.Name
	}
	origin, err := astro.FromGeodetic(site.Geodetic, b.Shape.MeanEquatorialRadius(), b.Shape.Flattening())
	if err != nil {
		return Topocentric{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	sv, err := a.state(snap, target, site.Body, frame, ep, ab)
	if err != nil {
		return Topocentric{}, err
	}

	rel := sv.Position.Sub(origin)
	h := astro.ToHorizontal(rel, site.Geodetic)
	t := Topocentric{
		Site:       site.Name,
		Target:     target,
		Epoch:      ep,
		ET:         ep.ET(),
		Horizontal: h,
		LightTime:  sv.LightTime,
	}
	if h.RangeKm > 0 {
		t.RangeRate = rel.Dot(sv.Velocity) / h.RangeKm
	}
	return t, nil
}

// Passes samples the elevation of target from site every step between
// start and end and returns the intervals above minElDeg.
func (a *Almanac) Passes(target int, site Site, start, end timescale.Epoch, step time.Duration, minElDeg float64, ab Aberration) ([]astro.Pass, error) {
	fail := func(ep timescale.Epoch, err error) ([]astro.Pass, error) {
		a.metrics.ObserveQuery("passes", err)
		return nil, &QueryError{Op: "passes", Target: target, Observer: site.Body, Frame: site.Frame, Epoch: ep, Err: err}
	}
	if step <= 0 {
		return fail(start, fmt.Errorf("step %v must be positive", step))
	}
	if end.Before(start) {
		return fail(start, fmt.Errorf("end %v before start %v", end, start))
	}
	n := int(end.Sub(start)/step.Seconds()) + 1
	if n > maxPathPoints {
		return fail(start, fmt.Errorf("%d samples exceed the limit of %d", n, maxPathPoints))
	}

	snap := a.pool.Snapshot()
	samples := make([]astro.ElevationSample, 0, n)
	for ep := start; !ep.After(end); ep = ep.Add(step) {
		t, err := a.azel(snap, target, site, ep, ab)
		if err != nil {
			return fail(ep, err)
		}
		samples = append(samples, astro.ElevationSample{ET: t.ET, ElDeg: t.ElDeg})
	}
	passes, err := astro.FindPasses(samples, minElDeg)
	if err != nil {
		return fail(start, err)
	}
	a.metrics.ObserveQuery("passes", nil)
	return passes, nil
}

// Separation returns the angle in degrees between two targets as seen
// from observer at ep.
func (a *Almanac) Separation(t1, t2, observer int, ep timescale.Epoch, ab Aberration) (float64, error) {
	snap := a.pool.Snapshot()
	fail := func(target int, err error) (float64, error) {
		a.metrics.ObserveQuery("separation", err)
		return 0, &QueryError{Op: "separation", Target: target, Observer: observer, Epoch: ep, Err: err}
	}
	s1, err := a.state(snap, t1, observer, "J2000", ep, ab)
	if err != nil {
		return fail(t1, err)
	}
	s2, err := a.state(snap, t2, observer, "J2000", ep, ab)
	if err != nil {
		return fail(t2, err)
	}
	a.metrics.ObserveQuery("separation", nil)
	return astro.RadToDeg(s1.Position.Sep(s2.Position)), nil
}
