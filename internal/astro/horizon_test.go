package astro

import (
	"math"
	"testing"
)

func TestENUIsRotation(t *testing.T) {
	for _, g := range []Geodetic{{}, {LatDeg: 35.4, LonDeg: -116.9}, {LatDeg: -89, LonDeg: 170}} {
		if m := ENU(g); !m.IsRotation(1e-12) {
			t.Errorf("ENU(%+v) is not a rotation: %v", g, m)
		}
	}
}

func TestToHorizontal(t *testing.T) {
	equator := Geodetic{}
	tests := []struct {
		name   string
		site   Geodetic
		rel    Vec3
		az, el float64
	}{
		{"north on horizon", equator, Vec3{Z: 10}, 0, 0},
		{"east on horizon", equator, Vec3{Y: 10}, 90, 0},
		{"west on horizon", equator, Vec3{Y: -10}, 270, 0},
		{"zenith", equator, Vec3{X: 10}, 0, 90},
		{"south below", Geodetic{LatDeg: 45}, Vec3{X: 1, Z: -1}, 180, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ToHorizontal(tt.rel, tt.site)
			if tt.el != 90 && math.Abs(h.AzDeg-tt.az) > 1e-9 {
				t.Errorf("az = %v, want %v", h.AzDeg, tt.az)
			}
			if math.Abs(h.ElDeg-tt.el) > 1e-9 {
				t.Errorf("el = %v, want %v", h.ElDeg, tt.el)
			}
			if math.Abs(h.RangeKm-tt.rel.Norm()) > 1e-12 {
				t.Errorf("range = %v, want %v", h.RangeKm, tt.rel.Norm())
			}
		})
	}

	if h := ToHorizontal(Vec3{}, equator); h != (Horizontal{}) {
		t.Errorf("zero vector: %+v", h)
	}
}

func TestToHorizontalFromSurface(t *testing.T) {
	const re, f = 6378.1366, (6378.1366 - 6356.7519) / 6378.1366
	site := Geodetic{LatDeg: 40.4314, LonDeg: -4.2481, AltKm: 0.83}
	p, err := FromGeodetic(site, re, f)
	if err != nil {
		t.Fatal(err)
	}
	above, err := FromGeodetic(Geodetic{LatDeg: site.LatDeg, LonDeg: site.LonDeg, AltKm: 500}, re, f)
	if err != nil {
		t.Fatal(err)
	}
	h := ToHorizontal(above.Sub(p), site)
	if math.Abs(h.ElDeg-90) > 1e-5 {
		t.Errorf("el = %v, want 90", h.ElDeg)
	}
	if math.Abs(h.RangeKm-499.17) > 1e-9 {
		t.Errorf("range = %v", h.RangeKm)
	}
}
