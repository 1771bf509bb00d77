package ephem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/timescale"
)

func TestParseSite(t *testing.T) {
	tests := []struct {
		in   string
		want Site
	}{
		{"goldstone", Sites["GOLDSTONE"]},
		{"MDSCC", Sites["MADRID"]},
		{"10.5, -20, 0.3", Site{Name: "10.5, -20, 0.3", Body: Earth, Geodetic: astro.Geodetic{LatDeg: 10.5, LonDeg: -20, AltKm: 0.3}}},
		{"10,20", Site{Name: "10,20", Body: Earth, Geodetic: astro.Geodetic{LatDeg: 10, LonDeg: 20}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSite(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"atlantis", "95,0", "1,2,3,4", "1,x"} {
		_, err := ParseSite(bad)
		assert.Error(t, err, bad)
	}
}

// overhead loads a point fixed in J2000 that sits altKm above site at ET 0.
func overhead(t *testing.T, site Site, altKm float64) *Almanac {
	t.Helper()
	a := newAlmanac(t)
	b, ok := a.Body(site.Body)
	require.True(t, ok)
	above := site.Geodetic
	above.AltKm += altKm
	fixed, err := astro.FromGeodetic(above, b.Shape.MeanEquatorialRadius(), b.Shape.Flattening())
	require.NoError(t, err)
	tr, err := a.Transform("IAU_EARTH", "J2000", timescale.FromET(0))
	require.NoError(t, err)

	sat := motion{-999, Earth, tr.Rotation.MulVec(fixed), astro.Vec3{}, -2 * day, 2 * day}
	_, err = a.LoadBytes("sat.bsp", spk(t, sat))
	require.NoError(t, err)
	return a
}

func TestAzElZenith(t *testing.T) {
	site := Sites["MADRID"]
	a := overhead(t, site, 1000)

	got, err := a.AzEl(-999, site, timescale.FromET(0), None)
	require.NoError(t, err)
	assert.Equal(t, "Madrid", got.Site)
	assert.InDelta(t, 90, got.ElDeg, 1e-4)
	assert.InDelta(t, 1000, got.RangeKm, 1e-6)
	// The Earth turns under the point, so it moves sideways only.
	assert.InDelta(t, 0, got.RangeRate, 1e-6)

	// An hour later the point has drifted west and down.
	later, err := a.AzEl(-999, site, timescale.FromET(3600), None)
	require.NoError(t, err)
	assert.Less(t, later.ElDeg, 45.0)
	assert.Greater(t, later.AzDeg, 180.0)
	assert.Greater(t, later.RangeKm, 1000.0)
}

func TestAzElErrors(t *testing.T) {
	a := overhead(t, Sites["CANBERRA"], 500)

	_, err := a.AzEl(-999, Site{Name: "nowhere", Body: -5}, timescale.FromET(0), None)
	assert.ErrorIs(t, err, ErrUnknownBody)
	assert.Contains(t, err.Error(), "azel")

	_, err = a.AzEl(-999, Sites["CANBERRA"], timescale.FromET(5*day), None)
	assert.Error(t, err)
}

func TestPasses(t *testing.T) {
	site := Sites["GOLDSTONE"]
	a := overhead(t, site, 1000)

	passes, err := a.Passes(-999, site, timescale.FromET(0), timescale.FromET(day), 5*time.Minute, 0, None)
	require.NoError(t, err)
	require.Len(t, passes, 2)

	first, second := passes[0], passes[1]
	assert.False(t, first.RiseKnown)
	assert.True(t, first.SetKnown)
	assert.InDelta(t, 0, first.Transit, 1)
	assert.Greater(t, first.MaxElDeg, 89.0)

	// The point comes back overhead one sidereal day later.
	assert.True(t, second.RiseKnown)
	assert.False(t, second.SetKnown)
	assert.InDelta(t, first.Set, 86164.1-second.Rise, 600)

	_, err = a.Passes(-999, site, timescale.FromET(0), timescale.FromET(day), 0, 0, None)
	assert.Error(t, err)
	_, err = a.Passes(-999, site, timescale.FromET(day), timescale.FromET(0), time.Minute, 0, None)
	assert.Error(t, err)
}

func TestSeparation(t *testing.T) {
	a := loaded(t, emb, earth, moon, mars)
	ep := timescale.FromET(0)

	got, err := a.Separation(Moon, MarsBarycenter, Earth, ep, None)
	require.NoError(t, err)
	m1, err := a.State(Moon, Earth, "J2000", ep, None)
	require.NoError(t, err)
	m2, err := a.State(MarsBarycenter, Earth, "J2000", ep, None)
	require.NoError(t, err)
	assert.InDelta(t, astro.RadToDeg(m1.Position.Sep(m2.Position)), got, 1e-12)

	self, err := a.Separation(Moon, Moon, Earth, ep, LT)
	require.NoError(t, err)
	assert.InDelta(t, 0, self, 1e-9)

	_, err = a.Separation(Moon, Jupiter, Earth, ep, None)
	assert.Error(t, err)
}
