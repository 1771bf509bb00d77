package metakernel

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/timescale"
)

const lsk = `KPL/LSK
\begindata
DELTET/DELTA_AT        = ( 10,   @1972-JAN-1
                           37,   @2017-JAN-1 )
\begintext
`

// writeSPK writes a one-segment kernel holding a body at rest.
func writeSPK(t *testing.T, path string, target, center int32) {
	t.Helper()
	fn := func(float64) []float64 { return []float64{1000, 2000, 3000, 0, 0, 0} }
	payload, err := interp.FitChebyshev(fn, 6, -86400, 86400, 1, 1)
	require.NoError(t, err)
	b := daf.NewBuilder(daf.KindSPK, binary.LittleEndian)
	require.NoError(t, b.AddArray("AT REST", []float64{-86400, 86400}, []int32{target, center, 1, 3}, payload))
	raw, err := b.Bytes()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mission.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
leapseconds = "lsk/naif.tls"
kernels = ["planets.bsp", "/abs/earth.bpc"]

[bodies.399]
mu_km3_s2 = 398600.435436
radii_km = [6378.1, 6378.1, 6356.8]

[bodies.-170]
name = "WEBB"
radii_km = [0.01]
`)
	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, m.Path)
	assert.Equal(t, filepath.Join(dir, "lsk", "naif.tls"), m.Leapseconds)
	assert.Equal(t, []string{filepath.Join(dir, "planets.bsp"), "/abs/earth.bpc"}, m.Kernels)
	assert.Equal(t, []int{-170, 399}, m.BodyIDs())

	bodies, err := m.BodyConstants()
	require.NoError(t, err)
	assert.InDelta(t, 398600.435436, bodies[399].GM, 1e-9)
	assert.Equal(t, 6356.8, bodies[399].Shape.PolarKm)
	assert.Equal(t, "EARTH", bodies[399].Name)
	assert.Equal(t, "WEBB", bodies[-170].Name)
	assert.Equal(t, 0.01, bodies[-170].Shape.SemiMajorKm)
}

func TestSites(t *testing.T) {
	m, err := Parse([]byte(`
kernels = ["a.bsp"]

[sites.dss14]
frame = "ITRF93"
lat_deg = 35.4259
lon_deg = -116.8895
alt_km = 1.002

[sites.rover]
body = 499
lat_deg = -4.5
lon_deg = 137.4
`))
	require.NoError(t, err)

	dss, ok := m.Site("dss14")
	require.True(t, ok)
	assert.Equal(t, ephem.Site{
		Name:     "dss14",
		Body:     ephem.Earth,
		Frame:    "ITRF93",
		Geodetic: astro.Geodetic{LatDeg: 35.4259, LonDeg: -116.8895, AltKm: 1.002},
	}, dss)

	rover, ok := m.Site("rover")
	require.True(t, ok)
	assert.Equal(t, 499, rover.Body)
	assert.Empty(t, rover.Frame)

	_, ok = m.Site("dss43")
	assert.False(t, ok)

	var none *Manifest
	_, ok = none.Site("dss14")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no kernels", `leapseconds = "x.tls"`},
		{"syntax", `kernels = [`},
		{"bad body key", "kernels = [\"a.bsp\"]\n[bodies.earth]\nmu_km3_s2 = 1\n"},
		{"negative gm", "kernels = [\"a.bsp\"]\n[bodies.399]\nmu_km3_s2 = -1\n"},
		{"two radii", "kernels = [\"a.bsp\"]\n[bodies.399]\nradii_km = [1, 2]\n"},
		{"site latitude", "kernels = [\"a.bsp\"]\n[sites.x]\nlat_deg = 91\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
	_, err := Parse([]byte(`leapseconds = "x.tls"`))
	assert.ErrorIs(t, err, ErrNoKernels)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naif.tls"), []byte(lsk), 0o644))
	writeSPK(t, filepath.Join(dir, "a.bsp"), ephem.EarthBarycenter, ephem.SSB)
	path := writeManifest(t, dir, `
leapseconds = "naif.tls"
kernels = ["a.bsp"]

[bodies.399]
mu_km3_s2 = 1.5
`)

	a, m, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Len(t, a.Kernels(), 1)
	assert.Len(t, a.LeapSeconds().Entries(), 2)
	earth, ok := a.Body(399)
	require.True(t, ok)
	assert.Equal(t, 1.5, earth.GM)
	assert.Greater(t, earth.Shape.SemiMajorKm, 6000.0, "radii kept from built-in constants")
	assert.Len(t, m.Kernels, 1)

	sv, err := a.State(ephem.EarthBarycenter, ephem.SSB, "J2000", timescale.J2000, ephem.None)
	require.NoError(t, err)
	assert.InDelta(t, 2000, sv.Position.Y, 1e-6)
}

func TestOpenMissingKernel(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `kernels = ["nope.bsp"]`)
	_, _, err := Open(context.Background(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
