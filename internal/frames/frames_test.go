package frames

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/timescale"
)

var epochs = []timescale.Epoch{
	timescale.J2000,
	timescale.FromET(-3.1e9),
	timescale.FromET(7.5e8 + 0.25),
}

func TestSameFrameIsIdentity(t *testing.T) {
	g := New()
	for _, f := range g.Frames() {
		for _, ep := range epochs {
			tr, err := g.Transform(f.ID, f.ID, ep)
			require.NoError(t, err, f.Name)
			assert.Equal(t, astro.Identity(), tr.Rotation)
			assert.Equal(t, astro.Mat3{}, tr.RotationRate)
			assert.Equal(t, astro.Vec3{}, tr.Translation)
		}
	}
}

func TestInverseConsistency(t *testing.T) {
	g := New()
	ids := []ID{J2000, ECLIPJ2000, IAUSun, IAUEarth, IAUMoon, IAUMars, IAUNeptune, IAUJupiter}
	for _, a := range ids {
		for _, b := range ids {
			for _, ep := range epochs {
				ab, err := g.Transform(a, b, ep)
				require.NoError(t, err)
				ba, err := g.Transform(b, a, ep)
				require.NoError(t, err)

				round := ab.Then(ba)
				assert.Less(t, round.Rotation.MaxAbsDiff(astro.Identity()), 1e-14, "%v->%v", a, b)
				assert.Less(t, round.RotationRate.MaxAbsDiff(astro.Mat3{}), 1e-17, "%v->%v", a, b)
				assert.True(t, ab.Rotation.IsRotation(1e-13))
			}
		}
	}
}

func TestEcliptic(t *testing.T) {
	tr, err := New().Transform(J2000, ECLIPJ2000, timescale.J2000)
	require.NoError(t, err)
	assert.Less(t, tr.Rotation.MaxAbsDiff(astro.EclipticMatrix()), 1e-16)
}

func TestIAUPoles(t *testing.T) {
	tests := []struct {
		frame   ID
		raDeg   float64
		decDeg  float64
		rateDeg float64 // degrees per day
	}{
		{IAUEarth, 0, 90, 360.9856235},
		{IAUMars, 317.68143, 52.88650, 350.89198226},
		{IAUSun, 286.13, 63.87, 14.1844},
		{IAUVenus, 272.76, 67.16, -1.4813688},
	}
	g := New()
	for _, tt := range tests {
		t.Run(tt.frame.String(), func(t *testing.T) {
			tr, err := g.Transform(J2000, tt.frame, timescale.J2000)
			require.NoError(t, err)

			ra, dec := tt.raDeg*deg, tt.decDeg*deg
			pole := astro.Vec3{X: math.Cos(dec) * math.Cos(ra), Y: math.Cos(dec) * math.Sin(ra), Z: math.Sin(dec)}
			body := tr.Rotation.MulVec(pole)
			assert.InDelta(t, 1, body.Z, 1e-12)

			w := tr.AngularVelocity()
			assert.InDelta(t, math.Abs(tt.rateDeg)*deg/secondsPerDay, w.Norm(), 1e-10)
		})
	}
}

func TestRotationRateMatchesNumeric(t *testing.T) {
	const h = 1.0
	g := New()
	for _, id := range []ID{IAUMoon, IAUNeptune, IAUEarth} {
		ep := timescale.FromET(4e8)
		tr, err := g.Transform(ECLIPJ2000, id, ep)
		require.NoError(t, err)
		before, err := g.Transform(ECLIPJ2000, id, ep.AddSeconds(-h))
		require.NoError(t, err)
		after, err := g.Transform(ECLIPJ2000, id, ep.AddSeconds(h))
		require.NoError(t, err)

		numeric := after.Rotation.Add(before.Rotation.Scale(-1)).Scale(1 / (2 * h))
		assert.Less(t, numeric.MaxAbsDiff(tr.RotationRate), 1e-12, id.String())
	}
}

func TestQuaternion(t *testing.T) {
	tr, err := New().Transform(J2000, IAUMoon, timescale.FromET(1e8))
	require.NoError(t, err)
	q := tr.Quaternion()
	assert.InDelta(t, 1, q.Norm(), 1e-15)
	assert.Less(t, q.Mat3().MaxAbsDiff(tr.Rotation), 1e-14)
}

type fakeSource struct {
	reference ID
	angle     float64
	err       error
}

func (s fakeSource) Orientation(classID int, ep timescale.Epoch) (ID, astro.Mat3, astro.Mat3, error) {
	if s.err != nil {
		return 0, astro.Mat3{}, astro.Mat3{}, s.err
	}
	return s.reference, astro.RotZ(s.angle), astro.Mat3{}, nil
}

func TestKernelFrames(t *testing.T) {
	g := New()
	_, err := g.Transform(J2000, ITRF93, timescale.J2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPath)

	withKernel := g.WithSource(fakeSource{reference: ECLIPJ2000, angle: 0.5})
	tr, err := withKernel.Transform(J2000, ITRF93, timescale.J2000)
	require.NoError(t, err)
	want := astro.RotZ(0.5).Mul(astro.EclipticMatrix())
	assert.Less(t, tr.Rotation.MaxAbsDiff(want), 1e-15)

	path, err := withKernel.Path(ITRF93, timescale.J2000)
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Child: ITRF93, Parent: ECLIPJ2000, Kind: KindKernel},
		{Child: ECLIPJ2000, Parent: J2000, Kind: KindFixed},
	}, path)

	// The receiver is unchanged.
	_, err = g.Transform(J2000, ITRF93, timescale.J2000)
	assert.ErrorIs(t, err, ErrNoPath)

	lookupFailed := errors.New("no orientation data")
	broken := g.WithSource(fakeSource{err: lookupFailed})
	_, err = broken.Transform(ITRF93, IAUEarth, timescale.J2000)
	assert.ErrorIs(t, err, lookupFailed)
}

func TestGraphErrors(t *testing.T) {
	g := New()
	_, err := g.Transform(J2000, 999999, timescale.J2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFrame)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ID(999999), ge.To)

	deep := g
	parent := J2000
	for i := 0; i < MaxDepth+2; i++ {
		id := ID(1_000_000 + i)
		deep, err = deep.WithFixedFrame(id, "CHAIN_"+string(rune('A'+i)), parent, astro.RotX(0.01))
		require.NoError(t, err)
		parent = id
	}
	_, err = deep.Transform(parent, J2000, timescale.J2000)
	assert.ErrorIs(t, err, ErrTooDeep)

	island := g.clone()
	island.add(&Frame{ID: 5000, Name: "ISLAND", Kind: KindRoot})
	_, err = island.Transform(5000, IAUEarth, timescale.J2000)
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = g.WithFixedFrame(J2000, "DUP", J2000, astro.Identity())
	assert.Error(t, err)
	_, err = g.WithFixedFrame(2000000, "ORPHAN", 42, astro.Identity())
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestNames(t *testing.T) {
	g := New()
	id, ok := g.ByName("iau_earth")
	require.True(t, ok)
	assert.Equal(t, IAUEarth, id)

	id, ok = g.ByName("MOON_PA")
	require.True(t, ok)
	assert.Equal(t, MoonPADE440, id)

	f, ok := g.ByID(ITRF93)
	require.True(t, ok)
	assert.Equal(t, 3000, f.ClassID)
	assert.Equal(t, KindKernel, f.Kind)

	_, ok = g.ByName("NOT_A_FRAME")
	assert.False(t, ok)
	assert.Equal(t, "frame 42", ID(42).String())
}

func TestBodyGeodetic(t *testing.T) {
	earth, ok := BodyConstants(399)
	require.True(t, ok)
	g, err := earth.Geodetic(astro.Vec3{X: 6378.1366 + 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, g.LatDeg, 1e-12)
	assert.InDelta(t, 1, g.AltKm, 1e-9)

	merged := Bodies(map[int]Body{399: {GM: 398600.4418}, 2000001: {ID: 2000001, Name: "CERES", GM: 62.6}})
	assert.Equal(t, 398600.4418, merged[399].GM)
	assert.Equal(t, earth.Shape, merged[399].Shape)
	assert.Equal(t, "CERES", merged[2000001].Name)
}
