package interp

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

const (
	orbitRadius = 7000.0
	orbitRate   = 2 * math.Pi / 5400
)

// orbit is a smooth inclined circular trajectory.
func orbit(et float64) []float64 {
	c, s := math.Cos(orbitRate*et), math.Sin(orbitRate*et)
	r, w := orbitRadius, orbitRate
	return []float64{r * c, r * s, 0.1 * r * s, -r * w * s, r * w * c, 0.1 * r * w * c}
}

func orbitState(et float64) [6]float64 {
	var s [6]float64
	copy(s[:], orbit(et))
	return s
}

func segmentFor(t *testing.T, kind daf.Kind, code int32, start, end float64, payload []float64) (*daf.File, catalog.Segment) {
	t.Helper()
	b := daf.NewBuilder(kind, binary.LittleEndian)
	ic := []int32{399, 0, 1, code}
	if kind == daf.KindPCK {
		ic = []int32{3000, 1, code}
	}
	require.NoError(t, b.AddArray("TEST", []float64{start, end}, ic, payload))
	raw, err := b.Bytes()
	require.NoError(t, err)
	f, err := daf.Open(raw)
	require.NoError(t, err)
	c, err := catalog.Build(f, 1, catalog.Strict)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	return f, c.Segments()[0]
}

type fixture struct {
	name string
	f    *daf.File
	seg  catalog.Segment
	tol  float64 // velocity tolerance against a numeric derivative, km/s
}

func fixtures(t *testing.T) []fixture {
	t.Helper()
	const start, end = 0.0, 86400.0

	cheb2, err := FitChebyshev(orbit, 3, start, end, 64, 11)
	require.NoError(t, err)
	cheb3, err := FitChebyshev(orbit, 6, start, end, 64, 11)
	require.NoError(t, err)

	const step = 60.0
	n := int(end/step) + 1
	states := make([][6]float64, n)
	for i := range states {
		states[i] = orbitState(float64(i) * step)
	}

	epochs := make([]float64, n)
	jittered := make([][6]float64, n)
	for i := range epochs {
		epochs[i] = float64(i)*step + 10*math.Sin(float64(i))
		if i == 0 {
			epochs[i] = start
		}
		if i == n-1 {
			epochs[i] = end
		}
		jittered[i] = orbitState(epochs[i])
	}
	unequal9, err := EncodeUnequalStep(jittered, epochs, 7)
	require.NoError(t, err)
	unequal13, err := EncodeUnequalStep(jittered, epochs, 7)
	require.NoError(t, err)

	out := []fixture{
		{name: "type 2", tol: 1e-6},
		{name: "type 3", tol: 1e-6},
		{name: "type 8", tol: 1e-6},
		{name: "type 9", tol: 1e-6},
		{name: "type 12", tol: 1e-6},
		{name: "type 13", tol: 1e-6},
	}
	out[0].f, out[0].seg = segmentFor(t, daf.KindSPK, 2, start, end, cheb2)
	out[1].f, out[1].seg = segmentFor(t, daf.KindSPK, 3, start, end, cheb3)
	out[2].f, out[2].seg = segmentFor(t, daf.KindSPK, 8, start, end, EncodeEqualStep(states, start, step, 7))
	out[3].f, out[3].seg = segmentFor(t, daf.KindSPK, 9, start, end, unequal9)
	out[4].f, out[4].seg = segmentFor(t, daf.KindSPK, 12, start, end, EncodeEqualStep(states, start, step, 7))
	out[5].f, out[5].seg = segmentFor(t, daf.KindSPK, 13, start, end, unequal13)
	return out
}

func TestEvaluateMatchesTrajectory(t *testing.T) {
	var e Engine
	for _, fx := range fixtures(t) {
		t.Run(fx.name, func(t *testing.T) {
			for _, et := range []float64{0, 1234.5, 43210.987, 86399.9, 86400} {
				got, err := e.Evaluate(fx.f, fx.seg, et)
				require.NoError(t, err, "et=%v", et)
				assert.True(t, got.Position.IsFinite() && got.Velocity.IsFinite())

				want := orbit(et)
				assert.InDelta(t, want[0], got.Position.X, 1e-5, "x at %v", et)
				assert.InDelta(t, want[1], got.Position.Y, 1e-5, "y at %v", et)
				assert.InDelta(t, want[2], got.Position.Z, 1e-5, "z at %v", et)
				assert.InDelta(t, want[3], got.Velocity.X, 1e-7, "vx at %v", et)
			}
		})
	}
}

func TestVelocityIsPositionDerivative(t *testing.T) {
	const h = 0.01
	var e Engine
	for _, fx := range fixtures(t) {
		t.Run(fx.name, func(t *testing.T) {
			for _, et := range []float64{100, 20000.25, 54321, 86000} {
				got, err := e.Evaluate(fx.f, fx.seg, et)
				require.NoError(t, err)
				before, err := e.Evaluate(fx.f, fx.seg, et-h)
				require.NoError(t, err)
				after, err := e.Evaluate(fx.f, fx.seg, et+h)
				require.NoError(t, err)

				numeric := after.Position.Sub(before.Position).Scale(1 / (2 * h))
				assert.Less(t, numeric.Sub(got.Velocity).Norm(), fx.tol, "et=%v", et)
			}
		})
	}
}

func TestChebyshevMidpointDegreeFive(t *testing.T) {
	const e0, e1 = -43200.0, 43200.0
	coeffs := [][]float64{
		{1.5e8, 2.0e6, -3.0e4, 4.0e2, -5.0, 0.6},
		{-2.5e7, 1.0e6, 2.0e4, -3.0e2, 4.0, -0.5},
		{9.0e6, -4.0e5, 1.0e4, 2.0e2, -3.0, 0.4},
	}
	payload, err := EncodeChebyshev([]ChebyshevRecord{{Mid: 0, Radius: 43200, Coeffs: coeffs}}, e0, e1-e0)
	require.NoError(t, err)
	f, seg := segmentFor(t, daf.KindSPK, 2, e0, e1, payload)

	direct := func(cp []float64, s float64) float64 {
		var sum float64
		for k, c := range cp {
			sum += c * math.Cos(float64(k)*math.Acos(s))
		}
		return sum
	}

	var e Engine
	for _, et := range []float64{(e0 + e1) / 2, 12345, e0, e1} {
		got, err := e.Evaluate(f, seg, et)
		require.NoError(t, err)
		s := et / 43200
		want := astro.Vec3{X: direct(coeffs[0], s), Y: direct(coeffs[1], s), Z: direct(coeffs[2], s)}
		assert.Less(t, got.Position.Sub(want).Norm()/want.Norm(), 1e-9, "et=%v", et)
	}
}

func TestChebyshevRecordSelection(t *testing.T) {
	// Two records with constant, distinct values.
	records := []ChebyshevRecord{
		{Mid: 50, Radius: 50, Coeffs: [][]float64{{1}, {0}, {0}}},
		{Mid: 150, Radius: 50, Coeffs: [][]float64{{2}, {0}, {0}}},
	}
	payload, err := EncodeChebyshev(records, 0, 100)
	require.NoError(t, err)
	f, seg := segmentFor(t, daf.KindSPK, 2, 0, 200, payload)

	var e Engine
	for _, tt := range []struct {
		et   float64
		want float64
	}{{0, 1}, {99.999, 1}, {100, 2}, {200, 2}} {
		got, err := e.Evaluate(f, seg, tt.et)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Position.X, "et=%v", tt.et)
	}

	_, err = e.Evaluate(f, seg, 500)
	assert.ErrorIs(t, err, ErrEpochOutOfWindow)
	var ie *InterpError
	assert.ErrorAs(t, err, &ie)
}

func TestHermiteReproducesCubic(t *testing.T) {
	p := func(x float64) float64 { return 2 - x + 0.5*x*x - 0.25*x*x*x }
	dp := func(x float64) float64 { return -1 + x - 0.75*x*x }
	xs := []float64{-1, 2}
	ys := []float64{p(-1), dp(-1), p(2), dp(2)}
	work := make([]float64, 8)
	for _, x := range []float64{-1, 0, 0.3, 1.7, 2, 3} {
		f, df := hrmint(xs, ys, x, work)
		assert.InDelta(t, p(x), f, 1e-12, "x=%v", x)
		assert.InDelta(t, dp(x), df, 1e-12, "x=%v", x)
	}

	f, df := hrmint([]float64{1}, []float64{3, 2}, 4, work)
	assert.Equal(t, 9.0, f)
	assert.Equal(t, 2.0, df)
}

func TestNevilleReproducesPolynomial(t *testing.T) {
	p := func(x float64) float64 { return 1 + 2*x - 3*x*x + x*x*x }
	xs := []float64{-2, -0.5, 1, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = p(x)
	}
	work := make([]float64, len(xs))
	for _, x := range []float64{-2, 0, 0.25, 2.5} {
		assert.InDelta(t, p(x), neville(xs, ys, x, work), 1e-12)
	}
}

func TestWindowPolicy(t *testing.T) {
	states := make([][6]float64, 10)
	payloadEven := EncodeEqualStep(states, 0, 10, 3)  // window of 4
	payloadOdd := EncodeEqualStep(states, 0, 10, 2)   // window of 3
	payloadWide := EncodeEqualStep(states, 0, 10, 20) // clipped to 10
	epochs := make([]float64, len(states))
	for i := range epochs {
		epochs[i] = 10 * float64(i)
	}
	payloadUnequal, err := EncodeUnequalStep(states, epochs, 2)
	require.NoError(t, err)

	tests := []struct {
		name    string
		typ     int32
		payload []float64
		et      float64
		first   float64
		size    int
	}{
		{"even centered", 8, payloadEven, 45, 30, 4},
		{"even on epoch", 8, payloadEven, 50, 40, 4},
		{"even clamped low", 8, payloadEven, 2, 0, 4},
		{"even clamped high", 8, payloadEven, 90, 60, 4},
		{"odd nearest below", 8, payloadOdd, 44, 30, 3},
		{"odd nearest above", 8, payloadOdd, 46, 40, 3},
		{"odd equal step tie goes later", 8, payloadOdd, 45, 40, 3},
		{"odd equal step tie clamped high", 8, payloadOdd, 85, 70, 3},
		{"odd unequal step nearest above", 9, payloadUnequal, 46, 40, 3},
		{"odd unequal step tie goes earlier", 9, payloadUnequal, 45, 30, 3},
		{"wide", 8, payloadWide, 45, 0, 10},
	}
	var e Engine
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, seg := segmentFor(t, daf.KindSPK, tt.typ, 0, 90, tt.payload)
			tab, err := readTable(f, seg)
			require.NoError(t, err)
			xs, states, err := e.window(f, seg, tab, tt.et)
			require.NoError(t, err)
			require.Len(t, xs, tt.size)
			assert.Len(t, states, 6*tt.size)
			assert.Equal(t, tt.first, xs[0])
		})
	}
}

func TestDegenerateTable(t *testing.T) {
	states := make([][6]float64, 4)
	payload, err := EncodeUnequalStep(states, []float64{0, 10, 10, 20}, 3)
	require.NoError(t, err)
	f, seg := segmentFor(t, daf.KindSPK, 13, 0, 20, payload)

	var e Engine
	_, err = e.Evaluate(f, seg, 5)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = e.Evaluate(f, seg, 30)
	assert.ErrorIs(t, err, ErrEpochOutOfWindow)
}

func TestCacheHits(t *testing.T) {
	var hits, misses int
	cache, err := NewCache(16, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	require.NoError(t, err)
	e := NewEngine(cache)

	fx := fixtures(t)[0]
	first, err := e.Evaluate(fx.f, fx.seg, 1000)
	require.NoError(t, err)
	second, err := e.Evaluate(fx.f, fx.seg, 1001)
	require.NoError(t, err)
	assert.NotEqual(t, first.Position, second.Position)

	h, m := cache.Stats()
	assert.Equal(t, uint64(1), h)
	assert.Equal(t, uint64(1), m)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, cache.Len())

	cache.Forget(fx.seg.Kernel)
	assert.Zero(t, cache.Len())
}

func TestOrientation(t *testing.T) {
	const rate = 7.292115e-5
	angles := func(et float64) []float64 {
		return []float64{0.1 + 1e-9*et, 0.4 - 2e-10*et, 1.2 + rate*et}
	}
	payload, err := FitChebyshev(angles, 3, 0, 86400, 8, 6)
	require.NoError(t, err)
	f, seg := segmentFor(t, daf.KindPCK, 2, 0, 86400, payload)

	var e Engine
	o, err := e.Orientation(f, seg, 3600)
	require.NoError(t, err)
	assert.InDelta(t, 1.2+rate*3600, o.Angles[2], 1e-9)
	assert.InDelta(t, rate, o.Rates[2], 1e-12)

	r, dr := o.Matrix()
	assert.True(t, r.IsRotation(1e-12))
	w := astro.AngularVelocity(r, dr)
	assert.InDelta(t, rate, w.Norm(), 1e-8)

	_, err = e.Evaluate(f, seg, 3600)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedSegmentType)
}
