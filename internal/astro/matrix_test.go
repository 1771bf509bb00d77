package astro

import (
	"math"
	"testing"
)

func TestRotationsAreOrthonormal(t *testing.T) {
	angles := []float64{0, 0.1, math.Pi / 3, -2.5, math.Pi}
	for _, a := range angles {
		for name, m := range map[string]Mat3{"x": RotX(a), "y": RotY(a), "z": RotZ(a)} {
			if !m.IsRotation(1e-14) {
				t.Errorf("Rot%s(%v) is not a rotation: %v", name, a, m)
			}
		}
	}
}

func TestRotZFrameConvention(t *testing.T) {
	// Rotating the frame by +90° about Z moves the old +Y axis onto +X.
	got := RotZ(math.Pi / 2).MulVec(Vec3{0, 1, 0})
	if math.Abs(got.X-1) > 1e-15 || math.Abs(got.Y) > 1e-15 {
		t.Errorf("RotZ(90°)·ŷ = %v, want (1, 0, 0)", got)
	}
}

func TestEulerToMatDerivative(t *testing.T) {
	angles := [3]float64{0.3, -1.1, 2.0}
	rates := [3]float64{1e-3, -2e-4, 7e-5}

	_, dr := EulerToMat(angles, rates, 3, 1, 3)

	// Central difference of R(t) against the analytic derivative.
	const h = 1.0
	var plus, minus [3]float64
	for i := range angles {
		plus[i] = angles[i] + rates[i]*h
		minus[i] = angles[i] - rates[i]*h
	}
	rp, _ := EulerToMat(plus, rates, 3, 1, 3)
	rm, _ := EulerToMat(minus, rates, 3, 1, 3)
	numeric := rp.Add(rm.Scale(-1)).Scale(1 / (2 * h))

	if d := numeric.MaxAbsDiff(dr); d > 1e-9 {
		t.Errorf("analytic derivative differs from numeric by %g", d)
	}
}

func TestAngularVelocity(t *testing.T) {
	const rate = 7.29e-5
	r, dr := EulerToMat([3]float64{1.2, 0, 0}, [3]float64{rate, 0, 0}, 3, 1, 3)
	w := AngularVelocity(r, dr)
	if math.Abs(w.Z-rate) > 1e-18 || math.Abs(w.X) > 1e-18 || math.Abs(w.Y) > 1e-18 {
		t.Errorf("AngularVelocity() = %v, want (0, 0, %v)", w, rate)
	}
}

func TestMat3Transpose(t *testing.T) {
	m := RotX(0.4).Mul(RotZ(-1.3))
	if d := m.Mul(m.Transpose()).MaxAbsDiff(Identity()); d > 1e-15 {
		t.Errorf("m·mᵀ differs from identity by %g", d)
	}
}
