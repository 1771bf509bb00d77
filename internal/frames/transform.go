package frames

import (
	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// Transform maps states from one frame to another at an epoch:
//
//	p' = R p + T
//	v' = Ṙ p + R v + V
//
// Frame graph transforms are pure rotations, so Translation and Velocity
// are zero unless a caller composes in an origin shift.
type Transform struct {
	From, To     ID
	Epoch        timescale.Epoch
	Rotation     astro.Mat3
	RotationRate astro.Mat3
	Translation  astro.Vec3
	Velocity     astro.Vec3
}

// Identity returns the identity transform of frame f.
func Identity(f ID, ep timescale.Epoch) Transform {
	return Transform{From: f, To: f, Epoch: ep, Rotation: astro.Identity()}
}

// Then returns the transform applying t first and next second. next.From
// must equal t.To.
func (t Transform) Then(next Transform) Transform {
	return Transform{
		From:         t.From,
		To:           next.To,
		Epoch:        t.Epoch,
		Rotation:     next.Rotation.Mul(t.Rotation),
		RotationRate: next.RotationRate.Mul(t.Rotation).Add(next.Rotation.Mul(t.RotationRate)),
		Translation:  next.Rotation.MulVec(t.Translation).Add(next.Translation),
		Velocity: next.RotationRate.MulVec(t.Translation).
			Add(next.Rotation.MulVec(t.Velocity)).
			Add(next.Velocity),
	}
}

// Inverse returns the transform from t.To back to t.From.
func (t Transform) Inverse() Transform {
	rt := t.Rotation.Transpose()
	drt := t.RotationRate.Transpose()
	return Transform{
		From:         t.To,
		To:           t.From,
		Epoch:        t.Epoch,
		Rotation:     rt,
		RotationRate: drt,
		Translation:  rt.MulVec(t.Translation).Neg(),
		Velocity:     drt.MulVec(t.Translation).Add(rt.MulVec(t.Velocity)).Neg(),
	}
}

// Apply maps a position and velocity.
func (t Transform) Apply(p, v astro.Vec3) (astro.Vec3, astro.Vec3) {
	return t.Rotation.MulVec(p).Add(t.Translation),
		t.RotationRate.MulVec(p).Add(t.Rotation.MulVec(v)).Add(t.Velocity)
}

// AngularVelocity returns the angular velocity of the To frame relative to
// the From frame, expressed in To.
func (t Transform) AngularVelocity() astro.Vec3 {
	return astro.AngularVelocity(t.Rotation, t.RotationRate)
}

// Quaternion returns the rotation as a unit quaternion.
func (t Transform) Quaternion() astro.Quaternion {
	return astro.QuaternionFromMat3(t.Rotation)
}
