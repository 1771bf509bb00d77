package astro

import "math"

// Mat3 is a row-major 3x3 matrix. Rotation matrices map coordinates from a
// source frame into a destination frame: x_dst = M x_src.
type Mat3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns mᵀ, which is the inverse of a rotation matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// Add returns m+n.
func (m Mat3) Add(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] + n[i][j]
		}
	}
	return out
}

// Scale returns s·m.
func (m Mat3) Scale(s float64) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

// MaxAbsDiff returns the largest element-wise absolute difference.
func (m Mat3) MaxAbsDiff(n Mat3) float64 {
	var d float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d = math.Max(d, math.Abs(m[i][j]-n[i][j]))
		}
	}
	return d
}

// Det returns the determinant.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// IsRotation reports whether m is orthonormal with determinant +1 within tol.
func (m Mat3) IsRotation(tol float64) bool {
	if math.Abs(m.Det()-1) > tol {
		return false
	}
	return m.Mul(m.Transpose()).MaxAbsDiff(Identity()) <= tol
}

// RotX returns the frame rotation by angle radians about the X axis.
func RotX(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
}

// RotY returns the frame rotation by angle radians about the Y axis.
func RotY(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

// RotZ returns the frame rotation by angle radians about the Z axis.
func RotZ(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}

// dRot returns d/dθ of the frame rotation about axis (1, 2 or 3).
func dRot(axis int, angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	switch axis {
	case 1:
		return Mat3{{0, 0, 0}, {0, -s, c}, {0, -c, -s}}
	case 2:
		return Mat3{{-s, 0, -c}, {0, 0, 0}, {c, 0, -s}}
	default:
		return Mat3{{-s, c, 0}, {-c, -s, 0}, {0, 0, 0}}
	}
}

func rot(axis int, angle float64) Mat3 {
	switch axis {
	case 1:
		return RotX(angle)
	case 2:
		return RotY(angle)
	default:
		return RotZ(angle)
	}
}

// EulerToMat returns R = [a1]_ax1 · [a2]_ax2 · [a3]_ax3 and its time
// derivative for the given angle rates (radians and radians/second).
func EulerToMat(angles, rates [3]float64, ax1, ax2, ax3 int) (Mat3, Mat3) {
	r1, r2, r3 := rot(ax1, angles[0]), rot(ax2, angles[1]), rot(ax3, angles[2])
	d1 := dRot(ax1, angles[0]).Scale(rates[0])
	d2 := dRot(ax2, angles[1]).Scale(rates[1])
	d3 := dRot(ax3, angles[2]).Scale(rates[2])

	r := r1.Mul(r2).Mul(r3)
	dr := d1.Mul(r2).Mul(r3).
		Add(r1.Mul(d2).Mul(r3)).
		Add(r1.Mul(r2).Mul(d3))
	return r, dr
}

// AngularVelocity returns the angular velocity, expressed in the destination
// frame, of a rotation R with derivative dR. It satisfies dR = -[ω×]R.
func AngularVelocity(r, dr Mat3) Vec3 {
	w := dr.Mul(r.Transpose()).Scale(-1)
	return Vec3{
		X: (w[2][1] - w[1][2]) / 2,
		Y: (w[0][2] - w[2][0]) / 2,
		Z: (w[1][0] - w[0][1]) / 2,
	}
}
