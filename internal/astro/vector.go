// Package astro provides the vector, matrix, rotation and topocentric math
// shared by the ephemeris and frame layers.
package astro

import (
	"fmt"
	"math"
)

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the same direction.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Neg returns the opposite vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the scalar product.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Cross returns v × u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		X: v.Y*u.Z - v.Z*u.Y,
		Y: v.Z*u.X - v.X*u.Z,
		Z: v.X*u.Y - v.Y*u.X,
	}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// String formats the vector with full precision.
func (v Vec3) String() string {
	return fmt.Sprintf("(%.9f, %.9f, %.9f)", v.X, v.Y, v.Z)
}

// Rotate rotates v about axis by angle radians (right-hand rule).
func (v Vec3) Rotate(axis Vec3, angle float64) Vec3 {
	k := axis.Normalized()
	if k == (Vec3{}) {
		return v
	}
	c, s := math.Cos(angle), math.Sin(angle)
	// Rodrigues
	return v.Scale(c).Add(k.Cross(v).Scale(s)).Add(k.Scale(k.Dot(v) * (1 - c)))
}

// Sep returns the angle between two vectors in radians.
func (v Vec3) Sep(u Vec3) float64 {
	a, b := v.Normalized(), u.Normalized()
	if a == (Vec3{}) || b == (Vec3{}) {
		return 0
	}
	// Well conditioned for both small and near-pi angles.
	if a.Dot(b) > 0 {
		return 2 * math.Asin(a.Sub(b).Norm()/2)
	}
	return math.Pi - 2*math.Asin(a.Add(b).Norm()/2)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
