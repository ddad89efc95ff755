// Package geom holds the 2D geometry the physics core is built on: safe vector
// helpers around mgl64, axis-aligned and oriented bounding boxes, and segments.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Epsilon is the tolerance used by containment and crossing tests.
const Epsilon = 1e-9

// Normalize returns v scaled to unit length. A zero-length vector has no
// direction, so the zero vector is returned instead of NaNs.
func Normalize(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec2{}
	}
	inv := 1.0 / l
	return mgl64.Vec2{v[0] * inv, v[1] * inv}
}

// Normalize3 is Normalize for 3-vectors.
func Normalize3(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	inv := 1.0 / l
	return mgl64.Vec3{v[0] * inv, v[1] * inv, v[2] * inv}
}

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Perp returns v × ẑ, which is v rotated by -90 degrees. For an edge of a
// counter-clockwise polygon this points outward.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v[1], -v[0]}
}

// ClampLength shortens v to at most max, keeping its direction.
func ClampLength(v mgl64.Vec2, max float64) mgl64.Vec2 {
	if l := v.Len(); l > max && l > 0 {
		return v.Mul(max / l)
	}
	return v
}

// ClampLength3 is ClampLength for 3-vectors.
func ClampLength3(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if l := v.Len(); l > max && l > 0 {
		return v.Mul(max / l)
	}
	return v
}

// RotateDeg rotates v counter-clockwise by deg degrees.
func RotateDeg(v mgl64.Vec2, deg float64) mgl64.Vec2 {
	if deg == 0 {
		return v
	}
	return mgl64.Rotate2D(mgl64.DegToRad(deg)).Mul2x1(v)
}

// NormalizeAngle wraps deg into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
