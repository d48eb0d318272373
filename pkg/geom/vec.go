// Package geom provides the 3D vector primitives used to build element
// coordinate systems. Every function is pure and deterministic.
package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned when a zero-length vector is normalized, which
// happens when two reference points coincide.
var ErrDegenerate = errors.New("degenerate input: zero-length vector")

// Vec3 is an immutable 3D vector. A Vec3 used as a position is a Point.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Point is a position in model space.
type Point = Vec3

// Canonical global axes.
var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Add returns a + b.
func Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Dot returns the scalar product of a and b.
func Dot(a, b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the right-handed cross product a × b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Norm returns the Euclidean length of v without overflow or underflow in
// the intermediate squares.
func Norm(v Vec3) float64 {
	return r3.Norm(r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
}

// Normalize returns v / |v|. It fails with ErrDegenerate instead of
// producing NaN components when |v| == 0.
func Normalize(v Vec3) (Vec3, error) {
	n := Norm(v)
	if n == 0 {
		return Vec3{}, ErrDegenerate
	}
	return Vec3{v.X / n, v.Y / n, v.Z / n}, nil
}

// Scale returns v * s.
func Scale(v Vec3, s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func Neg(v Vec3) Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromArray builds a Vec3 from an array.
func FromArray(a [3]float64) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
