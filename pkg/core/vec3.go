package core

import (
	"math"
	"math/cmplx"
)

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float64
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{0, 0, 0}
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{
		X: -v.X,
		Y: -v.Y,
		Z: -v.Z,
	}
}

// IsFinite reports whether no component is NaN or infinite
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// IsZero reports whether all components are exactly zero
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Complex promotes a real vector to a complex one
func (v Vec3) Complex() CVec3 {
	return CVec3{complex(v.X, 0), complex(v.Y, 0), complex(v.Z, 0)}
}

// CVec3 represents a 3D vector with complex components (field phasors)
type CVec3 struct {
	X, Y, Z complex128
}

// NewCVec3 creates a new CVec3
func NewCVec3(x, y, z complex128) CVec3 {
	return CVec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two complex vectors
func (v CVec3) Add(other CVec3) CVec3 {
	return CVec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two complex vectors
func (v CVec3) Subtract(other CVec3) CVec3 {
	return CVec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a complex scalar
func (v CVec3) Multiply(scalar complex128) CVec3 {
	return CVec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Conj returns the component-wise complex conjugate
func (v CVec3) Conj() CVec3 {
	return CVec3{cmplx.Conj(v.X), cmplx.Conj(v.Y), cmplx.Conj(v.Z)}
}

// Cross returns the (bilinear, unconjugated) cross product
func (v CVec3) Cross(other CVec3) CVec3 {
	return CVec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Dot returns the bilinear dot product (no conjugation)
func (v CVec3) Dot(other CVec3) complex128 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Real returns the real parts as a Vec3
func (v CVec3) Real() Vec3 {
	return Vec3{real(v.X), real(v.Y), real(v.Z)}
}

// Abs returns the component moduli as a Vec3
func (v CVec3) Abs() Vec3 {
	return Vec3{cmplx.Abs(v.X), cmplx.Abs(v.Y), cmplx.Abs(v.Z)}
}

// Length returns the Hermitian norm sqrt(|x|²+|y|²+|z|²)
func (v CVec3) Length() float64 {
	return v.Abs().Length()
}

// MaxAbs returns the largest component modulus
func (v CVec3) MaxAbs() float64 {
	a := v.Abs()
	return max(a.X, a.Y, a.Z)
}

// IsFinite reports whether every real and imaginary part is finite
func (v CVec3) IsFinite() bool {
	return !cmplx.IsNaN(v.X) && !cmplx.IsInf(v.X) &&
		!cmplx.IsNaN(v.Y) && !cmplx.IsInf(v.Y) &&
		!cmplx.IsNaN(v.Z) && !cmplx.IsInf(v.Z)
}
