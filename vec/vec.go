// Package vec provides the small value-type vectors that kernel bodies use
// for arithmetic. Every operation is computed in float32 so a kernel produces
// the same bits whether it is emulated on the host or translated for a GPU
// backend whose native float2/float3/float4 types are single precision.
package vec

import "math"

// Products that feed a sum are converted to float32 explicitly. The
// conversion forces rounding, so the compiler may not fuse them into an FMA
// and the result does not depend on GOARCH or GOAMD64.

// Epsilon guards Normalize against division by a near-zero length.
// It matches FLT_EPSILON.
const Epsilon float32 = 1.19209e-07

// Vec2 is a two-component float vector.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a three-component float vector.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 is a four-component float vector.
type Vec4 struct {
	X, Y, Z, W float32
}

// MakeVec2 returns Vec2{a, b}.
func MakeVec2(a, b float32) Vec2 { return Vec2{X: a, Y: b} }

// MakeVec3 returns Vec3{a, b, c}.
func MakeVec3(a, b, c float32) Vec3 { return Vec3{X: a, Y: b, Z: c} }

// MakeVec4 returns Vec4{a, b, c, d}.
func MakeVec4(a, b, c, d float32) Vec4 { return Vec4{X: a, Y: b, Z: c, W: d} }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul returns the elementwise product.
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }

// Scale multiplies every component by s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product.
func (v Vec2) Dot(o Vec2) float32 { return float32(v.X*o.X) + float32(v.Y*o.Y) }

// Length returns the Euclidean length.
func (v Vec2) Length() float32 { return sqrt32(v.Dot(v)) }

// Normalize returns v scaled to unit length.
func (v Vec2) Normalize() Vec2 { return v.Scale(invLength(v.Dot(v))) }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Mul returns the elementwise product.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 {
	return float32(v.X*o.X) + float32(v.Y*o.Y) + float32(v.Z*o.Z)
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: float32(v.Y*o.Z) - float32(v.Z*o.Y),
		Y: float32(v.Z*o.X) - float32(v.X*o.Z),
		Z: float32(v.X*o.Y) - float32(v.Y*o.X),
	}
}

// Length returns the Euclidean length.
func (v Vec3) Length() float32 { return sqrt32(v.Dot(v)) }

// Normalize returns v scaled to unit length.
func (v Vec3) Normalize() Vec3 { return v.Scale(invLength(v.Dot(v))) }

// Add returns v + o.
func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}

// Sub returns v - o.
func (v Vec4) Sub(o Vec4) Vec4 {
	return Vec4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W}
}

// Mul returns the elementwise product.
func (v Vec4) Mul(o Vec4) Vec4 {
	return Vec4{v.X * o.X, v.Y * o.Y, v.Z * o.Z, v.W * o.W}
}

// Scale multiplies every component by s.
func (v Vec4) Scale(s float32) Vec4 { return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s} }

// Dot returns the dot product.
func (v Vec4) Dot(o Vec4) float32 {
	return float32(v.X*o.X) + float32(v.Y*o.Y) + float32(v.Z*o.Z) + float32(v.W*o.W)
}

// Length returns the Euclidean length.
func (v Vec4) Length() float32 { return sqrt32(v.Dot(v)) }

// Normalize returns v scaled to unit length.
func (v Vec4) Normalize() Vec4 { return v.Scale(invLength(v.Dot(v))) }

// Mix linearly interpolates between x and y by a scalar weight:
// x + (y - x) * a.
func Mix(x, y Vec2, a float32) Vec2 {
	return Vec2{lerp(x.X, y.X, a), lerp(x.Y, y.Y, a)}
}

// MixVec interpolates per component with the weights in a.
func MixVec(x, y, a Vec2) Vec2 {
	return Vec2{lerp(x.X, y.X, a.X), lerp(x.Y, y.Y, a.Y)}
}

// Mix3 is Mix for Vec3.
func Mix3(x, y Vec3, a float32) Vec3 {
	return Vec3{lerp(x.X, y.X, a), lerp(x.Y, y.Y, a), lerp(x.Z, y.Z, a)}
}

// Mix4 is Mix for Vec4.
func Mix4(x, y Vec4, a float32) Vec4 {
	return Vec4{lerp(x.X, y.X, a), lerp(x.Y, y.Y, a), lerp(x.Z, y.Z, a), lerp(x.W, y.W, a)}
}

// lerp returns x + (y-x)*a with every step rounded to float32.
func lerp(x, y, a float32) float32 {
	return x + float32((y-x)*a)
}

// invLength returns 1/sqrt(sq), clamping the length to Epsilon.
func invLength(sq float32) float32 {
	l := sqrt32(sq)
	if l < Epsilon {
		l = Epsilon
	}
	return 1 / l
}

// sqrt32 rounds the float64 square root back to float32. The float64 sqrt
// of a float32 input rounds to the same value as a correctly rounded float32
// sqrt, which is what the GPU backends provide.
func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
