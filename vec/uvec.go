package vec

import "fmt"

// UVec2 is a two-component unsigned vector.
type UVec2 struct {
	X, Y uint32
}

// UVec3 is a three-component unsigned vector. Thread coordinates use it,
// matching the uvec3 that GlobalId returns on the GPU backends.
type UVec3 struct {
	X, Y, Z uint32
}

// UVec4 is a four-component unsigned vector.
type UVec4 struct {
	X, Y, Z, W uint32
}

// MakeUVec3 returns UVec3{x, y, z}.
func MakeUVec3(x, y, z uint32) UVec3 { return UVec3{X: x, Y: y, Z: z} }

// IsZero reports whether every component is zero.
func (u UVec3) IsZero() bool { return u == UVec3{} }

func (u UVec3) String() string {
	return fmt.Sprintf("[%d,%d,%d]", u.X, u.Y, u.Z)
}

// IVec2 is a two-component signed vector.
type IVec2 struct {
	X, Y int32
}

// IVec3 is a three-component signed vector.
type IVec3 struct {
	X, Y, Z int32
}

// IVec4 is a four-component signed vector.
type IVec4 struct {
	X, Y, Z, W int32
}

// MakeIVec2 returns IVec2{x, y}.
func MakeIVec2(x, y int32) IVec2 { return IVec2{X: x, Y: y} }

// MakeIVec3 returns IVec3{x, y, z}.
func MakeIVec3(x, y, z int32) IVec3 { return IVec3{X: x, Y: y, Z: z} }

// MakeIVec4 returns IVec4{x, y, z, w}.
func MakeIVec4(x, y, z, w int32) IVec4 { return IVec4{X: x, Y: y, Z: z, W: w} }

// Add returns u + o, wrapping on overflow like the native int types.
func (u IVec3) Add(o IVec3) IVec3 { return IVec3{u.X + o.X, u.Y + o.Y, u.Z + o.Z} }

// Sub returns u - o.
func (u IVec3) Sub(o IVec3) IVec3 { return IVec3{u.X - o.X, u.Y - o.Y, u.Z - o.Z} }

// Coord converts a thread coordinate to signed form for offset arithmetic.
func (u UVec3) Coord() IVec3 { return IVec3{int32(u.X), int32(u.Y), int32(u.Z)} }
