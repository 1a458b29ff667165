package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform places a map's local tile space in the world. Scale applies
// first, then Orientation, then Translation.
type Transform struct {
	Translation mgl64.Vec3
	Orientation mgl64.Quat
	Scale       mgl64.Vec3
}

func NewTransform() Transform {
	return Transform{Orientation: mgl64.QuatIdent(), Scale: mgl64.Vec3{1, 1, 1}}
}

func (t Transform) ObjectToWorld() mgl64.Mat4 {
	m := t.Orientation.Normalize().Mat4().Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
	m.SetCol(3, t.Translation.Vec4(1))
	return m
}

// WorldToObject is the inverse of ObjectToWorld. A zero scale component
// makes it the zero matrix.
func (t Transform) WorldToObject() mgl64.Mat4 {
	return t.ObjectToWorld().Inv()
}

// ToWorld maps a point in map space to world space.
func (t Transform) ToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.ObjectToWorld())
}

// ToLocal maps a world point back to map space.
func (t Transform) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.WorldToObject())
}
