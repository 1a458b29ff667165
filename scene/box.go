package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// Transform returns the conservative axis-aligned box of b's corners after m.
func (b Box) Transform(m mgl64.Mat4) Box {
	inf := math.Inf(1)
	out := Box{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
	for _, c := range b.Corners() {
		wc := m.Mul4x1(c.Vec4(1.0)).Vec3()
		for axis := 0; axis < 3; axis++ {
			out.Min[axis] = math.Min(out.Min[axis], wc[axis])
			out.Max[axis] = math.Max(out.Max[axis], wc[axis])
		}
	}
	return out
}

// ClosestPoint clamps p onto the box.
func (b Box) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		out[axis] = math.Max(b.Min[axis], math.Min(p[axis], b.Max[axis]))
	}
	return out
}

func (b Box) Distance(p mgl64.Vec3) float64 {
	return b.ClosestPoint(p).Sub(p).Len()
}

func (b Box) IsFinite() bool {
	for axis := 0; axis < 3; axis++ {
		for _, v := range [2]float64{b.Min[axis], b.Max[axis]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
