package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking from Position towards Target.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // radians
	Width    int     // viewport, pixels
	Height   int
	Near     float64
	Far      float64
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, 1000},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     mgl64.DegToRad(60),
		Width:    width,
		Height:   height,
		Near:     1,
		Far:      1e9,
	}
}

func (c *Camera) Aspect() float64 {
	if c.Height == 0 {
		return 1
	}
	return float64(c.Width) / float64(c.Height)
}

func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(c.FovY, c.Aspect(), c.Near, c.Far)
}

func (c *Camera) Eye() mgl64.Vec3 {
	return c.Position
}

// PreSSE is the on-screen size in pixels of one world unit seen at distance 1.
func (c *Camera) PreSSE() float64 {
	return float64(c.Height) / (2 * math.Tan(c.FovY/2))
}

// Frustum extracts the 6 planes of the view frustum.
func (c *Camera) Frustum() Frustum {
	return ExtractFrustum(c.ProjectionMatrix().Mul4(c.ViewMatrix()))
}

// IsBoxVisible tests the box, placed in the world by matrix, against the view frustum.
func (c *Camera) IsBoxVisible(box Box, matrix mgl64.Mat4) bool {
	return c.Frustum().IntersectsBox(box.Transform(matrix))
}

// Frustum holds planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0 with the normal pointing inside.
type Frustum [6]mgl64.Vec4

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
func ExtractFrustum(vp mgl64.Mat4) Frustum {
	var planes Frustum

	// Left plane: Row 3 + Row 0
	planes[0] = mgl64.Vec4{
		vp.At(3, 0) + vp.At(0, 0),
		vp.At(3, 1) + vp.At(0, 1),
		vp.At(3, 2) + vp.At(0, 2),
		vp.At(3, 3) + vp.At(0, 3),
	}
	// Right plane: Row 3 - Row 0
	planes[1] = mgl64.Vec4{
		vp.At(3, 0) - vp.At(0, 0),
		vp.At(3, 1) - vp.At(0, 1),
		vp.At(3, 2) - vp.At(0, 2),
		vp.At(3, 3) - vp.At(0, 3),
	}
	// Bottom plane: Row 3 + Row 1
	planes[2] = mgl64.Vec4{
		vp.At(3, 0) + vp.At(1, 0),
		vp.At(3, 1) + vp.At(1, 1),
		vp.At(3, 2) + vp.At(1, 2),
		vp.At(3, 3) + vp.At(1, 3),
	}
	// Top plane: Row 3 - Row 1
	planes[3] = mgl64.Vec4{
		vp.At(3, 0) - vp.At(1, 0),
		vp.At(3, 1) - vp.At(1, 1),
		vp.At(3, 2) - vp.At(1, 2),
		vp.At(3, 3) - vp.At(1, 3),
	}
	// Near plane: Row 3 + Row 2 (OpenGL-style -1..1)
	planes[4] = mgl64.Vec4{
		vp.At(3, 0) + vp.At(2, 0),
		vp.At(3, 1) + vp.At(2, 1),
		vp.At(3, 2) + vp.At(2, 2),
		vp.At(3, 3) + vp.At(2, 3),
	}
	// Far plane: Row 3 - Row 2
	planes[5] = mgl64.Vec4{
		vp.At(3, 0) - vp.At(2, 0),
		vp.At(3, 1) - vp.At(2, 1),
		vp.At(3, 2) - vp.At(2, 2),
		vp.At(3, 3) - vp.At(2, 3),
	}

	for i := 0; i < 6; i++ {
		length := math.Sqrt(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// IntersectsBox reports whether the world-space box is at least partially inside.
func (f Frustum) IntersectsBox(box Box) bool {
	for i := 0; i < 6; i++ {
		plane := f[i]
		// The corner furthest along the normal is the most inside one; if it
		// is still behind the plane, the whole box is.
		var p mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = box.Max[axis]
			} else {
				p[axis] = box.Min[axis]
			}
		}

		dist := plane[0]*p[0] + plane[1]*p[1] + plane[2]*p[2] + plane[3]
		if dist < 0 {
			return false
		}
	}
	return true
}
