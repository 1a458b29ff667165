// Package sse estimates the on-screen size of bounding volumes.
//
// A tile is refined when the estimated size, corrected by Ratio, exceeds the
// size at which its textures were designed to be displayed.
package sse

import (
	"math"

	"github.com/gekko3d/geomap/scene"
	"github.com/go-gl/mathgl/mgl64"
)

type Mode int

const (
	// Mode2D projects the horizontal extent of the box; used for flat and
	// terrain tiles.
	Mode2D Mode = iota
	// Mode3D uses a geometric error for non-planar hierarchical content.
	Mode3D
)

// minRatio keeps grazing views from suppressing refinement entirely.
const minRatio = 0.25

// minDistance clamps the eye distance so boxes containing the eye get a
// finite, large error.
const minDistance = 1.0

// Camera is what the estimator needs from the view.
type Camera interface {
	ViewMatrix() mgl64.Mat4
	Eye() mgl64.Vec3
	PreSSE() float64
}

type Lengths struct {
	X float64
	Y float64
}

// Result holds the screen-space lengths in pixels of the box axes and the
// perspective correction to apply before comparing them with a threshold.
type Result struct {
	Lengths Lengths
	Ratio   float64
}

// Exceeds reports whether either corrected axis length is above threshold.
func (r *Result) Exceeds(threshold float64) bool {
	return r.Lengths.X*r.Ratio > threshold || r.Lengths.Y*r.Ratio > threshold
}

// ComputeFromBox returns the screen-space error of box, placed in the world by
// matrix, or nil when the box is degenerate or fully behind the eye.
func ComputeFromBox(cam Camera, box scene.Box, matrix mgl64.Mat4, geometricError float64, mode Mode) *Result {
	if !box.IsFinite() {
		return nil
	}
	world := box.Transform(matrix)
	if isBehind(cam, world) {
		return nil
	}

	eye := cam.Eye()
	distance := math.Max(minDistance, world.Distance(eye))

	if mode == Mode3D {
		if !(geometricError > 0) || math.IsInf(geometricError, 0) {
			return nil
		}
		l := geometricError * cam.PreSSE() / distance
		return &Result{Lengths: Lengths{X: l, Y: l}, Ratio: 1}
	}

	// World-space size of the local x and y axes of the box.
	size := box.Size()
	axisX := matrix.Mul4x1(mgl64.Vec4{size.X(), 0, 0, 0}).Vec3().Len()
	axisY := matrix.Mul4x1(mgl64.Vec4{0, size.Y(), 0, 0}).Vec3().Len()
	if axisX <= 0 && axisY <= 0 {
		return nil
	}

	pre := cam.PreSSE()
	return &Result{
		Lengths: Lengths{
			X: axisX * pre / distance,
			Y: axisY * pre / distance,
		},
		Ratio: ratio(world, matrix, eye),
	}
}

// ratio is the cosine between the box up axis and the direction from the eye
// to the closest point of the box.
func ratio(world scene.Box, matrix mgl64.Mat4, eye mgl64.Vec3) float64 {
	dir := world.ClosestPoint(eye).Sub(eye)
	if dir.Len() == 0 {
		return 1
	}
	up := matrix.Mul4x1(mgl64.Vec4{0, 0, 1, 0}).Vec3()
	if up.Len() == 0 {
		return 1
	}
	cos := math.Abs(dir.Normalize().Dot(up.Normalize()))
	return math.Max(minRatio, cos)
}

// isBehind reports whether every corner of the world box lies behind the eye.
func isBehind(cam Camera, world scene.Box) bool {
	view := cam.ViewMatrix()
	for _, c := range world.Corners() {
		// Camera looks down -Z in view space.
		if view.Mul4x1(c.Vec4(1)).Z() < 0 {
			return false
		}
	}
	return true
}
