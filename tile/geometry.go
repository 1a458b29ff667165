package tile

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GeometryKey identifies geometries that can be shared between tiles of the
// same size.
type GeometryKey struct {
	Segments int
	Width    float64
	Height   float64
}

// KeyFor rounds the tile size so tiles of one level share a key despite
// floating point noise.
func KeyFor(segments int, width, height float64) GeometryKey {
	return GeometryKey{
		Segments: segments,
		Width:    roundSignificant(width),
		Height:   roundSignificant(height),
	}
}

func roundSignificant(v float64) float64 {
	if v == 0 {
		return 0
	}
	exp := math.Floor(math.Log10(math.Abs(v)))
	scale := math.Pow(10, 9-exp)
	return math.Round(v*scale) / scale
}

// Geometry is a regular grid in tile-local coordinates, origin at the
// south-west corner.
type Geometry struct {
	ID        string
	Key       GeometryKey
	Positions []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

func BuildGeometry(id string, key GeometryKey) *Geometry {
	n := key.Segments + 1
	g := &Geometry{
		ID:        id,
		Key:       key,
		Positions: make([]mgl32.Vec3, 0, n*n),
		UVs:       make([]mgl32.Vec2, 0, n*n),
		Indices:   make([]uint32, 0, key.Segments*key.Segments*6),
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			u := float32(x) / float32(key.Segments)
			v := float32(y) / float32(key.Segments)
			g.UVs = append(g.UVs, mgl32.Vec2{u, v})
			g.Positions = append(g.Positions, mgl32.Vec3{u * float32(key.Width), v * float32(key.Height), 0})
		}
	}
	for y := 0; y < key.Segments; y++ {
		for x := 0; x < key.Segments; x++ {
			a := uint32(y*n + x)
			b := a + 1
			c := a + uint32(n)
			d := c + 1
			g.Indices = append(g.Indices, a, b, d, a, d, c)
		}
	}
	return g
}
