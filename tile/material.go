package tile

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Direction int

const (
	North Direction = iota
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest
)

const (
	CardinalCount  = 4
	DirectionCount = 8
)

var directionNames = [DirectionCount]string{"N", "E", "S", "W", "NE", "SE", "SW", "NW"}

func (d Direction) String() string {
	if d < 0 || int(d) >= DirectionCount {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// NeighbourList holds the tile adjacent in each direction, None when there is
// no tile on that side.
type NeighbourList [DirectionCount]ID

// Material is the content attached to a tile: per-layer textures and the
// data needed to stitch its borders to its neighbours.
type Material struct {
	Color     map[string]*ColorTexture
	Elevation *ElevationTexture
	Stitching [DirectionCount]*Stitch
}

func NewMaterial() *Material {
	return &Material{
		Color: make(map[string]*ColorTexture),
	}
}

// HasColor reports whether any color layer has data on the tile.
func (m *Material) HasColor() bool {
	for _, c := range m.Color {
		if c != nil && c.Level >= 0 {
			return true
		}
	}
	return false
}

// Stitch maps a tile's texture space onto a neighbour's.
type Stitch struct {
	Tile  ID
	Level uint32
	// Offset is the tile's south-west corner in neighbour uv space and Scale
	// the tile size relative to the neighbour.
	Offset    mgl64.Vec2
	Scale     mgl64.Vec2
	Elevation *ElevationTexture
}

// NewStitch computes the stitching data of t against neighbour n.
func NewStitch(t, n *Tile) *Stitch {
	td := t.Extent.Dimensions()
	nd := n.Extent.Dimensions()

	s := &Stitch{
		Tile:  n.ID,
		Level: n.Coord.Level,
		Offset: mgl64.Vec2{
			(t.Extent.West() - n.Extent.West()) / nd.Width,
			(t.Extent.South() - n.Extent.South()) / nd.Height,
		},
		Scale: mgl64.Vec2{td.Width / nd.Width, td.Height / nd.Height},
	}
	if n.Material != nil {
		s.Elevation = n.Material.Elevation
	}
	return s
}

// ToNeighbour converts a uv of the tile into the neighbour's uv.
func (s *Stitch) ToNeighbour(uv mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		s.Offset.X() + uv.X()*s.Scale.X(),
		s.Offset.Y() + uv.Y()*s.Scale.Y(),
	}
}

// BorderHeights samples the neighbour's elevation along the tile border
// facing dir. Diagonal directions yield the single shared corner. Returns nil
// when the neighbour has no elevation.
func (s *Stitch) BorderHeights(dir Direction, samples int) []float64 {
	if s.Elevation == nil || samples < 1 {
		return nil
	}
	var points []mgl64.Vec2
	switch dir {
	case NorthEast:
		points = []mgl64.Vec2{{1, 1}}
	case SouthEast:
		points = []mgl64.Vec2{{1, 0}}
	case SouthWest:
		points = []mgl64.Vec2{{0, 0}}
	case NorthWest:
		points = []mgl64.Vec2{{0, 1}}
	default:
		points = make([]mgl64.Vec2, samples)
		for i := range points {
			f := 0.0
			if samples > 1 {
				f = float64(i) / float64(samples-1)
			}
			switch dir {
			case North:
				points[i] = mgl64.Vec2{f, 1}
			case South:
				points[i] = mgl64.Vec2{f, 0}
			case East:
				points[i] = mgl64.Vec2{1, f}
			case West:
				points[i] = mgl64.Vec2{0, f}
			}
		}
	}

	out := make([]float64, len(points))
	for i, p := range points {
		uv := s.ToNeighbour(p)
		out[i] = s.Elevation.Sample(clamp01(uv.X()), clamp01(uv.Y()))
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
