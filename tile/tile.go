// Package tile holds the quadtree nodes of a map and their content handles.
package tile

import (
	"sync/atomic"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// ID is a stable tile handle. IDs are never reused within an Arena.
type ID uint64

// None is the null handle, used for the parent of roots.
const None ID = 0

// ElevationRange bounds the heights found in a tile.
type ElevationRange struct {
	Min float64
	Max float64
}

type Tile struct {
	ID       ID
	Coord    Coord
	Extent   geo.Extent
	Parent   ID
	Children []ID

	ElevationRange ElevationRange
	// ElevationKnown is false while ElevationRange is a fallback rather than
	// data inherited from a parent or reported by an elevation layer.
	ElevationKnown bool

	Geometry *Geometry
	Material *Material

	displayed bool
	// visible and disposed are read by scheduler workers.
	visible  atomic.Bool
	disposed atomic.Bool
}

func (t *Tile) IsRoot() bool { return t.Parent == None }

func (t *Tile) Visible() bool { return t.visible.Load() }

// SetVisible returns whether the value changed.
func (t *Tile) SetVisible(v bool) bool {
	return t.visible.Swap(v) != v
}

func (t *Tile) Displayed() bool { return t.displayed }

// SetDisplayed returns whether the value changed.
func (t *Tile) SetDisplayed(v bool) bool {
	changed := t.displayed != v
	t.displayed = v
	return changed
}

// Disposed is safe to call from any goroutine.
func (t *Tile) Disposed() bool { return t.disposed.Load() }

// Box is the tile's bounding volume in map-local coordinates.
func (t *Tile) Box() scene.Box {
	return scene.Box{
		Min: mgl64.Vec3{t.Extent.West(), t.Extent.South(), t.ElevationRange.Min},
		Max: mgl64.Vec3{t.Extent.East(), t.Extent.North(), t.ElevationRange.Max},
	}
}

// SetElevationRange records a range reported by elevation data.
func (t *Tile) SetElevationRange(r ElevationRange) {
	t.ElevationRange = r
	t.ElevationKnown = true
}

// ResetElevation drops elevation content, falling back to a flat range.
func (t *Tile) ResetElevation() {
	t.ElevationRange = ElevationRange{}
	t.ElevationKnown = false
	if t.Material != nil {
		t.Material.Elevation = nil
		for i := range t.Material.Stitching {
			if s := t.Material.Stitching[i]; s != nil {
				s.Elevation = nil
			}
		}
	}
}
