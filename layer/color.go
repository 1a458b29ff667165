package layer

import (
	"context"
	"fmt"
	"image"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/tile"
)

type ColorSource interface {
	FetchColor(ctx context.Context, coord tile.Coord, extent geo.Extent) (image.Image, error)
}

type ColorLayer struct {
	base
	source  ColorSource
	opacity float64
}

var _ Layer = (*ColorLayer)(nil)

func NewColorLayer(id string, source ColorSource, opts Options) *ColorLayer {
	return &ColorLayer{
		base:    newBase(id, Color, opts),
		source:  source,
		opacity: 1,
	}
}

// Color layers have no setup step.
func (l *ColorLayer) Ready() bool { return l.host != nil }

func (l *ColorLayer) Opacity() float64 { return l.opacity }

// SetOpacity clamps v to [0, 1] and returns whether the value changed.
func (l *ColorLayer) SetOpacity(v float64) bool {
	v = min(max(v, 0), 1)
	changed := l.opacity != v
	l.opacity = v
	return changed
}

func (l *ColorLayer) Update(ctx Context, t *tile.Tile) {
	if !l.wants(ctx, t) {
		return
	}
	coord, extent := t.Coord, t.Extent
	l.fetch(t, func(ctx context.Context) (any, error) {
		img, err := l.source.FetchColor(ctx, coord, extent)
		if err != nil {
			return nil, fmt.Errorf("fetch color %s: %w", coord, err)
		}
		if img == nil || img.Bounds().Empty() {
			return nil, fmt.Errorf("fetch color %s: empty image", coord)
		}
		return tile.NewColorTexture(l.id, img, int(coord.Level)), nil
	}, func(t *tile.Tile, v any) {
		t.Material.Color[l.id] = v.(*tile.ColorTexture)
	})
}

// SeedChild upscales the parent's quadrant of this layer's image into child.
func (l *ColorLayer) SeedChild(parent, child *tile.Tile) {
	src := parent.Material.Color[l.id]
	if src == nil {
		return
	}
	child.Material.Color[l.id] = src.Quadrant(child.Coord.Quadrant())
}

func (l *ColorLayer) TileReady(t *tile.Tile) bool {
	if !l.Contains(t.Extent) || !l.inZoom(t.Coord.Level) {
		return true
	}
	return l.states.settled(t.ID)
}
