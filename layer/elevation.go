package layer

import (
	"context"
	"fmt"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
)

// ElevationData is a corner-aligned height grid, row 0 at the south.
type ElevationData struct {
	Width  int
	Height int
	Data   []float32
}

type ElevationSource interface {
	FetchElevation(ctx context.Context, coord tile.Coord, extent geo.Extent) (*ElevationData, error)
}

// Initializer is implemented by sources that need setup before serving
// tiles, e.g. reading a catalogue. The layer is not ready until Init returns.
type Initializer interface {
	Init(ctx context.Context) error
}

type ElevationLayer struct {
	base
	source ElevationSource

	ready   bool
	initErr error
}

var _ Layer = (*ElevationLayer)(nil)

func NewElevationLayer(id string, source ElevationSource, opts Options) *ElevationLayer {
	return &ElevationLayer{
		base:   newBase(id, Elevation, opts),
		source: source,
	}
}

// Attach starts the source initialisation, if any, on the host scheduler.
func (l *ElevationLayer) Attach(h Host) error {
	if err := l.base.Attach(h); err != nil {
		return err
	}
	init, ok := l.source.(Initializer)
	if !ok {
		l.ready = true
		return nil
	}
	h.Scheduler().Submit(queue.NewRequest(
		func(ctx context.Context) (any, error) { return nil, init.Init(ctx) },
		nil,
		func(_ any, err error) {
			if l.host != h {
				return
			}
			if err != nil {
				l.initErr = err
				h.Logger().Warnf("layer %s: init: %v", l.id, err)
				return
			}
			l.ready = true
			for _, id := range l.pendingTiles() {
				h.TileChanged(id)
			}
		},
	))
	return nil
}

// pendingTiles are the tiles that asked for data before the layer was
// ready.
func (l *ElevationLayer) pendingTiles() []tile.ID {
	out := make([]tile.ID, 0, len(l.states.tiles))
	for id := range l.states.tiles {
		out = append(out, id)
	}
	return out
}

func (l *ElevationLayer) Detach() {
	l.base.Detach()
	l.ready = false
	l.initErr = nil
}

func (l *ElevationLayer) Ready() bool { return l.ready }

func (l *ElevationLayer) Loading() bool {
	return l.base.Loading() || (l.host != nil && !l.ready && l.initErr == nil)
}

// InitErr is the error returned by the source initialisation, if any.
func (l *ElevationLayer) InitErr() error { return l.initErr }

func (l *ElevationLayer) Update(ctx Context, t *tile.Tile) {
	if !l.ready {
		if l.host != nil {
			// Remember the tile so it is revisited once the layer is ready.
			l.states.get(t.ID)
		}
		return
	}
	if !l.wants(ctx, t) {
		return
	}
	coord, extent := t.Coord, t.Extent
	l.fetch(t, func(ctx context.Context) (any, error) {
		d, err := l.source.FetchElevation(ctx, coord, extent)
		if err != nil {
			return nil, fmt.Errorf("fetch elevation %s: %w", coord, err)
		}
		if d == nil || d.Width < 1 || d.Height < 1 || len(d.Data) != d.Width*d.Height {
			return nil, fmt.Errorf("fetch elevation %s: malformed grid", coord)
		}
		return tile.NewElevationTexture(l.id, d.Width, d.Height, d.Data, int(coord.Level)), nil
	}, l.apply)
}

func (l *ElevationLayer) apply(t *tile.Tile, v any) {
	tex := v.(*tile.ElevationTexture)
	t.Material.Elevation = tex
	t.SetElevationRange(tex.Range())
}

// SeedChild copies the parent's quadrant of this layer's heights into child.
func (l *ElevationLayer) SeedChild(parent, child *tile.Tile) {
	src := parent.Material.Elevation
	if src == nil || src.LayerID != l.id {
		return
	}
	child.Material.Elevation = src.Quadrant(child.Coord.Quadrant())
}

// TileReady is true once the fetch for t has an outcome, or when no data
// will come: t is outside the layer's coverage or zoom range. A failed tile
// keeps its seeded heights until a retry succeeds.
func (l *ElevationLayer) TileReady(t *tile.Tile) bool {
	if !l.Contains(t.Extent) || !l.inZoom(t.Coord.Level) {
		return true
	}
	return l.states.settled(t.ID)
}
