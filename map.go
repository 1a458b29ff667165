// Package geomap drives the level of detail of large geographic datasets.
//
// A Map splits its extent into a quadtree of tiles and decides, every frame,
// which tiles are created, displayed or retired, based on their screen-space
// size. Layers fill the tiles with color and elevation data asynchronously.
// An Instance runs the frame loop over one or more maps.
package geomap

import (
	"slices"
	"time"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/index"
	"github.com/gekko3d/geomap/layer"
	"github.com/gekko3d/geomap/scene"
	"github.com/gekko3d/geomap/sse"
	"github.com/gekko3d/geomap/tile"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Camera is what a map needs to cull and measure tiles.
type Camera interface {
	sse.Camera
	IsBoxVisible(box scene.Box, matrix mgl64.Mat4) bool
}

// FrameContext is passed to every stage of a frame.
type FrameContext struct {
	Camera Camera
	Time   time.Time
	Frame  uint64
}

type Map struct {
	id     uuid.UUID
	extent geo.Extent
	opts   Options

	transform scene.Transform
	logger    Logger
	metrics   *Metrics
	snapshots *SnapshotContainer

	arena      *tile.Arena
	index      *index.Index
	geometries *GeometryCache
	cleanup    *cleanupQueue

	layers   []layer.Layer
	retries  map[tile.ID]time.Time
	instance *Instance
	disposed bool

	frame      uint64
	frameTime  time.Time
	warnedFlat bool
}

// NewMap creates the root tiles of extent. Roots are square-ish: an extent
// twice as wide as tall gets two roots side by side.
func NewMap(extent geo.Extent, opts Options) (*Map, error) {
	if extent.IsZero() {
		return nil, &geo.InvalidExtentError{CRS: extent.CRS()}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	arena := tile.NewArena()
	m := &Map{
		id:         uuid.New(),
		extent:     extent,
		opts:       opts,
		transform:  scene.NewTransform(),
		logger:     NewNopLogger(),
		arena:      arena,
		index:      index.New(arena, index.Options{Diagonals: opts.Diagonals}),
		geometries: NewGeometryCache(),
		cleanup:    newCleanupQueue(),
		retries:    make(map[tile.ID]time.Time),
	}

	nx, ny := geo.SelectBestSubdivisions(extent)
	for i, e := range extent.Split(nx, ny) {
		coord := tile.Coord{Level: 0, X: uint32(i / ny), Y: uint32(i % ny)}
		root := arena.NewRoot(coord, e)
		root.Geometry = m.acquireGeometry(e)
		m.index.AddTile(root)
	}
	m.index.Update()
	return m, nil
}

func (m *Map) ID() uuid.UUID      { return m.id }
func (m *Map) Extent() geo.Extent { return m.extent }
func (m *Map) Options() Options   { return m.opts }
func (m *Map) Disposed() bool     { return m.disposed }

func (m *Map) Geometries() *GeometryCache { return m.geometries }

func (m *Map) Transform() scene.Transform { return m.transform }

// SetTransform places the map in the world. The next frame re-evaluates
// every tile.
func (m *Map) SetTransform(t scene.Transform) {
	m.transform = t
	m.notify(MapChange(m))
}

func (m *Map) SetMetrics(metrics *Metrics) { m.metrics = metrics }

// SetSnapshots makes PostUpdate publish a snapshot to c every frame.
func (m *Map) SetSnapshots(c *SnapshotContainer) { m.snapshots = c }

func (m *Map) notify(src ChangeSource) {
	if m.instance != nil {
		m.instance.Notify(src)
	}
}

func (m *Map) acquireGeometry(e geo.Extent) *tile.Geometry {
	d := e.Dimensions()
	return m.geometries.Acquire(tile.KeyFor(m.opts.Segments, d.Width, d.Height))
}

// Tile returns the live tile with the given id, or nil.
func (m *Map) Tile(id tile.ID) *tile.Tile {
	return m.arena.Get(id)
}

func (m *Map) Roots() []tile.ID {
	return m.index.Roots()
}

func (m *Map) TileCount() int {
	return m.arena.Len()
}

// DisplayedTiles returns the tiles whose content is shown, in depth-first
// order.
func (m *Map) DisplayedTiles() []tile.ID {
	var out []tile.ID
	m.index.Walk(func(t *tile.Tile) bool {
		if t.Displayed() {
			out = append(out, t.ID)
			return false
		}
		return true
	})
	return out
}

// DisplayedTileAt returns the displayed tile containing p, or tile.None. On
// a shared border the finest tile wins.
func (m *Map) DisplayedTileAt(p orb.Point) tile.ID {
	m.index.Update()
	best := tile.None
	var level uint32
	for _, id := range m.index.At(p) {
		t := m.arena.Get(id)
		if t == nil || !t.Displayed() {
			continue
		}
		if best == tile.None || t.Coord.Level > level {
			best, level = id, t.Coord.Level
		}
	}
	return best
}

// DisplayedTileAtWorld is DisplayedTileAt for a point given in world space,
// such as a picked position.
func (m *Map) DisplayedTileAtWorld(p mgl64.Vec3) tile.ID {
	local := m.transform.ToLocal(p)
	return m.DisplayedTileAt(orb.Point{local.X(), local.Y()})
}

// TilesIntersecting returns the live tiles, at any level, overlapping e.
func (m *Map) TilesIntersecting(e geo.Extent) []tile.ID {
	m.index.Update()
	return m.index.Intersecting(e)
}

// Neighbours returns the current neighbours of a live tile.
func (m *Map) Neighbours(id tile.ID) tile.NeighbourList {
	t := m.arena.Get(id)
	if t == nil {
		return tile.NeighbourList{}
	}
	return m.index.Neighbours(t)
}

// Dispose destroys every tile and detaches the layers. The map cannot be
// used afterwards.
func (m *Map) Dispose() {
	if m.disposed {
		return
	}
	for _, id := range m.index.Roots() {
		if t := m.arena.Get(id); t != nil {
			m.destroy(t)
		}
	}
	for _, l := range m.layers {
		l.Detach()
	}
	m.layers = nil
	clear(m.retries)
	if m.instance != nil {
		m.instance.remove(m)
		m.instance = nil
	}
	m.disposed = true
	m.metrics.observeState(0, 0, 0)
}

// Snapshot copies the tile tree and layer states.
func (m *Map) Snapshot() *MapSnapshot {
	s := &MapSnapshot{
		MapID: m.id.String(),
		CRS:   m.extent.CRS(),
		Frame: m.frame,
		Time:  m.frameTime,
	}
	m.index.Walk(func(t *tile.Tile) bool {
		ts := TileSnapshot{
			ID:        t.ID,
			Level:     t.Coord.Level,
			X:         t.Coord.X,
			Y:         t.Coord.Y,
			Extent:    [4]float64{t.Extent.West(), t.Extent.East(), t.Extent.South(), t.Extent.North()},
			Parent:    t.Parent,
			Displayed: t.Displayed(),
			Visible:   t.Visible(),
			Elevation: t.ElevationRange,
		}
		if mat := t.Material; mat != nil {
			if mat.Elevation != nil {
				ts.Layers = append(ts.Layers, mat.Elevation.LayerID)
			}
			for id := range mat.Color {
				ts.Layers = append(ts.Layers, id)
			}
			slices.Sort(ts.Layers)
			for d, st := range mat.Stitching {
				if st == nil {
					continue
				}
				if ts.Neighbours == nil {
					ts.Neighbours = make(map[string]tile.ID)
				}
				ts.Neighbours[tile.Direction(d).String()] = st.Tile
			}
		}
		s.Tiles = append(s.Tiles, ts)
		return true
	})
	for _, l := range m.layers {
		s.Layers = append(s.Layers, LayerSnapshot{
			ID:       l.ID(),
			Kind:     l.Kind().String(),
			Ready:    l.Ready(),
			Loading:  l.Loading(),
			Progress: l.Progress(),
			Visible:  l.Visible(),
			Frozen:   l.Frozen(),
		})
	}
	return s
}
