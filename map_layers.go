package geomap

import (
	"fmt"
	"slices"
	"time"

	"github.com/gekko3d/geomap/layer"
	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
)

// layerHost is the Host a map gives its layers.
type layerHost struct {
	m *Map
}

func (h layerHost) Scheduler() queue.Scheduler { return h.m.instance.scheduler }
func (h layerHost) Logger() layer.Logger       { return h.m.logger }

func (h layerHost) TileChanged(id tile.ID) {
	if h.m.arena.Get(id) != nil {
		h.m.notify(TileChange(h.m, id))
	}
}

// RetryAt keeps the earliest deadline per tile.
func (h layerHost) RetryAt(id tile.ID, at time.Time) {
	if prev, ok := h.m.retries[id]; !ok || at.Before(prev) {
		h.m.retries[id] = at
	}
}

// wakeRetries notifies the tiles whose retry deadline has passed and returns
// how many were woken.
func (m *Map) wakeRetries(now time.Time) int {
	n := 0
	for id, at := range m.retries {
		if now.Before(at) {
			continue
		}
		delete(m.retries, id)
		if m.arena.Get(id) != nil {
			m.notify(TileChange(m, id))
			n++
		}
	}
	return n
}

// AddLayer attaches l on top of the existing layers. The map must have been
// added to an Instance.
func (m *Map) AddLayer(l layer.Layer) error {
	if m.disposed {
		return ErrDisposed
	}
	if m.instance == nil {
		return &NotAttachedError{LayerID: l.ID()}
	}
	if m.layerIndex(l.ID()) >= 0 {
		return &DuplicateLayerError{LayerID: l.ID()}
	}
	if err := l.Attach(layerHost{m: m}); err != nil {
		return fmt.Errorf("attach layer %q: %w", l.ID(), err)
	}
	m.layers = append(m.layers, l)
	m.logger.Debugf("map %s: added %s layer %q", m.id, l.Kind(), l.ID())
	m.notify(MapChange(m))
	return nil
}

// RemoveLayer detaches the layer and drops its data from every tile. Removing
// the last elevation layer flattens every tile.
func (m *Map) RemoveLayer(id string) error {
	i := m.layerIndex(id)
	if i < 0 {
		return &LayerNotFoundError{LayerID: id}
	}
	l := m.layers[i]
	m.layers = slices.Delete(m.layers, i, i+1)

	flatten := l.Kind() == layer.Elevation && !m.hasElevationLayer()
	m.index.Walk(func(t *tile.Tile) bool {
		l.UnregisterNode(t)
		switch {
		case flatten:
			t.ResetElevation()
		case l.Kind() == layer.Elevation:
			if e := t.Material.Elevation; e != nil && e.LayerID == id {
				m.revertElevation(t)
			}
		default:
			delete(t.Material.Color, id)
		}
		return true
	})
	l.Detach()

	m.logger.Debugf("map %s: removed %s layer %q", m.id, l.Kind(), id)
	m.notify(MapChange(m))
	return nil
}

// revertElevation drops heights owned by a removed layer. The tile falls
// back to its parent's range and seeded heights, and the remaining elevation
// layers fetch it again. Parents are reverted before their children.
func (m *Map) revertElevation(t *tile.Tile) {
	t.ResetElevation()
	parent := m.arena.Get(t.Parent)
	if parent != nil && parent.ElevationKnown {
		t.SetElevationRange(parent.ElevationRange)
	}
	for _, l := range m.layers {
		if l.Kind() != layer.Elevation {
			continue
		}
		l.UnregisterNode(t)
		if parent != nil {
			l.SeedChild(parent, t)
		}
	}
}

func (m *Map) layerIndex(id string) int {
	return slices.IndexFunc(m.layers, func(l layer.Layer) bool { return l.ID() == id })
}

func (m *Map) hasElevationLayer() bool {
	return slices.ContainsFunc(m.layers, func(l layer.Layer) bool { return l.Kind() == layer.Elevation })
}

// Layer returns the attached layer with the given id, or nil.
func (m *Map) Layer(id string) layer.Layer {
	if i := m.layerIndex(id); i >= 0 {
		return m.layers[i]
	}
	return nil
}

// Layers returns the attached layers, back to front.
func (m *Map) Layers() []layer.Layer {
	return slices.Clone(m.layers)
}

// ColorLayerOrder returns the color layer ids in painting order, back to
// front.
func (m *Map) ColorLayerOrder() []string {
	var out []string
	for _, l := range m.layers {
		if l.Kind() == layer.Color {
			out = append(out, l.ID())
		}
	}
	return out
}

// MoveLayerUp moves the layer one step towards the front.
func (m *Map) MoveLayerUp(id string) error {
	i := m.layerIndex(id)
	if i < 0 {
		return &LayerNotFoundError{LayerID: id}
	}
	return m.MoveLayerToIndex(id, min(i+1, len(m.layers)-1))
}

// MoveLayerDown moves the layer one step towards the back.
func (m *Map) MoveLayerDown(id string) error {
	i := m.layerIndex(id)
	if i < 0 {
		return &LayerNotFoundError{LayerID: id}
	}
	return m.MoveLayerToIndex(id, max(i-1, 0))
}

// MoveLayerToIndex moves the layer to position to, clamped to the layer
// count.
func (m *Map) MoveLayerToIndex(id string, to int) error {
	i := m.layerIndex(id)
	if i < 0 {
		return &LayerNotFoundError{LayerID: id}
	}
	to = min(max(to, 0), len(m.layers)-1)
	if to == i {
		return nil
	}
	l := m.layers[i]
	m.layers = slices.Delete(m.layers, i, i+1)
	m.layers = slices.Insert(m.layers, to, l)
	m.notify(MapChange(m))
	return nil
}
