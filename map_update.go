package geomap

import (
	"slices"

	"github.com/gekko3d/geomap/layer"
	"github.com/gekko3d/geomap/sse"
	"github.com/gekko3d/geomap/tile"
	"github.com/go-gl/mathgl/mgl64"
)

// PreUpdate starts a frame. It destroys the sibling groups whose cleanup
// delay expired, refreshes the tile index and returns the tiles the frame
// must visit given what changed since the last one.
func (m *Map) PreUpdate(ctx FrameContext, sources []ChangeSource) []tile.ID {
	if m.disposed {
		return nil
	}
	m.frame = ctx.Frame
	m.frameTime = ctx.Time

	m.metrics.addRetirements(m.runCleanup(ctx.Time))
	m.index.Update()

	if len(sources) == 0 {
		return m.Roots()
	}

	var changed []*tile.Tile
	for _, src := range sources {
		switch src.Kind {
		case ChangeFull, ChangeCamera:
			return m.Roots()
		case ChangeMap:
			if src.Owner == m.id {
				return m.Roots()
			}
		case ChangeTile:
			if src.Owner != m.id {
				continue
			}
			if t := m.arena.Get(src.Tile); t != nil {
				changed = append(changed, t)
			}
		}
	}
	if len(changed) == 0 {
		return nil
	}

	lca := changed[0]
	for _, t := range changed[1:] {
		if lca = m.commonAncestor(lca, t); lca == nil {
			return m.Roots()
		}
	}
	return []tile.ID{m.updateRoot(lca).ID}
}

func (m *Map) commonAncestor(a, b *tile.Tile) *tile.Tile {
	for a != nil && b != nil && a.Coord.Level > b.Coord.Level {
		a = m.arena.Get(a.Parent)
	}
	for a != nil && b != nil && b.Coord.Level > a.Coord.Level {
		b = m.arena.Get(b.Parent)
	}
	for a != nil && b != nil && a != b {
		a = m.arena.Get(a.Parent)
		b = m.arena.Get(b.Parent)
	}
	if a == nil || b == nil {
		return nil
	}
	return a
}

// updateRoot climbs from t to the highest ancestor that is displayed or
// culled. A tile below such an ancestor is not part of the displayed tree,
// so its own state can only be settled by revisiting the ancestor.
func (m *Map) updateRoot(t *tile.Tile) *tile.Tile {
	root := t
	m.arena.Ancestors(t, func(a *tile.Tile) bool {
		if a.Displayed() || !a.Visible() {
			root = a
		}
		return true
	})
	return root
}

// Update runs the level of detail state machine on one tile and returns the
// tiles to visit next in this frame.
func (m *Map) Update(ctx FrameContext, id tile.ID) []tile.ID {
	if m.disposed {
		return nil
	}
	t := m.arena.Get(id)
	if t == nil {
		return nil
	}
	var parent *tile.Tile
	if !t.IsRoot() {
		if parent = m.arena.Get(t.Parent); parent == nil {
			return nil
		}
	}

	matrix := m.transform.ObjectToWorld()
	lctx := layer.Context{Time: ctx.Time}

	if !ctx.Camera.IsBoxVisible(t.Box(), matrix) {
		t.SetVisible(false)
		t.SetDisplayed(false)
		m.retireChildren(t, ctx)
		return nil
	}
	t.SetVisible(true)

	// The parent still shows its own content while its children load: fetch
	// their data but keep them hidden.
	if parent != nil && parent.Displayed() {
		t.SetDisplayed(false)
		m.updateLayers(lctx, t)
		m.retireChildren(t, ctx)
		return nil
	}

	if m.shouldSubdivide(ctx, t, matrix) && (len(t.Children) > 0 || m.canSubdivide(t)) {
		m.subdivide(t)
		m.cleanup.unmark(t.ID)
		ready := m.childrenReady(ctx, t, matrix)
		t.SetDisplayed(!ready)
		if !ready {
			m.updateLayers(lctx, t)
		}
		return slices.Clone(t.Children)
	}

	t.SetDisplayed(true)
	m.updateLayers(lctx, t)
	m.retireChildren(t, ctx)
	return nil
}

// retireChildren hides the subtree below t and schedules its destruction.
func (m *Map) retireChildren(t *tile.Tile, ctx FrameContext) {
	if len(t.Children) == 0 {
		return
	}
	m.hideDescendants(t)
	m.cleanup.mark(t.ID, ctx.Time)
}

func (m *Map) hideDescendants(t *tile.Tile) {
	for _, id := range t.Children {
		c := m.arena.Get(id)
		if c == nil {
			continue
		}
		c.SetVisible(false)
		c.SetDisplayed(false)
		m.hideDescendants(c)
	}
}

func (m *Map) updateLayers(ctx layer.Context, t *tile.Tile) {
	for _, l := range m.layers {
		l.Update(ctx, t)
	}
}

func (m *Map) shouldSubdivide(ctx FrameContext, t *tile.Tile, matrix mgl64.Mat4) bool {
	if t.Coord.Level >= m.opts.MaxSubdivisionLevel {
		return false
	}
	if t.Coord.Level < m.opts.MinSubdivisionLevel {
		return true
	}
	d := t.Extent.Dimensions()
	res := sse.ComputeFromBox(ctx.Camera, t.Box(), matrix, max(d.Width, d.Height), sse.Mode2D)
	if res == nil {
		return true
	}
	return res.Exceeds(m.opts.TextureReferenceSize * m.opts.SSEThreshold)
}

// canSubdivide refuses to create children while elevation data that would
// bound them is still missing.
func (m *Map) canSubdivide(t *tile.Tile) bool {
	for _, l := range m.layers {
		if l.Kind() != layer.Elevation || !l.Visible() || l.Frozen() || !l.Contains(t.Extent) {
			continue
		}
		if !l.Ready() || !l.TileReady(t) {
			return false
		}
	}
	return true
}

// childrenReady reports whether every visible child has its content.
func (m *Map) childrenReady(ctx FrameContext, t *tile.Tile, matrix mgl64.Mat4) bool {
	for _, id := range t.Children {
		c := m.arena.Get(id)
		if c == nil || !ctx.Camera.IsBoxVisible(c.Box(), matrix) {
			continue
		}
		for _, l := range m.layers {
			if !l.Visible() || l.Frozen() {
				continue
			}
			if !l.TileReady(c) {
				return false
			}
		}
	}
	return true
}

// subdivide creates the four children of t, seeded with t's data. It does
// nothing if they exist.
func (m *Map) subdivide(t *tile.Tile) {
	if len(t.Children) > 0 {
		return
	}
	if t.IsRoot() && !t.ElevationKnown && !m.hasElevationLayer() && !m.warnedFlat {
		m.warnedFlat = true
		m.logger.Warnf("map %s: no elevation data, tiles use a flat z-range", m.id)
	}

	hasColor := t.Material.HasColor()
	extents := t.Extent.Split(2, 2)
	for i, e := range extents {
		c := m.arena.NewChild(t, i, e)
		c.Geometry = m.acquireGeometry(e)
		for _, l := range m.layers {
			if l.Kind() == layer.Elevation || hasColor {
				l.SeedChild(t, c)
			}
		}
		m.index.AddTile(c)
		t.Children = append(t.Children, c.ID)
	}
	m.metrics.incSubdivisions()
}

// PostUpdate ends a frame: it refreshes the stitching data of every
// displayed tile and publishes metrics and the snapshot.
func (m *Map) PostUpdate(ctx FrameContext) {
	if m.disposed {
		return
	}
	displayed := 0
	m.index.Walk(func(t *tile.Tile) bool {
		if !t.Displayed() {
			return true
		}
		displayed++
		for d, id := range m.index.Neighbours(t) {
			var st *tile.Stitch
			if n := m.arena.Get(id); id != tile.None && n != nil {
				st = tile.NewStitch(t, n)
			}
			t.Material.Stitching[d] = st
		}
		return false
	})

	m.metrics.observeState(m.arena.Len(), displayed, m.cleanup.len())
	if m.snapshots != nil {
		m.snapshots.Update(m.Snapshot())
	}
}
