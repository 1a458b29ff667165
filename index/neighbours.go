package index

import (
	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/tile"
)

// Neighbours returns, for each direction, the tile covering the area just
// outside t's border on that side. A neighbour may be coarser than t, never
// finer; the slot is None at the edge of the dataset.
func (idx *Index) Neighbours(t *tile.Tile) tile.NeighbourList {
	var out tile.NeighbourList
	count := tile.CardinalCount
	if idx.opts.Diagonals {
		count = tile.DirectionCount
	}
	for d := 0; d < count; d++ {
		strip, ok := idx.borderStrip(t.Extent, tile.Direction(d))
		if !ok {
			continue
		}
		if n := idx.find(t, strip); n != nil {
			out[d] = n.ID
		}
	}
	return out
}

// borderStrip is the thin extent just outside e on side dir, shrunk along
// the border so it never reaches the corner tiles.
func (idx *Index) borderStrip(e geo.Extent, dir tile.Direction) (geo.Extent, bool) {
	d := e.Dimensions()
	ew := d.Width * idx.opts.Epsilon
	eh := d.Height * idx.opts.Epsilon
	w, east, s, n := e.West(), e.East(), e.South(), e.North()

	var err error
	var p geo.Extent
	switch dir {
	case tile.North:
		p, err = geo.NewExtent(e.CRS(), w+ew, east-ew, n, n+eh)
	case tile.South:
		p, err = geo.NewExtent(e.CRS(), w+ew, east-ew, s-eh, s)
	case tile.East:
		p, err = geo.NewExtent(e.CRS(), east, east+ew, s+eh, n-eh)
	case tile.West:
		p, err = geo.NewExtent(e.CRS(), w-ew, w, s+eh, n-eh)
	case tile.NorthEast:
		p, err = geo.NewExtent(e.CRS(), east, east+ew, n, n+eh)
	case tile.SouthEast:
		p, err = geo.NewExtent(e.CRS(), east, east+ew, s-eh, s)
	case tile.SouthWest:
		p, err = geo.NewExtent(e.CRS(), w-ew, w, s-eh, s)
	case tile.NorthWest:
		p, err = geo.NewExtent(e.CRS(), w-ew, w, n, n+eh)
	}
	return p, err == nil
}

func (idx *Index) find(t *tile.Tile, strip geo.Extent) *tile.Tile {
	// Up: the nearest ancestor covering the strip.
	var start *tile.Tile
	idx.arena.Ancestors(t, func(p *tile.Tile) bool {
		if strip.IsInside(p.Extent, 0) {
			start = p
			return false
		}
		return true
	})
	fromAncestor := start != nil
	if !fromAncestor {
		start = idx.rootCovering(strip)
		if start == nil {
			return nil
		}
	}

	// Down: the finest existing tile covering the strip, no finer than t.
	// Stop at a displayed tile, whose descendants are hidden.
	node := start
	for {
		if !fromAncestor && (node.Displayed() || node.Coord.Level >= t.Coord.Level) {
			return node
		}
		var next *tile.Tile
		for _, id := range node.Children {
			c := idx.arena.Get(id)
			if c != nil && strip.IsInside(c.Extent, 0) {
				next = c
				break
			}
		}
		if next == nil {
			if fromAncestor {
				// An ancestor of t is not a neighbour.
				return nil
			}
			return node
		}
		node = next
		fromAncestor = false
	}
}

func (idx *Index) rootCovering(strip geo.Extent) *tile.Tile {
	for _, s := range idx.rootTree.SearchIntersect(rectOf(strip)) {
		r := idx.arena.Get(s.(entry).id)
		if r != nil && strip.IsInside(r.Extent, 0) {
			return r
		}
	}
	return nil
}
