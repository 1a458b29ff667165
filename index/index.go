// Package index tracks the live tiles of a map and finds their neighbours.
package index

import (
	"fmt"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/tile"
	"github.com/paulmach/orb"
)

// DefaultEpsilon is the strip thickness, as a fraction of the tile size.
const DefaultEpsilon = 1e-3

type Options struct {
	// Diagonals enables the four corner neighbours.
	Diagonals bool
	Epsilon   float64
}

// Index maps tile coordinates to live tiles.
//
// Mutations only mark the R-tree stale; Update rebuilds it once per frame, so
// a frame that adds or retires many tiles pays for a single bulk load.
type Index struct {
	arena *tile.Arena
	opts  Options

	byCoord  map[tile.Coord]tile.ID
	roots    []tile.ID
	rootTree *rtreego.Rtree

	tree  *rtreego.Rtree
	dirty bool
}

type entry struct {
	id   tile.ID
	rect rtreego.Rect
}

func (e entry) Bounds() rtreego.Rect { return e.rect }

// Rects hold slices, so entries cannot be compared with ==.
func sameEntry(a, b rtreego.Spatial) bool {
	return a.(entry).id == b.(entry).id
}

func rectOf(e geo.Extent) rtreego.Rect {
	d := e.Dimensions()
	r, err := rtreego.NewRect(rtreego.Point{e.West(), e.South()}, []float64{d.Width, d.Height})
	if err != nil {
		// Extents are validated on construction.
		panic(fmt.Sprintf("index: extent %s: %v", e, err))
	}
	return r
}

func New(arena *tile.Arena, opts Options) *Index {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	return &Index{
		arena:    arena,
		opts:     opts,
		byCoord:  make(map[tile.Coord]tile.ID),
		rootTree: rtreego.NewTree(2, 2, 8),
		tree:     rtreego.NewTree(2, 25, 50),
	}
}

// AddTile registers t. It must be called once per tile, before t is linked
// into its parent's children.
func (idx *Index) AddTile(t *tile.Tile) {
	if _, ok := idx.byCoord[t.Coord]; ok {
		panic(fmt.Sprintf("index: tile %s already indexed", t.Coord))
	}
	if !t.IsRoot() {
		p := idx.arena.Get(t.Parent)
		if p == nil || p.Disposed() {
			panic(fmt.Sprintf("index: tile %s has no live parent", t.Coord))
		}
	}

	idx.byCoord[t.Coord] = t.ID
	if t.IsRoot() {
		idx.roots = append(idx.roots, t.ID)
		idx.rootTree.Insert(entry{id: t.ID, rect: rectOf(t.Extent)})
	}
	idx.dirty = true
}

func (idx *Index) RemoveTile(t *tile.Tile) {
	if id, ok := idx.byCoord[t.Coord]; !ok || id != t.ID {
		return
	}
	delete(idx.byCoord, t.Coord)
	if t.IsRoot() {
		idx.roots = slices.DeleteFunc(idx.roots, func(id tile.ID) bool { return id == t.ID })
		idx.rootTree.DeleteWithComparator(entry{id: t.ID, rect: rectOf(t.Extent)}, sameEntry)
	}
	idx.dirty = true
}

// Get returns the live tile at c, or nil.
func (idx *Index) Get(c tile.Coord) *tile.Tile {
	id, ok := idx.byCoord[c]
	if !ok {
		return nil
	}
	return idx.arena.Get(id)
}

func (idx *Index) Len() int { return len(idx.byCoord) }

func (idx *Index) Roots() []tile.ID {
	return slices.Clone(idx.roots)
}

// Update rebuilds the spatial lookup if tiles changed since the last call.
func (idx *Index) Update() {
	if !idx.dirty {
		return
	}
	objs := make([]rtreego.Spatial, 0, len(idx.byCoord))
	for _, id := range idx.byCoord {
		t := idx.arena.Get(id)
		if t == nil {
			continue
		}
		objs = append(objs, entry{id: id, rect: rectOf(t.Extent)})
	}
	idx.tree = rtreego.NewTree(2, 25, 50, objs...)
	idx.dirty = false
}

// Stale reports whether Update has pending work.
func (idx *Index) Stale() bool { return idx.dirty }

// Intersecting returns the tiles, at any level, whose extent overlaps e as of
// the last Update, ordered by id.
func (idx *Index) Intersecting(e geo.Extent) []tile.ID {
	var out []tile.ID
	for _, s := range idx.tree.SearchIntersect(rectOf(e)) {
		id := s.(entry).id
		if t := idx.arena.Get(id); t != nil && t.Extent.Intersects(e) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// At returns the tiles containing p as of the last Update, ordered by id.
func (idx *Index) At(p orb.Point) []tile.ID {
	r, err := rtreego.NewRect(rtreego.Point{p.X(), p.Y()}, []float64{1e-12, 1e-12})
	if err != nil {
		return nil
	}
	var out []tile.ID
	for _, s := range idx.tree.SearchIntersect(r) {
		id := s.(entry).id
		if t := idx.arena.Get(id); t != nil && t.Extent.IsPointInside(p, 0) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Walk visits tiles depth-first from the roots in child order. Returning
// false from fn skips the tile's descendants.
func (idx *Index) Walk(fn func(t *tile.Tile) bool) {
	stack := make([]tile.ID, 0, 64)
	for i := len(idx.roots) - 1; i >= 0; i-- {
		stack = append(stack, idx.roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t := idx.arena.Get(id)
		if t == nil || !fn(t) {
			continue
		}
		for i := len(t.Children) - 1; i >= 0; i-- {
			stack = append(stack, t.Children[i])
		}
	}
}
