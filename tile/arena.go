package tile

import (
	"fmt"

	"github.com/gekko3d/geomap/geo"
)

// Arena owns the tiles of one map. Parent and child links are handles into
// the arena, so no tile references another directly.
type Arena struct {
	nodes map[ID]*Tile
	next  ID
}

func NewArena() *Arena {
	return &Arena{
		nodes: make(map[ID]*Tile),
	}
}

func (a *Arena) nextID() ID {
	a.next++
	return a.next
}

func (a *Arena) NewRoot(coord Coord, extent geo.Extent) *Tile {
	t := &Tile{
		ID:       a.nextID(),
		Coord:    coord,
		Extent:   extent,
		Parent:   None,
		Material: NewMaterial(),
	}
	a.nodes[t.ID] = t
	return t
}

// NewChild creates child i of parent. The child inherits the parent's
// elevation range; it is not appended to parent.Children.
func (a *Arena) NewChild(parent *Tile, i int, extent geo.Extent) *Tile {
	if parent.Disposed() {
		panic(fmt.Sprintf("tile: creating child of disposed tile %s", parent.Coord))
	}
	t := &Tile{
		ID:             a.nextID(),
		Coord:          parent.Coord.Child(i),
		Extent:         extent,
		Parent:         parent.ID,
		ElevationRange: parent.ElevationRange,
		ElevationKnown: parent.ElevationKnown,
		Material:       NewMaterial(),
	}
	a.nodes[t.ID] = t
	return t
}

// Get returns nil for unknown or freed handles.
func (a *Arena) Get(id ID) *Tile {
	return a.nodes[id]
}

// Free marks the tile disposed and forgets it.
func (a *Arena) Free(t *Tile) {
	t.disposed.Store(true)
	t.visible.Store(false)
	t.displayed = false
	delete(a.nodes, t.ID)
}

func (a *Arena) Len() int {
	return len(a.nodes)
}

// Ancestors calls fn for the parent chain of t, nearest first, until fn
// returns false.
func (a *Arena) Ancestors(t *Tile, fn func(*Tile) bool) {
	for id := t.Parent; id != None; {
		p := a.nodes[id]
		if p == nil || !fn(p) {
			return
		}
		id = p.Parent
	}
}
