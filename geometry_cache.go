package geomap

import (
	"github.com/gekko3d/geomap/tile"
	"github.com/google/uuid"
)

// GeometryCache shares grid geometries between tiles of the same size.
// Entries are reference counted and dropped with their last user.
type GeometryCache struct {
	entries map[tile.GeometryKey]*geometryEntry
}

type geometryEntry struct {
	geometry *tile.Geometry
	refs     int
}

func NewGeometryCache() *GeometryCache {
	return &GeometryCache{entries: make(map[tile.GeometryKey]*geometryEntry)}
}

// Acquire returns the geometry for key, building it on first use.
func (c *GeometryCache) Acquire(key tile.GeometryKey) *tile.Geometry {
	e, ok := c.entries[key]
	if !ok {
		e = &geometryEntry{geometry: tile.BuildGeometry(uuid.NewString(), key)}
		c.entries[key] = e
	}
	e.refs++
	return e.geometry
}

func (c *GeometryCache) Release(g *tile.Geometry) {
	if g == nil {
		return
	}
	e, ok := c.entries[g.Key]
	if !ok || e.geometry != g {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(c.entries, g.Key)
	}
}

func (c *GeometryCache) Len() int { return len(c.entries) }

func (c *GeometryCache) Refs(key tile.GeometryKey) int {
	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}
