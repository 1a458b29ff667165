package geomap

import (
	"testing"

	"github.com/gekko3d/geomap/layer"
	"github.com/gekko3d/geomap/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_EncodeDecode(t *testing.T) {
	h := newHarness(t, square(), DefaultOptions())
	require.NoError(t, h.m.AddLayer(layer.NewElevationLayer("dem", &demSource{}, layer.Options{})))
	h.move(500, 500, 2500)
	for i := 0; i < 3; i++ {
		h.frame()
	}

	s := h.m.Snapshot()
	assert.Equal(t, h.m.ID().String(), s.MapID)
	assert.Equal(t, crs, s.CRS)
	assert.Equal(t, uint64(3), s.Frame)
	require.Len(t, s.Tiles, 5)
	require.Len(t, s.Layers, 1)
	assert.Equal(t, LayerSnapshot{ID: "dem", Kind: "elevation", Ready: true, Progress: 1, Visible: true}, s.Layers[0])

	root := s.Tiles[0]
	assert.Equal(t, tile.None, root.Parent)
	assert.False(t, root.Displayed)
	assert.Equal(t, [4]float64{0, 1000, 0, 1000}, root.Extent)
	assert.Equal(t, tile.ElevationRange{Min: 10, Max: 20}, root.Elevation)

	displayed := s.Displayed()
	require.Len(t, displayed, 4)
	for _, ts := range displayed {
		assert.Equal(t, root.ID, ts.Parent)
		assert.NotEmpty(t, ts.Neighbours)
	}

	data, err := s.Encode()
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s.MapID, decoded.MapID)
	assert.True(t, s.Time.Equal(decoded.Time))
	assert.Equal(t, s.Tiles, decoded.Tiles)
	assert.Equal(t, s.Layers, decoded.Layers)

	_, err = DecodeSnapshot([]byte("{"))
	assert.Error(t, err)
}

func TestSnapshotContainer(t *testing.T) {
	var c SnapshotContainer
	assert.Nil(t, c.Get())

	h := newHarness(t, square(), DefaultOptions())
	h.m.SetSnapshots(&c)
	h.frame()
	first := c.Get()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.Frame)

	h.frame()
	assert.Equal(t, uint64(2), c.Get().Frame)
	assert.Equal(t, uint64(1), first.Frame, "published snapshots are not modified")
}

func TestGeometryCache(t *testing.T) {
	c := NewGeometryCache()
	key := tile.KeyFor(4, 250, 250)

	a := c.Acquire(key)
	b := c.Acquire(tile.KeyFor(4, 250.0000000001, 250))
	assert.Same(t, a, b)
	assert.Equal(t, 2, c.Refs(key))
	assert.Len(t, a.Indices, 4*4*6)

	other := c.Acquire(tile.KeyFor(4, 125, 125))
	assert.NotEqual(t, a.ID, other.ID)
	assert.Equal(t, 2, c.Len())

	c.Release(a)
	assert.Equal(t, 1, c.Refs(key))
	c.Release(b)
	assert.Equal(t, 0, c.Refs(key))
	assert.Equal(t, 1, c.Len())

	// Released geometries are rebuilt on next use.
	assert.NotSame(t, a, c.Acquire(key))
	c.Release(nil)
}
