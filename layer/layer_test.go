package layer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crs = "EPSG:3857"

type testHost struct {
	sched   *queue.Manual
	changed []tile.ID
	retries map[tile.ID]time.Time
	warns   []string
}

func newTestHost() *testHost {
	return &testHost{sched: queue.NewManual()}
}

func (h *testHost) Scheduler() queue.Scheduler { return h.sched }
func (h *testHost) TileChanged(id tile.ID)     { h.changed = append(h.changed, id) }
func (h *testHost) Logger() Logger             { return h }

func (h *testHost) RetryAt(id tile.ID, at time.Time) {
	if h.retries == nil {
		h.retries = make(map[tile.ID]time.Time)
	}
	h.retries[id] = at
}

func (h *testHost) Debugf(format string, args ...any) {}
func (h *testHost) Warnf(format string, args ...any) {
	h.warns = append(h.warns, fmt.Sprintf(format, args...))
}

func (h *testHost) flush() {
	h.sched.RunPending(context.Background())
	h.sched.Drain()
}

type flatElevation struct {
	mu    sync.Mutex
	calls int
	err   error
	init  bool
}

func (s *flatElevation) FetchElevation(ctx context.Context, coord tile.Coord, extent geo.Extent) (*ElevationData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	h := float32(coord.Level) * 10
	return &ElevationData{Width: 2, Height: 2, Data: []float32{h, h, h + 5, h + 5}}, nil
}

type initElevation struct {
	flatElevation
}

func (s *initElevation) Init(ctx context.Context) error {
	s.init = true
	return nil
}

type solidColor struct {
	c color.RGBA
}

func (s solidColor) FetchColor(ctx context.Context, coord tile.Coord, extent geo.Extent) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, s.c)
		}
	}
	return img, nil
}

func visibleRoot() (*tile.Arena, *tile.Tile) {
	a := tile.NewArena()
	t := a.NewRoot(tile.Coord{}, geo.MustExtent(crs, 0, 4, 0, 4))
	t.SetVisible(true)
	return a, t
}

func TestElevationLayer_FetchAndApply(t *testing.T) {
	h := newTestHost()
	src := &flatElevation{}
	l := NewElevationLayer("dem", src, Options{})
	require.NoError(t, l.Attach(h))
	assert.True(t, l.Ready())
	assert.ErrorIs(t, l.Attach(h), ErrAttached)

	_, root := visibleRoot()
	ctx := Context{Time: time.Unix(0, 0)}

	l.Update(ctx, root)
	assert.True(t, l.Loading())
	assert.Equal(t, 0.0, l.Progress())
	assert.Equal(t, Loading, l.State(root.ID))
	assert.False(t, l.TileReady(root))

	// A tile already loading is not requested again.
	l.Update(ctx, root)
	assert.Equal(t, 1, h.sched.Pending())

	h.flush()
	require.NotNil(t, root.Material.Elevation)
	assert.Equal(t, "dem", root.Material.Elevation.LayerID)
	assert.Equal(t, tile.ElevationRange{Min: 0, Max: 5}, root.ElevationRange)
	assert.True(t, root.ElevationKnown)
	assert.Equal(t, Ready, l.State(root.ID))
	assert.True(t, l.TileReady(root))
	assert.False(t, l.Loading())
	assert.Equal(t, 1.0, l.Progress())
	assert.Equal(t, []tile.ID{root.ID}, h.changed)

	l.Update(ctx, root)
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, 1, src.calls)
}

func TestLayer_EarlyDropWhenHidden(t *testing.T) {
	h := newTestHost()
	src := &flatElevation{}
	l := NewElevationLayer("dem", src, Options{})
	require.NoError(t, l.Attach(h))
	_, root := visibleRoot()

	l.Update(Context{}, root)
	root.SetVisible(false)
	h.flush()

	assert.Equal(t, 0, src.calls)
	assert.Equal(t, Idle, l.State(root.ID))
	assert.Nil(t, root.Material.Elevation)

	// Dropped tiles are requested again once visible.
	root.SetVisible(true)
	l.Update(Context{}, root)
	h.flush()
	assert.Equal(t, Ready, l.State(root.ID))
}

func TestLayer_RetiredTileIgnored(t *testing.T) {
	h := newTestHost()
	l := NewElevationLayer("dem", &flatElevation{}, Options{})
	require.NoError(t, l.Attach(h))
	arena, root := visibleRoot()

	l.Update(Context{}, root)
	l.UnregisterNode(root)
	arena.Free(root)
	h.flush()

	assert.Empty(t, h.changed)
	assert.False(t, l.Loading())
}

func TestLayer_FailureBackoff(t *testing.T) {
	h := newTestHost()
	src := &flatElevation{err: errors.New("unavailable")}
	l := NewElevationLayer("dem", src, Options{})
	require.NoError(t, l.Attach(h))
	_, root := visibleRoot()

	now := time.Unix(100, 0)
	l.Update(Context{Time: now}, root)
	h.flush()
	assert.Equal(t, Failed, l.State(root.ID))
	assert.True(t, l.TileReady(root), "a failed tile must not block its siblings")
	assert.Equal(t, now.Add(BaseRetryDelay), h.retries[root.ID])

	// Too early for a retry.
	l.Update(Context{Time: now}, root)
	assert.Equal(t, 0, h.sched.Pending())

	for i := 1; i < MaxRetries; i++ {
		now = h.retries[root.ID]
		l.Update(Context{Time: now}, root)
		require.Equal(t, 1, h.sched.Pending(), "retry %d", i)
		h.flush()
		if i < MaxRetries-1 {
			assert.Equal(t, now.Add(BaseRetryDelay<<i), h.retries[root.ID])
		}
	}
	assert.Equal(t, MaxRetries, src.calls)
	assert.True(t, l.TileReady(root))
	assert.Len(t, h.warns, 1)

	l.Update(Context{Time: now.Add(time.Hour)}, root)
	assert.Equal(t, 0, h.sched.Pending())
}

func TestElevationLayer_Initializer(t *testing.T) {
	h := newTestHost()
	src := &initElevation{}
	l := NewElevationLayer("dem", src, Options{})
	require.NoError(t, l.Attach(h))
	_, root := visibleRoot()

	assert.False(t, l.Ready())
	assert.True(t, l.Loading())

	l.Update(Context{}, root)
	assert.Equal(t, 1, h.sched.Pending(), "only the init request")

	h.flush()
	assert.True(t, src.init)
	assert.True(t, l.Ready())
	assert.Equal(t, []tile.ID{root.ID}, h.changed)

	l.Update(Context{}, root)
	h.flush()
	assert.NotNil(t, root.Material.Elevation)
}

func TestLayer_CoverageAndZoom(t *testing.T) {
	h := newTestHost()
	l := NewElevationLayer("dem", &flatElevation{}, Options{
		Extent:   geo.MustExtent(crs, 10, 20, 10, 20),
		MinLevel: 1,
		MaxLevel: 3,
	})
	require.NoError(t, l.Attach(h))
	arena, root := visibleRoot()

	assert.False(t, l.Contains(root.Extent))
	assert.True(t, l.TileReady(root))
	l.Update(Context{}, root)
	assert.Equal(t, 0, h.sched.Pending())

	l2 := NewElevationLayer("dem2", &flatElevation{}, Options{MinLevel: 1, MaxLevel: 1})
	require.NoError(t, l2.Attach(h))
	assert.True(t, l2.TileReady(root), "below the zoom range")

	child := arena.NewChild(root, 0, root.Extent.Split(2, 2)[0])
	child.SetVisible(true)
	assert.False(t, l2.TileReady(child))
	l2.Update(Context{}, child)
	assert.Equal(t, 1, h.sched.Pending())

	grand := arena.NewChild(child, 0, child.Extent.Split(2, 2)[0])
	assert.True(t, l2.TileReady(grand), "above the zoom range")
}

func TestLayer_Frozen(t *testing.T) {
	h := newTestHost()
	l := NewColorLayer("osm", solidColor{}, Options{})
	require.NoError(t, l.Attach(h))
	_, root := visibleRoot()

	assert.True(t, l.SetFrozen(true))
	assert.False(t, l.SetFrozen(true))
	l.Update(Context{}, root)
	assert.Equal(t, 0, h.sched.Pending())

	l.SetFrozen(false)
	l.Update(Context{}, root)
	assert.Equal(t, 1, h.sched.Pending())
}

func TestColorLayer_FetchAndSeed(t *testing.T) {
	h := newTestHost()
	red := color.RGBA{R: 255, A: 255}
	l := NewColorLayer("osm", solidColor{c: red}, Options{})
	require.NoError(t, l.Attach(h))
	arena, root := visibleRoot()

	l.Update(Context{}, root)
	h.flush()
	require.Contains(t, root.Material.Color, "osm")
	assert.True(t, root.Material.HasColor())
	assert.True(t, l.TileReady(root))

	child := arena.NewChild(root, 3, root.Extent.Split(2, 2)[3])
	l.SeedChild(root, child)
	tex := child.Material.Color["osm"]
	require.NotNil(t, tex)
	assert.Equal(t, 0, tex.Level, "seeded data keeps the parent level")
	assert.Equal(t, red, tex.Image.RGBAAt(1, 1))
	assert.False(t, l.TileReady(child))

	assert.True(t, l.SetOpacity(0.5))
	assert.True(t, l.SetOpacity(2))
	assert.Equal(t, 1.0, l.Opacity())
	assert.False(t, l.SetOpacity(1))
}

func TestElevationLayer_Seed(t *testing.T) {
	h := newTestHost()
	l := NewElevationLayer("dem", &flatElevation{}, Options{})
	require.NoError(t, l.Attach(h))
	arena, root := visibleRoot()

	child := arena.NewChild(root, 1, root.Extent.Split(2, 2)[1])
	l.SeedChild(root, child)
	assert.Nil(t, child.Material.Elevation, "nothing to seed from")

	l.Update(Context{}, root)
	h.flush()
	l.SeedChild(root, child)
	require.NotNil(t, child.Material.Elevation)
	// Child 1 is the north-west quadrant: heights between 2.5 and 5.
	assert.InDelta(t, 2.5, child.Material.Elevation.Min, 1e-6)
	assert.InDelta(t, 5, child.Material.Elevation.Max, 1e-6)
}

func TestLayer_DetachDiscardsCompletions(t *testing.T) {
	h := newTestHost()
	l := NewColorLayer("osm", solidColor{}, Options{})
	require.NoError(t, l.Attach(h))
	_, root := visibleRoot()

	l.Update(Context{}, root)
	l.Detach()
	assert.False(t, l.Ready())
	h.flush()

	assert.Empty(t, root.Material.Color)
	assert.Empty(t, h.changed)
}
