package tile

import (
	"image"
	"image/color"
	"testing"

	"github.com/gekko3d/geomap/geo"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoord_ChildParent(t *testing.T) {
	parent := Coord{Level: 3, X: 5, Y: 2}

	expected := []Coord{
		{Level: 4, X: 10, Y: 4},
		{Level: 4, X: 10, Y: 5},
		{Level: 4, X: 11, Y: 4},
		{Level: 4, X: 11, Y: 5},
	}
	for i, want := range expected {
		child := parent.Child(i)
		assert.Equal(t, want, child)
		assert.Equal(t, i, child.Quadrant())

		p, ok := child.Parent()
		require.True(t, ok)
		assert.Equal(t, parent, p)
	}

	_, ok := Coord{}.Parent()
	assert.False(t, ok)
	assert.Panics(t, func() { parent.Child(4) })
	assert.Equal(t, "3/5/2", parent.String())
}

func TestArena_Lifecycle(t *testing.T) {
	arena := NewArena()
	root := arena.NewRoot(Coord{}, geo.MustExtent("EPSG:3857", 0, 2, 0, 2))
	root.SetElevationRange(ElevationRange{Min: -3, Max: 9})

	cells := root.Extent.Split(2, 2)
	var children []*Tile
	for i, e := range cells {
		c := arena.NewChild(root, i, e)
		children = append(children, c)
		root.Children = append(root.Children, c.ID)
	}

	assert.Equal(t, 5, arena.Len())
	for i, c := range children {
		assert.Equal(t, root.ID, c.Parent)
		assert.Equal(t, root.Coord.Child(i), c.Coord)
		assert.Equal(t, root.ElevationRange, c.ElevationRange)
		assert.True(t, c.ElevationKnown)
		assert.NotNil(t, c.Material)
	}

	var chain []ID
	arena.Ancestors(children[2], func(p *Tile) bool {
		chain = append(chain, p.ID)
		return true
	})
	assert.Equal(t, []ID{root.ID}, chain)

	children[0].SetVisible(true)
	arena.Free(children[0])
	assert.True(t, children[0].Disposed())
	assert.False(t, children[0].Visible())
	assert.Nil(t, arena.Get(children[0].ID))

	arena.Free(root)
	assert.Panics(t, func() { arena.NewChild(root, 0, cells[0]) })
}

func TestTile_Setters(t *testing.T) {
	arena := NewArena()
	tl := arena.NewRoot(Coord{}, geo.MustExtent("EPSG:3857", 0, 2, 0, 2))

	assert.True(t, tl.SetDisplayed(true))
	assert.False(t, tl.SetDisplayed(true))
	assert.True(t, tl.SetVisible(true))
	assert.False(t, tl.SetVisible(true))

	box := tl.Box()
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, box.Min)
	assert.Equal(t, mgl64.Vec3{2, 2, 0}, box.Max)
}

func TestElevationTexture_SampleAndQuadrant(t *testing.T) {
	// Plane z = 10*u + 100*v on a 3x3 grid.
	data := []float32{
		0, 5, 10,
		50, 55, 60,
		100, 105, 110,
	}
	tex := NewElevationTexture("dem", 3, 3, data, 2)
	assert.Equal(t, 0.0, tex.Min)
	assert.Equal(t, 110.0, tex.Max)
	assert.InDelta(t, 55, tex.Sample(0.5, 0.5), 1e-9)
	assert.InDelta(t, 2.5, tex.Sample(0.25, 0), 1e-9)

	// Quadrant 3 covers u,v in [0.5, 1].
	q := tex.Quadrant(3)
	assert.Equal(t, 2, q.Level)
	assert.InDelta(t, 55, q.At(0, 0), 1e-4)
	assert.InDelta(t, 110, q.At(2, 2), 1e-4)
	assert.InDelta(t, 55, q.Min, 1e-4)
	assert.InDelta(t, 110, q.Max, 1e-4)

	// Quadrant 1 covers u in [0, 0.5], v in [0.5, 1].
	q1 := tex.Quadrant(1)
	assert.InDelta(t, 50, q1.At(0, 0), 1e-4)
	assert.InDelta(t, 105, q1.At(2, 2), 1e-4)
}

func TestColorTexture_Quadrant(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	// North half red, south half blue.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.RGBA{B: 255, A: 255}
			if y < 2 {
				c = color.RGBA{R: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	tex := NewColorTexture("ortho", img, 0)

	south := tex.Quadrant(0)
	north := tex.Quadrant(1)
	assert.Equal(t, image.Rect(0, 0, 4, 4), south.Image.Bounds())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, south.Image.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, north.Image.RGBAAt(1, 1))
	assert.Equal(t, 0, north.Level)
}

func TestStitch_BorderHeights(t *testing.T) {
	arena := NewArena()
	// Coarse neighbour north of a tile half its width.
	n := arena.NewRoot(Coord{Level: 0, X: 0, Y: 1}, geo.MustExtent("EPSG:3857", 0, 2, 2, 4))
	tl := arena.NewRoot(Coord{Level: 1, X: 1, Y: 1}, geo.MustExtent("EPSG:3857", 1, 2, 1, 2))
	n.Material.Elevation = NewElevationTexture("dem", 2, 2, []float32{0, 20, 40, 60}, 0)

	s := NewStitch(tl, n)
	assert.Equal(t, n.ID, s.Tile)
	assert.InDelta(t, 0.5, s.Offset.X(), 1e-12)
	assert.InDelta(t, -0.5, s.Offset.Y(), 1e-12)
	assert.InDelta(t, 0.5, s.Scale.X(), 1e-12)

	heights := s.BorderHeights(North, 3)
	require.Len(t, heights, 3)
	// Neighbour's southern edge from u=0.5 to u=1.
	assert.InDelta(t, 10, heights[0], 1e-9)
	assert.InDelta(t, 15, heights[1], 1e-9)
	assert.InDelta(t, 20, heights[2], 1e-9)

	assert.Len(t, s.BorderHeights(NorthEast, 3), 1)
	assert.Nil(t, (&Stitch{}).BorderHeights(North, 3))
}

func TestBuildGeometry(t *testing.T) {
	key := KeyFor(2, 100.0000000001, 50)
	assert.Equal(t, 100.0, key.Width)

	g := BuildGeometry("g", key)
	assert.Len(t, g.Positions, 9)
	assert.Len(t, g.Indices, 2*2*6)
	assert.Equal(t, float32(100), g.Positions[8].X())
	assert.Equal(t, float32(50), g.Positions[8].Y())
}
