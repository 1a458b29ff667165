package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtent_Invalid(t *testing.T) {
	tests := []struct {
		name                     string
		west, east, south, north float64
	}{
		{"west equals east", 1, 1, 0, 1},
		{"west after east", 2, 1, 0, 1},
		{"south equals north", 0, 1, 3, 3},
		{"south after north", 0, 1, 4, 3},
		{"nan", math.NaN(), 1, 0, 1},
		{"inf", 0, math.Inf(1), 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExtent("EPSG:3857", tc.west, tc.east, tc.south, tc.north)
			var invalid *InvalidExtentError
			require.True(t, errors.As(err, &invalid), "expected InvalidExtentError, got %v", err)
			assert.Equal(t, "EPSG:3857", invalid.CRS)
		})
	}
}

func TestExtent_SplitCoversParent(t *testing.T) {
	parent := MustExtent("EPSG:3857", -7.3, 12.9, 1.1, 5.7)

	for countX := 1; countX <= 5; countX++ {
		for countY := 1; countY <= 5; countY++ {
			cells := parent.Split(countX, countY)
			require.Len(t, cells, countX*countY)

			union := cells[0]
			area := 0.0
			for _, c := range cells {
				var err error
				union, err = union.Union(c)
				require.NoError(t, err)
				d := c.Dimensions()
				area += d.Width * d.Height
				assert.True(t, c.IsInside(parent, 0))
			}
			assert.Equal(t, parent.Bound(), union.Bound(), "split %dx%d", countX, countY)

			pd := parent.Dimensions()
			assert.InDelta(t, pd.Width*pd.Height, area, 1e-9)

			for i := range cells {
				for j := i + 1; j < len(cells); j++ {
					assert.False(t, cells[i].Intersects(cells[j]), "cells %d and %d overlap", i, j)
				}
			}
		}
	}
}

func TestExtent_SplitOrder(t *testing.T) {
	parent := MustExtent("EPSG:3857", 0, 2, 0, 2)
	cells := parent.Split(2, 2)

	// Column-outer order: (0,0), (0,1), (1,0), (1,1) with row 0 at the south.
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, cells[0].Bound())
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{1, 2}}, cells[1].Bound())
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}}, cells[2].Bound())
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{2, 2}}, cells[3].Bound())

	assert.Nil(t, parent.Split(0, 2))
}

func TestExtent_SplitSharesEdges(t *testing.T) {
	parent := MustExtent("EPSG:4326", -180, 180, -85.05112878, 85.05112878)
	cells := parent.Split(3, 7)

	for ix := 0; ix < 3; ix++ {
		for iy := 0; iy < 6; iy++ {
			below := cells[ix*7+iy]
			above := cells[ix*7+iy+1]
			assert.Equal(t, below.North(), above.South())
		}
	}
	assert.Equal(t, parent.East(), cells[len(cells)-1].East())
	assert.Equal(t, parent.North(), cells[len(cells)-1].North())
}

func TestExtent_Union_CRSMismatch(t *testing.T) {
	a := MustExtent("EPSG:3857", 0, 1, 0, 1)
	b := MustExtent("EPSG:4326", 0, 1, 0, 1)

	_, err := a.Union(b)
	assert.ErrorIs(t, err, ErrCRSMismatch)
	assert.False(t, a.IsInside(b, 0))
	assert.False(t, a.Intersects(b))
}

func TestExtent_Containment(t *testing.T) {
	e := MustExtent("EPSG:3857", 0, 10, 0, 5)

	assert.True(t, e.IsPointInside(orb.Point{0, 0}, 0))
	assert.True(t, e.IsPointInside(orb.Point{10, 5}, 0))
	assert.False(t, e.IsPointInside(orb.Point{10.1, 5}, 0))
	assert.True(t, e.IsPointInside(orb.Point{10.1, 5}, 0.2))

	assert.Equal(t, orb.Point{5, 2.5}, e.Center())
	assert.Equal(t, Dimensions{Width: 10, Height: 5}, e.Dimensions())

	inner := MustExtent("EPSG:3857", 1, 2, 1, 2)
	assert.True(t, inner.IsInside(e, 0))
	assert.False(t, e.IsInside(inner, 0))

	touching := MustExtent("EPSG:3857", 10, 12, 0, 5)
	assert.False(t, e.Intersects(touching))
}

func TestSelectBestSubdivisions(t *testing.T) {
	wide := MustExtent("EPSG:3857", 0, 2000, 0, 1000)
	x, y := SelectBestSubdivisions(wide)
	require.Equal(t, 2, x)
	require.Equal(t, 1, y)
	assert.False(t, IsSquarish(wide))

	roots := wide.Split(x, y)
	require.Len(t, roots, 2)
	assert.Equal(t, roots[0].East(), roots[1].West(), "roots must be side by side")
	for _, r := range roots {
		assert.True(t, IsSquarish(r))
	}

	tall := MustExtent("EPSG:3857", 0, 1, 0, 3.2)
	x, y = SelectBestSubdivisions(tall)
	assert.Equal(t, 1, x)
	assert.Equal(t, 3, y)

	for _, ratio := range []float64{1, 1.2, 1.49, 1.5, 2.4, 2.5, 7.3, 0.3, 0.66} {
		e := MustExtent("EPSG:3857", 0, ratio, 0, 1)
		x, y := SelectBestSubdivisions(e)
		for _, r := range e.Split(x, y) {
			assert.True(t, IsSquarish(r), "ratio %g", ratio)
		}
	}
}
