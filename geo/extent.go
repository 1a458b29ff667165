package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Extent is an immutable axis-aligned rectangle in a coordinate reference system.
//
// West/south are stored in Min, east/north in Max. A valid Extent always has
// west < east and south < north; use NewExtent to build one.
type Extent struct {
	crs   string
	bound orb.Bound
}

// Dimensions is the width and height of an Extent in CRS units.
type Dimensions struct {
	Width  float64
	Height float64
}

// NewExtent validates the bounds and returns the extent.
func NewExtent(crs string, west, east, south, north float64) (Extent, error) {
	for _, v := range [4]float64{west, east, south, north} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Extent{}, &InvalidExtentError{CRS: crs, West: west, East: east, South: south, North: north}
		}
	}
	if west >= east || south >= north {
		return Extent{}, &InvalidExtentError{CRS: crs, West: west, East: east, South: south, North: north}
	}

	return Extent{
		crs: crs,
		bound: orb.Bound{
			Min: orb.Point{west, south},
			Max: orb.Point{east, north},
		},
	}, nil
}

// MustExtent is NewExtent for constant extents; it panics on invalid bounds.
func MustExtent(crs string, west, east, south, north float64) Extent {
	e, err := NewExtent(crs, west, east, south, north)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Extent) CRS() string      { return e.crs }
func (e Extent) West() float64    { return e.bound.Min.X() }
func (e Extent) East() float64    { return e.bound.Max.X() }
func (e Extent) South() float64   { return e.bound.Min.Y() }
func (e Extent) North() float64   { return e.bound.Max.Y() }
func (e Extent) Bound() orb.Bound { return e.bound }

// IsZero reports whether e is the zero value (never a valid extent).
func (e Extent) IsZero() bool {
	return e.bound == orb.Bound{} && e.crs == ""
}

func (e Extent) Dimensions() Dimensions {
	return Dimensions{
		Width:  e.East() - e.West(),
		Height: e.North() - e.South(),
	}
}

func (e Extent) Center() orb.Point {
	return e.bound.Center()
}

// Split partitions the extent into a countX by countY grid.
//
// Cell i covers column i/countY and row i%countY, row 0 being the southern
// row. Edges are interpolated from the parent bounds so that neighbouring
// cells share identical edge values and the outer edges equal the parent's.
func (e Extent) Split(countX, countY int) []Extent {
	if countX < 1 || countY < 1 {
		return nil
	}

	xs := edges(e.West(), e.East(), countX)
	ys := edges(e.South(), e.North(), countY)

	out := make([]Extent, 0, countX*countY)
	for ix := 0; ix < countX; ix++ {
		for iy := 0; iy < countY; iy++ {
			out = append(out, Extent{
				crs: e.crs,
				bound: orb.Bound{
					Min: orb.Point{xs[ix], ys[iy]},
					Max: orb.Point{xs[ix+1], ys[iy+1]},
				},
			})
		}
	}
	return out
}

func edges(lo, hi float64, count int) []float64 {
	out := make([]float64, count+1)
	span := hi - lo
	for i := 0; i < count; i++ {
		out[i] = lo + span*float64(i)/float64(count)
	}
	out[count] = hi
	return out
}

// Union returns the smallest extent covering both e and other.
func (e Extent) Union(other Extent) (Extent, error) {
	if e.crs != other.crs {
		return Extent{}, fmt.Errorf("union %s with %s: %w", e.crs, other.crs, ErrCRSMismatch)
	}
	return Extent{crs: e.crs, bound: e.bound.Union(other.bound)}, nil
}

// IsPointInside reports whether p lies in e, borders included, with the
// extent grown by epsilon on every side.
func (e Extent) IsPointInside(p orb.Point, epsilon float64) bool {
	return p.X() >= e.West()-epsilon && p.X() <= e.East()+epsilon &&
		p.Y() >= e.South()-epsilon && p.Y() <= e.North()+epsilon
}

// IsInside reports whether e is fully contained in other, within epsilon.
func (e Extent) IsInside(other Extent, epsilon float64) bool {
	if e.crs != other.crs {
		return false
	}
	return e.West() >= other.West()-epsilon && e.East() <= other.East()+epsilon &&
		e.South() >= other.South()-epsilon && e.North() <= other.North()+epsilon
}

// Intersects reports whether the interiors of e and other overlap. Extents
// that only share an edge do not intersect.
func (e Extent) Intersects(other Extent) bool {
	if e.crs != other.crs {
		return false
	}
	return e.West() < other.East() && other.West() < e.East() &&
		e.South() < other.North() && other.South() < e.North()
}

func (e Extent) String() string {
	return fmt.Sprintf("%s[%g, %g, %g, %g]", e.crs, e.West(), e.East(), e.South(), e.North())
}
