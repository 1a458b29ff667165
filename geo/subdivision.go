package geo

import "math"

// MaxSquarishRatio bounds the aspect ratio of a root tile produced by
// SelectBestSubdivisions.
const MaxSquarishRatio = 1.5

// SelectBestSubdivisions returns the root grid used to cover e with
// square-ish tiles: a wide extent is cut into columns, a tall one into rows.
func SelectBestSubdivisions(e Extent) (x, y int) {
	dims := e.Dimensions()
	ratio := dims.Width / dims.Height
	x, y = 1, 1
	if ratio >= 1 {
		x = max(1, int(math.Round(ratio)))
	} else {
		y = max(1, int(math.Round(1/ratio)))
	}
	return x, y
}

// IsSquarish reports whether e's aspect ratio is within MaxSquarishRatio.
func IsSquarish(e Extent) bool {
	dims := e.Dimensions()
	a := dims.Width / dims.Height
	return math.Max(a, 1/a) <= MaxSquarishRatio
}
