package tile

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ElevationTexture is a corner-aligned height grid: sample (0,0) is the
// south-west corner of the tile and (Width-1, Height-1) the north-east one.
type ElevationTexture struct {
	LayerID string
	Width   int
	Height  int
	Data    []float32
	Min     float64
	Max     float64
	// Level is the tile level the data was produced for; textures seeded
	// from a parent keep the parent's level.
	Level int
}

// NewElevationTexture computes the height bounds of data, ignoring NaN.
func NewElevationTexture(layerID string, width, height int, data []float32, level int) *ElevationTexture {
	e := &ElevationTexture{
		LayerID: layerID,
		Width:   width,
		Height:  height,
		Data:    data,
		Level:   level,
	}
	e.Min, e.Max = math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(float64(v)) {
			continue
		}
		e.Min = math.Min(e.Min, float64(v))
		e.Max = math.Max(e.Max, float64(v))
	}
	if e.Min > e.Max {
		e.Min, e.Max = 0, 0
	}
	return e
}

func (e *ElevationTexture) Range() ElevationRange {
	return ElevationRange{Min: e.Min, Max: e.Max}
}

func (e *ElevationTexture) At(x, y int) float64 {
	return float64(e.Data[y*e.Width+x])
}

// Sample interpolates bilinearly at uv in [0,1]².
func (e *ElevationTexture) Sample(u, v float64) float64 {
	if e.Width == 0 || e.Height == 0 {
		return 0
	}
	fx := clamp01(u) * float64(e.Width-1)
	fy := clamp01(v) * float64(e.Height-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, e.Width-1), min(y0+1, e.Height-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	bottom := e.At(x0, y0)*(1-tx) + e.At(x1, y0)*tx
	top := e.At(x0, y1)*(1-tx) + e.At(x1, y1)*tx
	return bottom*(1-ty) + top*ty
}

// Quadrant resamples the part of e covering child quadrant i at the same
// resolution.
func (e *ElevationTexture) Quadrant(i int) *ElevationTexture {
	ou := float64(i/2) * 0.5
	ov := float64(i%2) * 0.5
	data := make([]float32, e.Width*e.Height)
	for y := 0; y < e.Height; y++ {
		for x := 0; x < e.Width; x++ {
			u, v := 0.0, 0.0
			if e.Width > 1 {
				u = float64(x) / float64(e.Width-1)
			}
			if e.Height > 1 {
				v = float64(y) / float64(e.Height-1)
			}
			data[y*e.Width+x] = float32(e.Sample(ou+u*0.5, ov+v*0.5))
		}
	}
	return NewElevationTexture(e.LayerID, e.Width, e.Height, data, e.Level)
}

// ColorTexture is an image covering the tile, north up.
type ColorTexture struct {
	LayerID string
	Image   *image.RGBA
	Level   int
}

func NewColorTexture(layerID string, img image.Image, level int) *ColorTexture {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &ColorTexture{LayerID: layerID, Image: rgba, Level: level}
}

// Quadrant upscales the part of the image covering child quadrant i to the
// full texture size.
func (c *ColorTexture) Quadrant(i int) *ColorTexture {
	b := c.Image.Bounds()
	hw, hh := b.Dx()/2, b.Dy()/2
	x0 := b.Min.X + (i/2)*hw
	// Image rows go north to south, quadrant rows south to north.
	y0 := b.Min.Y
	if i%2 == 0 {
		y0 += hh
	}
	src := image.Rect(x0, y0, x0+max(1, hw), y0+max(1, hh))

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.BiLinear.Scale(dst, dst.Bounds(), c.Image, src, draw.Src, nil)
	return &ColorTexture{LayerID: c.LayerID, Image: dst, Level: c.Level}
}
