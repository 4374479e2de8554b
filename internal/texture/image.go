// Package texture turns height and colour grids into images for the renderer and previews.
package texture

import (
	"image"
	"image/color"
	"math"

	"lodterrain/internal/noise"
	"lodterrain/internal/terrain"

	"golang.org/x/image/draw"
)

// FromHeightGrid maps heights in [0,1] to black..white. Values outside are clamped.
func FromHeightGrid(g *noise.HeightGrid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width(), g.Height()))
	for y := 0; y < g.Height(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < g.Width(); x++ {
			v := math.Min(math.Max(g.At(x, y), 0), 1)
			row[x] = uint8(math.Round(v * 255))
		}
	}
	return img
}

// FromColorGrid paints every classified cell with its band colour and unassigned cells with fallback.
func FromColorGrid(cg *terrain.ColorGrid, fallback color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cg.Width(), cg.Height()))
	for i, c := range cg.Pixels(fallback) {
		img.Pix[4*i+0] = c.R
		img.Pix[4*i+1] = c.G
		img.Pix[4*i+2] = c.B
		img.Pix[4*i+3] = c.A
	}
	return img
}

// Upscale returns src enlarged factor times with nearest-neighbour sampling, so
// each grid cell stays a crisp square. factor <= 1 returns an RGBA copy.
func Upscale(src image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
