package terrain

import (
	"image/color"

	"lodterrain/internal/noise"
	"lodterrain/internal/profiling"
)

// Unassigned marks a cell whose sample exceeded every band bound.
const Unassigned = -1

// ColorGrid holds one band index per HeightGrid sample, plus the palette it indexes.
type ColorGrid struct {
	width, height int
	index         []int
	palette       []color.RGBA
}

// Classify assigns each sample of grid the first band (in list order) whose Height is >= the sample.
// Cells matching no band stay Unassigned; choosing a fallback color is the caller's job.
func Classify(grid *noise.HeightGrid, bands Bands) *ColorGrid {
	defer profiling.Track("terrain.Classify")()
	w, h := grid.Width(), grid.Height()
	cg := &ColorGrid{
		width:   w,
		height:  h,
		index:   make([]int, w*h),
		palette: make([]color.RGBA, len(bands)),
	}
	for i, b := range bands {
		cg.palette[i] = b.Color
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i, _ := bands.Match(grid.At(x, y))
			cg.index[y*w+x] = i
		}
	}
	return cg
}

func (c *ColorGrid) Width() int  { return c.width }
func (c *ColorGrid) Height() int { return c.height }

// BandAt returns the band index at (x, y), or Unassigned.
func (c *ColorGrid) BandAt(x, y int) int {
	return c.index[y*c.width+x]
}

// At returns the color at (x, y). ok is false for unassigned cells.
func (c *ColorGrid) At(x, y int) (col color.RGBA, ok bool) {
	i := c.index[y*c.width+x]
	if i == Unassigned {
		return color.RGBA{}, false
	}
	return c.palette[i], true
}

// Pixels returns the row-major color map, substituting fallback for unassigned cells.
func (c *ColorGrid) Pixels(fallback color.RGBA) []color.RGBA {
	out := make([]color.RGBA, len(c.index))
	for p, i := range c.index {
		if i == Unassigned {
			out[p] = fallback
			continue
		}
		out[p] = c.palette[i]
	}
	return out
}

// UnassignedCount returns how many cells matched no band.
func (c *ColorGrid) UnassignedCount() int {
	n := 0
	for _, i := range c.index {
		if i == Unassigned {
			n++
		}
	}
	return n
}
