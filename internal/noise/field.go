package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"lodterrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// MinScale is the smallest accepted noise scale. Smaller values are coerced to it.
const MinScale = 0.001

// offsetRange bounds the per-octave random offsets to [-offsetRange, offsetRange).
const offsetRange = 10000

// ErrInvalidDimensions is returned when a grid is requested with a non-positive side.
var ErrInvalidDimensions = errors.New("noise: invalid grid dimensions")

// NormalizeMode selects how raw octave sums are mapped into height values.
type NormalizeMode int

const (
	// NormalizeLocal remaps the observed min/max of a single grid to [0,1].
	// Adjacent chunks do not agree on heights in this mode.
	NormalizeLocal NormalizeMode = iota
	// NormalizeGlobal divides by the maximum possible octave sum so every chunk
	// shares the same mapping. Values are clamped to be non-negative only.
	NormalizeGlobal
)

func (m NormalizeMode) String() string {
	if m == NormalizeGlobal {
		return "global"
	}
	return "local"
}

// Parameters configures one call to Generate.
type Parameters struct {
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      mgl64.Vec2
	Normalize   NormalizeMode
	Source      SourceKind
}

// Sanitized returns a copy with out-of-range values clamped into their valid domain.
func (p Parameters) Sanitized() Parameters {
	if p.Scale <= 0 {
		p.Scale = MinScale
	}
	if p.Octaves < 0 {
		p.Octaves = 0
	}
	if p.Lacunarity < 1 {
		p.Lacunarity = 1
	}
	if p.Persistence < 0 {
		p.Persistence = 0
	}
	if p.Persistence > 1 {
		p.Persistence = 1
	}
	return p
}

// HeightGrid is a dense width x height array of samples. It is never mutated after Generate returns.
type HeightGrid struct {
	width, height int
	values        []float64
}

// NewHeightGrid wraps values (row-major, len width*height) into a grid.
func NewHeightGrid(width, height int, values []float64) (*HeightGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrInvalidDimensions, len(values), width, height)
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &HeightGrid{width: width, height: height, values: v}, nil
}

func (g *HeightGrid) Width() int  { return g.width }
func (g *HeightGrid) Height() int { return g.height }

// At returns the sample at column x, row y.
func (g *HeightGrid) At(x, y int) float64 {
	return g.values[y*g.width+x]
}

// Values returns a copy of the samples in row-major order.
func (g *HeightGrid) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}

// MinMax returns the smallest and largest sample.
func (g *HeightGrid) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Generate builds a width x height fractal noise grid. Identical inputs give bit-identical output.
func Generate(width, height int, params Parameters) (*HeightGrid, error) {
	defer profiling.Track("noise.Generate")()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	p := params.Sanitized()

	prng := rand.New(rand.NewSource(p.Seed))
	octaveOffsets := make([]mgl64.Vec2, p.Octaves)

	maxPossibleHeight := 0.0
	amplitude := 1.0
	for i := range octaveOffsets {
		// x offset is added and y offset subtracted so the two axes stay decorrelated
		ox := float64(prng.Intn(2*offsetRange)-offsetRange) + p.Offset.X()
		oy := float64(prng.Intn(2*offsetRange)-offsetRange) - p.Offset.Y()
		octaveOffsets[i] = mgl64.Vec2{ox, oy}

		maxPossibleHeight += amplitude
		amplitude *= p.Persistence
	}

	src := NewSource(p.Source, p.Seed)
	values := make([]float64, width*height)

	minLocal := math.MaxFloat64
	maxLocal := -math.MaxFloat64

	halfWidth := float64(width / 2)
	halfHeight := float64(height / 2)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			amplitude := 1.0
			frequency := 1.0
			noiseHeight := 0.0
			for _, off := range octaveOffsets {
				sampleX := (float64(x) - halfWidth + off.X()) / p.Scale * frequency
				sampleY := (float64(y) - halfHeight + off.Y()) / p.Scale * frequency
				v := src.Sample(sampleX, sampleY)*2 - 1
				noiseHeight += v * amplitude

				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}

			if noiseHeight > maxLocal {
				maxLocal = noiseHeight
			}
			if noiseHeight < minLocal {
				minLocal = noiseHeight
			}
			values[y*width+x] = noiseHeight
		}
	}

	for i, v := range values {
		switch {
		case p.Normalize == NormalizeLocal:
			values[i] = inverseLerp(minLocal, maxLocal, v)
		case maxPossibleHeight == 0:
			values[i] = 0
		default:
			values[i] = math.Max((v+1)/maxPossibleHeight, 0)
		}
	}

	return &HeightGrid{width: width, height: height, values: values}, nil
}
