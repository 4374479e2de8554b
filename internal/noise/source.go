package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Source is a smooth 2D noise function returning values in [0,1].
// Implementations must be safe for concurrent use and deterministic for a given seed.
type Source interface {
	Sample(x, y float64) float64
}

// SourceKind selects the coherent noise function behind a Source.
type SourceKind int

const (
	SourceValue SourceKind = iota
	SourcePerlin
	SourceSimplex
)

func (k SourceKind) String() string {
	switch k {
	case SourceValue:
		return "value"
	case SourcePerlin:
		return "perlin"
	case SourceSimplex:
		return "simplex"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// ParseSourceKind accepts the names produced by String. Empty means value noise.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "value":
		return SourceValue, nil
	case "perlin":
		return SourcePerlin, nil
	case "simplex", "opensimplex":
		return SourceSimplex, nil
	}
	return SourceValue, fmt.Errorf("unknown noise source %q", s)
}

// NewSource builds the Source of the given kind for seed.
func NewSource(kind SourceKind, seed int64) Source {
	switch kind {
	case SourcePerlin:
		return perlinSource{p: perlin.NewPerlin(2, 2, 3, seed)}
	case SourceSimplex:
		return simplexSource{n: opensimplex.NewNormalized(seed)}
	default:
		return valueSource{seed: seed}
	}
}

type valueSource struct {
	seed int64
}

func (s valueSource) Sample(x, y float64) float64 {
	return valueNoise2D(x, y, s.seed)
}

// perlinSource rescales go-perlin output (roughly [-1,1]) into [0,1].
type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Sample(x, y float64) float64 {
	v := (s.p.Noise2D(x, y) + 1) / 2
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) Sample(x, y float64) float64 {
	return s.n.Eval2(x, y)
}
