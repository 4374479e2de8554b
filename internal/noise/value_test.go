package noise

import (
	"math"
	"math/rand"
	"testing"
)

// TestHash2Deterministic verifies hash2 produces identical results for same inputs
func TestHash2Deterministic(t *testing.T) {
	first := hash2(10, 20, 42)
	for i := 0; i < 100; i++ {
		if h := hash2(10, 20, 42); h != first {
			t.Fatalf("hash2 not deterministic: %d != %d", h, first)
		}
	}
}

// TestHash2DifferentInputs verifies hash2 separates axes and seeds
func TestHash2DifferentInputs(t *testing.T) {
	seed := int64(42)
	if hash2(1, 0, seed) == hash2(2, 0, seed) {
		t.Error("hash2 should differ for different X")
	}
	if hash2(0, 1, seed) == hash2(0, 2, seed) {
		t.Error("hash2 should differ for different Y")
	}
	if hash2(1, 1, 100) == hash2(1, 1, 200) {
		t.Error("hash2 should differ for different seed")
	}
	if hash2(1, 2, seed) == hash2(2, 1, seed) {
		t.Error("hash2 should differ for axis swap")
	}
}

func TestValueNoise2DRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		x := rng.Float64()*20000 - 10000
		y := rng.Float64()*20000 - 10000
		v := valueNoise2D(x, y, 42)
		if v < 0 || v > 1 {
			t.Fatalf("valueNoise2D(%f, %f) = %f, expected in [0,1]", x, y, v)
		}
	}
}

// TestValueNoise2DLatticePoints checks the noise passes through lattice values exactly
func TestValueNoise2DLatticePoints(t *testing.T) {
	for _, p := range [][2]int64{{0, 0}, {3, -7}, {-12, 5}} {
		want := latticeValue(p[0], p[1], 7)
		if got := valueNoise2D(float64(p[0]), float64(p[1]), 7); got != want {
			t.Errorf("valueNoise2D at lattice %v = %f, want %f", p, got, want)
		}
	}
}

func TestValueNoise2DContinuity(t *testing.T) {
	v1 := valueNoise2D(1.0, 1.0, 42)
	v2 := valueNoise2D(1.01, 1.0, 42)
	if diff := math.Abs(v1 - v2); diff >= 0.1 {
		t.Errorf("valueNoise2D not continuous: diff=%f", diff)
	}
}

func TestSourcesStayInUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for _, kind := range []SourceKind{SourceValue, SourcePerlin, SourceSimplex} {
		src := NewSource(kind, 1337)
		for i := 0; i < 500; i++ {
			x := rng.Float64()*400 - 200
			y := rng.Float64()*400 - 200
			if v := src.Sample(x, y); v < 0 || v > 1 {
				t.Fatalf("%s source: Sample(%f, %f) = %f, expected in [0,1]", kind, x, y, v)
			}
		}
	}
}

func TestParseSourceKind(t *testing.T) {
	tests := []struct {
		in   string
		want SourceKind
		err  bool
	}{
		{"", SourceValue, false},
		{"Value", SourceValue, false},
		{"perlin", SourcePerlin, false},
		{" simplex ", SourceSimplex, false},
		{"worley", SourceValue, true},
	}
	for _, tt := range tests {
		got, err := ParseSourceKind(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseSourceKind(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSourceKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
