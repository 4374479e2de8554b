package meshing

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"lodterrain/internal/noise"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
)

func flatGrid(t testing.TB, size int, h float64) *noise.HeightGrid {
	t.Helper()
	values := make([]float64, size*size)
	for i := range values {
		values[i] = h
	}
	g, err := noise.NewHeightGrid(size, size, values)
	if err != nil {
		t.Fatalf("NewHeightGrid: %v", err)
	}
	return g
}

func noiseGrid(t testing.TB, size int, offset mgl64.Vec2) *noise.HeightGrid {
	t.Helper()
	g, err := noise.Generate(size, size, noise.Parameters{
		Seed: 7, Scale: 30, Octaves: 3, Persistence: 0.5, Lacunarity: 2,
		Offset: offset, Normalize: noise.NormalizeGlobal,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return g
}

func TestBuildVertexCountsPerLOD(t *testing.T) {
	g := flatGrid(t, 241, 0.5)
	for lod := 0; lod <= MaxLOD; lod++ {
		m, err := Build(g, 10, LinearCurve{}, lod)
		if err != nil {
			t.Fatalf("lod %d: %v", lod, err)
		}
		per := 240/SimplificationIncrement(lod) + 1
		if m.VerticesPerLine != per {
			t.Errorf("lod %d: VerticesPerLine = %d, want %d", lod, m.VerticesPerLine, per)
		}
		if len(m.Vertices) != per*per || len(m.UVs) != per*per {
			t.Errorf("lod %d: %d vertices / %d uvs, want %d", lod, len(m.Vertices), len(m.UVs), per*per)
		}
		if len(m.Triangles) != (per-1)*(per-1)*6 {
			t.Errorf("lod %d: %d indices, want %d", lod, len(m.Triangles), (per-1)*(per-1)*6)
		}
		for _, idx := range m.Triangles {
			if int(idx) >= len(m.Vertices) {
				t.Fatalf("lod %d: index %d out of range", lod, idx)
			}
		}
	}
}

func TestBuildRejectsBadDimensions(t *testing.T) {
	// 240 cells are not a multiple of 7*2
	if _, err := Build(flatGrid(t, 241, 0), 1, nil, 7); !errors.Is(err, ErrInvalidLOD) {
		t.Errorf("lod 7 error = %v, want ErrInvalidLOD", err)
	}
	if _, err := Build(flatGrid(t, 241, 0), 1, nil, -1); !errors.Is(err, ErrInvalidLOD) {
		t.Errorf("lod -1 error = %v, want ErrInvalidLOD", err)
	}
	// 10 cells are not a multiple of 4
	_, err := Build(flatGrid(t, 11, 0), 1, nil, 2)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("11x11 at lod 2 error = %v, want ErrDimensionMismatch", err)
	}
	if !strings.Contains(err.Error(), "11x11") {
		t.Errorf("error should name the grid size: %v", err)
	}
	if _, err := Build(flatGrid(t, 1, 0), 1, nil, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("1x1 grid error = %v, want ErrDimensionMismatch", err)
	}
}

func TestBuildHeightCurveAndMultiplier(t *testing.T) {
	curve := NewKeyframeCurve(Keyframe{0, 0}, Keyframe{0.4, 0}, Keyframe{1, 1})
	m, err := Build(flatGrid(t, 5, 0.7), 20, curve, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := float32(0.5 * 20)
	for i, v := range m.Vertices {
		if d := v.Y() - want; d > 1e-4 || d < -1e-4 {
			t.Fatalf("vertex %d elevation %f, want %f", i, v.Y(), want)
		}
	}
}

func TestBuildCentredLayoutAndUVs(t *testing.T) {
	m, err := Build(flatGrid(t, 9, 0), 1, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	first, last := m.Vertices[0], m.Vertices[len(m.Vertices)-1]
	if first.X() != -4 || first.Z() != 4 || last.X() != 4 || last.Z() != -4 {
		t.Errorf("corners = %v .. %v, want (-4,_,4) .. (4,_,-4)", first, last)
	}
	if m.Vertices[1].X()-first.X() != 4 {
		t.Errorf("grid step at lod 2 = %f, want 4", m.Vertices[1].X()-first.X())
	}
	if uv := m.UVs[0]; uv.X() != 0 || uv.Y() != 0 {
		t.Errorf("first uv = %v", uv)
	}
	if uv := m.UVs[len(m.UVs)-1]; uv.X() != 1 || uv.Y() != 1 {
		t.Errorf("last uv = %v", uv)
	}
}

func TestBuildWindingFacesUp(t *testing.T) {
	m, err := Build(noiseGrid(t, 61, mgl64.Vec2{}), 5, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < m.TriangleCount(); i++ {
		if n := m.FaceNormal(i); n.Y() <= 0 {
			t.Fatalf("triangle %d normal %v does not face up", i, n)
		}
	}
	for i, n := range m.Normals() {
		if n.Y() <= 0 {
			t.Fatalf("vertex normal %d = %v", i, n)
		}
	}
}

// Adjacent chunks at the same LOD put identical vertices on their shared edge.
func TestBuildAdjacentChunksTile(t *testing.T) {
	const size = 121
	const step = float32(size - 1)
	west := noiseGrid(t, size, mgl64.Vec2{})
	east := noiseGrid(t, size, mgl64.Vec2{float64(size - 1), 0})

	for lod := 0; lod <= MaxLOD; lod++ {
		if CheckDimensions(size, size, lod) != nil {
			continue
		}
		a, err := Build(west, 30, nil, lod)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Build(east, 30, nil, lod)
		if err != nil {
			t.Fatal(err)
		}
		per := a.VerticesPerLine
		for row := 0; row < per; row++ {
			va := a.Vertices[row*per+per-1]
			vb := b.Vertices[row*per]
			vb[0] += step
			if va != vb {
				t.Fatalf("lod %d row %d: west edge %v != east edge %v", lod, row, va, vb)
			}
		}
	}
}

func TestKeyframeCurve(t *testing.T) {
	c := NewKeyframeCurve(Keyframe{1, 1}, Keyframe{0, 0}, Keyframe{0.5, 0.25})
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.25, 0.125}, {0.5, 0.25}, {0.75, 0.625}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := c.Evaluate(tt.in); got != tt.want {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !c.Monotonic() {
		t.Error("curve should be monotonic")
	}
	if NewKeyframeCurve(Keyframe{0, 1}, Keyframe{1, 0}).Monotonic() {
		t.Error("descending curve reported monotonic")
	}
	if got := NewKeyframeCurve().Evaluate(0.3); got != 0.3 {
		t.Errorf("empty curve Evaluate(0.3) = %v", got)
	}
}

func TestWriteOBJZstd(t *testing.T) {
	m, err := Build(flatGrid(t, 3, 0), 1, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteOBJZstd(&buf, m, "chunk"); err != nil {
		t.Fatal(err)
	}
	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if got := strings.Count(text, "\nv "); got != 9 {
		t.Errorf("OBJ has %d vertices, want 9", got)
	}
	if got := strings.Count(text, "\nf "); got != 8 {
		t.Errorf("OBJ has %d faces, want 8", got)
	}
	if !strings.Contains(text, "o chunk\n") {
		t.Error("OBJ is missing the object name")
	}
}

func BenchmarkBuildLOD0(b *testing.B) {
	g := noiseGrid(b, 241, mgl64.Vec2{})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Build(g, 20, nil, 0)
	}
}
