package mapgen

import (
	"errors"
	"testing"

	"lodterrain/internal/jobs"
	"lodterrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

func smallSettings() Settings {
	s := DefaultSettings()
	s.ChunkSize = 49
	return s
}

func TestGenerateMapDataIsDeterministic(t *testing.T) {
	g := NewGenerator(smallSettings(), nil)
	a, err := g.GenerateMapData(mgl32.Vec2{48, -96})
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.GenerateMapData(mgl32.Vec2{48, -96})
	if err != nil {
		t.Fatal(err)
	}
	av, bv := a.Height.Values(), b.Height.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, av[i], bv[i])
		}
	}
	if a.Colors.Width() != 49 || a.Colors.Height() != 49 {
		t.Errorf("color grid %dx%d, want 49x49", a.Colors.Width(), a.Colors.Height())
	}
}

// Neighbouring chunk centres one chunk apart sample the same noise on their shared edge.
func TestGenerateMapDataNeighboursShareEdge(t *testing.T) {
	g := NewGenerator(smallSettings(), nil)
	const side = 48
	origin, err := g.GenerateMapData(mgl32.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	east, err := g.GenerateMapData(mgl32.Vec2{side, 0})
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y <= side; y++ {
		if a, b := origin.Height.At(side, y), east.Height.At(0, y); a != b {
			t.Fatalf("row %d: origin east edge %v != east west edge %v", y, a, b)
		}
	}
}

func TestRequestsDeliverOnDrain(t *testing.T) {
	q := jobs.NewQueue(2, nil)
	defer q.Close()
	g := NewGenerator(smallSettings(), q)

	var data MapData
	var gotMap bool
	if err := g.RequestMapData(mgl32.Vec2{}, func(d MapData, err error) {
		if err != nil {
			t.Errorf("map data: %v", err)
		}
		data, gotMap = d, true
	}); err != nil {
		t.Fatal(err)
	}
	q.Wait()
	if gotMap {
		t.Fatal("callback ran before Drain")
	}
	q.Drain()
	if !gotMap || data.Height == nil {
		t.Fatal("map data not delivered")
	}

	var mesh *meshing.MeshData
	_ = g.RequestMeshData(data, 2, func(m *meshing.MeshData, err error) {
		if err != nil {
			t.Errorf("mesh: %v", err)
		}
		mesh = m
	})
	q.Wait()
	q.Drain()
	if mesh == nil || mesh.VerticesPerLine != 13 {
		t.Fatalf("mesh = %+v, want 13 vertices per line", mesh)
	}

	var meshErr error
	_ = g.RequestMeshData(data, 5, func(_ *meshing.MeshData, err error) { meshErr = err })
	q.Wait()
	q.Drain()
	if !errors.Is(meshErr, meshing.ErrDimensionMismatch) {
		t.Fatalf("lod 5 on a 49 grid: err = %v, want ErrDimensionMismatch", meshErr)
	}
}

func TestRequestWithoutQueue(t *testing.T) {
	g := NewGenerator(smallSettings(), nil)
	if err := g.RequestMapData(mgl32.Vec2{}, func(MapData, error) {}); !errors.Is(err, ErrNoQueue) {
		t.Fatalf("err = %v, want ErrNoQueue", err)
	}
}

func TestPreviewModes(t *testing.T) {
	g := NewGenerator(smallSettings(), nil)
	for _, mode := range []DrawMode{DrawNoiseMap, DrawColorMap} {
		p, err := g.Preview(mode, 0)
		if err != nil {
			t.Fatal(err)
		}
		if p.Mesh != nil || p.Data.Height == nil {
			t.Errorf("%v preview: mesh=%v height=%v", mode, p.Mesh, p.Data.Height)
		}
	}
	p, err := g.Preview(DrawMesh, 4)
	if err != nil {
		t.Fatal(err)
	}
	if p.Mesh == nil || p.Mesh.VerticesPerLine != 7 {
		t.Fatalf("mesh preview = %+v", p.Mesh)
	}
	if _, err := g.Preview(DrawMesh, 5); !errors.Is(err, meshing.ErrDimensionMismatch) {
		t.Fatalf("lod 5 preview err = %v", err)
	}
}

func TestParseDrawMode(t *testing.T) {
	for in, want := range map[string]DrawMode{"noise": DrawNoiseMap, "Colour": DrawColorMap, "mesh": DrawMesh} {
		got, err := ParseDrawMode(in)
		if err != nil || got != want {
			t.Errorf("ParseDrawMode(%q) = %v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseDrawMode("wireframe"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
