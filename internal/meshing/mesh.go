package meshing

import (
	"errors"
	"fmt"

	"lodterrain/internal/noise"
	"lodterrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLOD is the coarsest supported level. Level l skips 2*l cells per step (level 0 keeps every cell),
// so the accepted simplification factors are 1, 2, 4, 6, 8, 10 and 12.
const MaxLOD = 6

var (
	// ErrInvalidLOD is returned for a level outside [0, MaxLOD].
	ErrInvalidLOD = errors.New("meshing: invalid LOD")
	// ErrDimensionMismatch is returned when a grid side minus one is not a multiple of the LOD factor.
	ErrDimensionMismatch = errors.New("meshing: grid dimensions do not fit LOD factor")
)

// MeshData is a triangle mesh built from one HeightGrid at one LOD. It is immutable once built.
type MeshData struct {
	LOD             int
	VerticesPerLine int
	Vertices        []mgl32.Vec3
	Triangles       []uint32 // three indices per triangle
	UVs             []mgl32.Vec2
}

// TriangleCount returns len(Triangles)/3.
func (m *MeshData) TriangleCount() int {
	return len(m.Triangles) / 3
}

// FaceNormal returns the unnormalized normal of triangle i.
func (m *MeshData) FaceNormal(i int) mgl32.Vec3 {
	a := m.Vertices[m.Triangles[3*i]]
	b := m.Vertices[m.Triangles[3*i+1]]
	c := m.Vertices[m.Triangles[3*i+2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// Normals returns smooth per-vertex normals accumulated from adjacent faces.
func (m *MeshData) Normals() []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(m.Vertices))
	for i := 0; i < m.TriangleCount(); i++ {
		n := m.FaceNormal(i)
		for k := 0; k < 3; k++ {
			idx := m.Triangles[3*i+k]
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals
}

// SimplificationIncrement returns the grid step used at lod.
func SimplificationIncrement(lod int) int {
	if lod == 0 {
		return 1
	}
	return lod * 2
}

// CheckDimensions reports whether a width x height grid can be meshed at lod.
func CheckDimensions(width, height, lod int) error {
	if lod < 0 || lod > MaxLOD {
		return fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidLOD, lod, MaxLOD)
	}
	if width < 2 || height < 2 {
		return fmt.Errorf("%w: %dx%d grid is too small to mesh", ErrDimensionMismatch, width, height)
	}
	inc := SimplificationIncrement(lod)
	if (width-1)%inc != 0 || (height-1)%inc != 0 {
		return fmt.Errorf("%w: %dx%d grid at LOD %d needs (side-1) divisible by %d", ErrDimensionMismatch, width, height, lod, inc)
	}
	return nil
}

// Build converts grid into a mesh centred on the origin in the XZ plane.
// Each kept sample becomes a vertex at elevation curve(h)*heightMultiplier. Border rows and
// columns are always kept so neighbouring chunks built at the same LOD share their edge vertices.
func Build(grid *noise.HeightGrid, heightMultiplier float32, curve HeightCurve, lod int) (*MeshData, error) {
	defer profiling.Track("meshing.Build")()
	width, height := grid.Width(), grid.Height()
	if err := CheckDimensions(width, height, lod); err != nil {
		return nil, err
	}
	if curve == nil {
		curve = LinearCurve{}
	}

	inc := SimplificationIncrement(lod)
	perLineX := (width-1)/inc + 1
	perLineY := (height-1)/inc + 1

	topLeftX := float32(width-1) / -2
	topLeftZ := float32(height-1) / 2

	m := &MeshData{
		LOD:             lod,
		VerticesPerLine: perLineX,
		Vertices:        make([]mgl32.Vec3, 0, perLineX*perLineY),
		UVs:             make([]mgl32.Vec2, 0, perLineX*perLineY),
		Triangles:       make([]uint32, 0, (perLineX-1)*(perLineY-1)*6),
	}

	vertexIndex := uint32(0)
	line := uint32(perLineX)
	for y := 0; y < height; y += inc {
		for x := 0; x < width; x += inc {
			elevation := float32(curve.Evaluate(grid.At(x, y))) * heightMultiplier
			m.Vertices = append(m.Vertices, mgl32.Vec3{topLeftX + float32(x), elevation, topLeftZ - float32(y)})
			m.UVs = append(m.UVs, mgl32.Vec2{float32(x) / float32(width-1), float32(y) / float32(height-1)})

			if x < width-1 && y < height-1 {
				// Same diagonal for every quad; both triangles face +Y.
				m.Triangles = append(m.Triangles,
					vertexIndex, vertexIndex+line+1, vertexIndex+line,
					vertexIndex+line+1, vertexIndex, vertexIndex+1,
				)
			}
			vertexIndex++
		}
	}
	return m, nil
}
