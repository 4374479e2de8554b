package world

import (
	"fmt"
	"math"

	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord addresses a chunk on the terrain grid.
type ChunkCoord struct {
	X, Y int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Bounds is an axis-aligned square on the XY grid plane.
type Bounds struct {
	Center mgl32.Vec2
	Extent float32 // half the side length
}

// NewBounds returns the square of side size centred on center.
func NewBounds(center mgl32.Vec2, size float32) Bounds {
	return Bounds{Center: center, Extent: size / 2}
}

// SqrDistance returns the squared distance from p to the nearest point of b (0 inside).
func (b Bounds) SqrDistance(p mgl32.Vec2) float32 {
	var sum float32
	for i := 0; i < 2; i++ {
		d := p[i] - b.Center[i]
		if d < 0 {
			d = -d
		}
		if d > b.Extent {
			sum += (d - b.Extent) * (d - b.Extent)
		}
	}
	return sum
}

// Distance returns the distance from p to the nearest edge of b.
func (b Bounds) Distance(p mgl32.Vec2) float32 {
	return float32(math.Sqrt(float64(b.SqrDistance(p))))
}

// Phase is the generation state of a chunk.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseHeightPending
	PhaseHeightReady
	PhaseMeshPending
	PhaseMeshReady
	// PhaseFailed is a tracked chunk whose map data failed more often than the retry budget allows.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseHeightPending:
		return "height-pending"
	case PhaseHeightReady:
		return "height-ready"
	case PhaseMeshPending:
		return "mesh-pending"
	case PhaseMeshReady:
		return "mesh-ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

type lodMesh struct {
	lod       int
	requested bool
	ready     bool
	failures  int
	mesh      *meshing.MeshData
}

// TerrainChunk is the streaming state of one chunk. It is owned by the Streamer
// goroutine; readers on other goroutines must go through Stats.
type TerrainChunk struct {
	Coord    ChunkCoord
	Position mgl32.Vec2 // centre in grid units
	Bounds   Bounds

	data          mapgen.MapData
	hasData       bool
	dataRequested bool
	dataFailures  int
	gaveUp        bool

	meshes     []lodMesh
	currentLOD int // index into meshes of the displayed mesh, -1 before the first
	desiredLOD int
	visible    bool
}

func newTerrainChunk(coord ChunkCoord, side int, levels []LODInfo) *TerrainChunk {
	pos := mgl32.Vec2{float32(coord.X * side), float32(coord.Y * side)}
	c := &TerrainChunk{
		Coord:      coord,
		Position:   pos,
		Bounds:     NewBounds(pos, float32(side)),
		meshes:     make([]lodMesh, len(levels)),
		currentLOD: -1,
		desiredLOD: -1,
	}
	for i, l := range levels {
		c.meshes[i].lod = l.LOD
	}
	return c
}

// Phase reports where the chunk is in its generation lifecycle.
func (c *TerrainChunk) Phase() Phase {
	switch {
	case !c.hasData && c.gaveUp:
		return PhaseFailed
	case !c.hasData && (c.dataRequested || c.dataFailures > 0):
		return PhaseHeightPending
	case !c.hasData:
		return PhaseUnloaded
	case c.desiredLOD >= 0 && c.desiredLOD != c.currentLOD && c.meshes[c.desiredLOD].requested:
		return PhaseMeshPending
	case c.currentLOD >= 0:
		return PhaseMeshReady
	default:
		return PhaseHeightReady
	}
}

// MapData returns the cached height and colour grids.
func (c *TerrainChunk) MapData() (mapgen.MapData, bool) {
	return c.data, c.hasData
}

// Mesh returns the cached mesh for LOD table index i.
func (c *TerrainChunk) Mesh(i int) (*meshing.MeshData, bool) {
	if i < 0 || i >= len(c.meshes) || !c.meshes[i].ready {
		return nil, false
	}
	return c.meshes[i].mesh, true
}

// CurrentLOD returns the LOD table index of the displayed mesh, or -1.
func (c *TerrainChunk) CurrentLOD() int { return c.currentLOD }

func (c *TerrainChunk) Visible() bool { return c.visible }

// InFlight reports whether any request for this chunk has not completed yet.
func (c *TerrainChunk) InFlight() bool {
	if c.dataRequested {
		return true
	}
	for i := range c.meshes {
		if c.meshes[i].requested {
			return true
		}
	}
	return false
}
