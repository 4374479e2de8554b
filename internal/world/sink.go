package world

import (
	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Sink receives everything the streamer hands to the renderer. All calls are
// made on the goroutine that runs Streamer.Update and the job queue Drain.
type Sink interface {
	// ChunkCreated places a new, hidden chunk at position (world units) with a uniform scale.
	ChunkCreated(coord ChunkCoord, position mgl32.Vec3, scale float32)
	// SetTextures delivers the height and colour grids once they are generated.
	SetTextures(coord ChunkCoord, data mapgen.MapData)
	// SetMesh swaps in the mesh for the given LOD level.
	SetMesh(coord ChunkCoord, lod int, mesh *meshing.MeshData)
	SetVisible(coord ChunkCoord, visible bool)
	ChunkRemoved(coord ChunkCoord)
}

// NopSink discards every call.
type NopSink struct{}

func (NopSink) ChunkCreated(ChunkCoord, mgl32.Vec3, float32) {}
func (NopSink) SetTextures(ChunkCoord, mapgen.MapData) {}
func (NopSink) SetMesh(ChunkCoord, int, *meshing.MeshData) {}
func (NopSink) SetVisible(ChunkCoord, bool) {}
func (NopSink) ChunkRemoved(ChunkCoord) {}
