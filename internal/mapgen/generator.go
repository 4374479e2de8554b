// Package mapgen ties noise generation, band classification and meshing
// together for one chunk, synchronously or through a jobs.Queue.
package mapgen

import (
	"errors"
	"fmt"

	"lodterrain/internal/jobs"
	"lodterrain/internal/meshing"
	"lodterrain/internal/noise"
	"lodterrain/internal/profiling"
	"lodterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// ChunkSize is the number of samples along one side of a map chunk.
// 240 quads divide evenly by every LOD factor up to meshing.MaxLOD.
const ChunkSize = 241

// ErrNoQueue is returned by the Request methods of a generator built without a queue.
var ErrNoQueue = errors.New("mapgen: generator has no job queue")

// Settings configures a Generator.
type Settings struct {
	ChunkSize        int
	Noise            noise.Parameters
	Regions          terrain.Bands
	HeightMultiplier float32
	HeightCurve      meshing.HeightCurve
}

// DefaultSettings mirrors the stock terrain scene.
func DefaultSettings() Settings {
	return Settings{
		ChunkSize: ChunkSize,
		Noise: noise.Parameters{
			Seed:        42,
			Scale:       50,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2,
			Normalize:   noise.NormalizeGlobal,
		},
		Regions:          terrain.DefaultBands(),
		HeightMultiplier: 20,
		HeightCurve: meshing.NewKeyframeCurve(
			meshing.Keyframe{Time: 0, Value: 0},
			meshing.Keyframe{Time: 0.4, Value: 0.02},
			meshing.Keyframe{Time: 1, Value: 1},
		),
	}
}

// MapData is the height grid of a chunk and its classified colours.
type MapData struct {
	Height *noise.HeightGrid
	Colors *terrain.ColorGrid
}

// Generator produces map and mesh data. Its settings are fixed at construction,
// so it is safe to call from any goroutine.
type Generator struct {
	settings Settings
	queue    *jobs.Queue
}

// NewGenerator returns a generator submitting async requests to queue.
// queue may be nil when only the synchronous methods are used.
func NewGenerator(settings Settings, queue *jobs.Queue) *Generator {
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = ChunkSize
	}
	if settings.HeightCurve == nil {
		settings.HeightCurve = meshing.LinearCurve{}
	}
	settings.Noise = settings.Noise.Sanitized()
	return &Generator{settings: settings, queue: queue}
}

func (g *Generator) Settings() Settings { return g.settings }

// ChunkSize returns the number of samples per chunk side.
func (g *Generator) ChunkSize() int { return g.settings.ChunkSize }

// GenerateMapData samples the chunk centred on centre (in height-grid units) and classifies it.
func (g *Generator) GenerateMapData(centre mgl32.Vec2) (MapData, error) {
	defer profiling.Track("mapgen.GenerateMapData")()

	params := g.settings.Noise
	params.Offset = params.Offset.Add(mgl64.Vec2{float64(centre.X()), float64(centre.Y())})

	grid, err := noise.Generate(g.settings.ChunkSize, g.settings.ChunkSize, params)
	if err != nil {
		return MapData{}, fmt.Errorf("generate map data at %v: %w", centre, err)
	}
	return MapData{Height: grid, Colors: terrain.Classify(grid, g.settings.Regions)}, nil
}

// BuildMesh meshes data at lod with the configured height multiplier and curve.
func (g *Generator) BuildMesh(data MapData, lod int) (*meshing.MeshData, error) {
	return meshing.Build(data.Height, g.settings.HeightMultiplier, g.settings.HeightCurve, lod)
}

// RequestMapData runs GenerateMapData on the queue; callback runs on the next Drain.
func (g *Generator) RequestMapData(centre mgl32.Vec2, callback func(MapData, error)) error {
	if g.queue == nil {
		return ErrNoQueue
	}
	return jobs.Submit(g.queue, func() (MapData, error) {
		return g.GenerateMapData(centre)
	}, callback)
}

// RequestMeshData runs BuildMesh on the queue; callback runs on the next Drain.
func (g *Generator) RequestMeshData(data MapData, lod int, callback func(*meshing.MeshData, error)) error {
	if g.queue == nil {
		return ErrNoQueue
	}
	return jobs.Submit(g.queue, func() (*meshing.MeshData, error) {
		return g.BuildMesh(data, lod)
	}, callback)
}
