package mapgen

import (
	"fmt"
	"strings"

	"lodterrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawMode selects what an editor preview produces.
type DrawMode int

const (
	DrawNoiseMap DrawMode = iota
	DrawColorMap
	DrawMesh
)

func (m DrawMode) String() string {
	switch m {
	case DrawColorMap:
		return "color"
	case DrawMesh:
		return "mesh"
	default:
		return "noise"
	}
}

// ParseDrawMode accepts "noise", "color" or "mesh".
func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noise", "noisemap", "":
		return DrawNoiseMap, nil
	case "color", "colour", "colormap":
		return DrawColorMap, nil
	case "mesh":
		return DrawMesh, nil
	}
	return DrawNoiseMap, fmt.Errorf("unknown draw mode %q", s)
}

// Preview is the synchronous output for the chunk at the origin.
// Mesh is only set in DrawMesh mode.
type Preview struct {
	Mode DrawMode
	LOD  int
	Data MapData
	Mesh *meshing.MeshData
}

// Preview runs the whole pipeline for the origin chunk on the calling goroutine.
func (g *Generator) Preview(mode DrawMode, lod int) (Preview, error) {
	data, err := g.GenerateMapData(mgl32.Vec2{})
	if err != nil {
		return Preview{}, err
	}
	p := Preview{Mode: mode, LOD: lod, Data: data}
	if mode != DrawMesh {
		return p, nil
	}
	p.Mesh, err = g.BuildMesh(data, lod)
	if err != nil {
		return Preview{}, fmt.Errorf("preview mesh: %w", err)
	}
	return p, nil
}
