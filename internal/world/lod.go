package world

import (
	"fmt"
	"sort"

	"lodterrain/internal/meshing"
)

// LODInfo pairs a mesh level with the edge distance up to which it is used.
type LODInfo struct {
	LOD             int
	VisibleDistance float32
}

// SelectLOD returns the index into levels for a viewer dist away from a chunk edge.
// levels must be ascending by VisibleDistance. The last entry covers every distance
// beyond the other thresholds.
func SelectLOD(levels []LODInfo, dist float32) int {
	index := 0
	for i := 0; i < len(levels)-1; i++ {
		if dist >= levels[i].VisibleDistance {
			index = i + 1
		} else {
			break
		}
	}
	return index
}

// MaxViewDistance is the threshold of the last level.
func MaxViewDistance(levels []LODInfo) float32 {
	if len(levels) == 0 {
		return 0
	}
	return levels[len(levels)-1].VisibleDistance
}

// ValidateLODs checks that levels is usable by a Streamer and returns it sorted by distance.
func ValidateLODs(levels []LODInfo) ([]LODInfo, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty LOD table", ErrInvalidOptions)
	}
	out := make([]LODInfo, len(levels))
	copy(out, levels)
	for _, l := range out {
		if l.LOD < 0 || l.LOD > meshing.MaxLOD {
			return nil, fmt.Errorf("%w: LOD %d outside 0..%d", ErrInvalidOptions, l.LOD, meshing.MaxLOD)
		}
		if l.VisibleDistance <= 0 {
			return nil, fmt.Errorf("%w: LOD %d has non-positive distance %v", ErrInvalidOptions, l.LOD, l.VisibleDistance)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisibleDistance < out[j].VisibleDistance })
	return out, nil
}
