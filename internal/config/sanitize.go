package config

import (
	"fmt"
	"sort"

	"lodterrain/internal/meshing"
	"lodterrain/internal/noise"
	"lodterrain/internal/terrain"
)

// Sanitize clamps every out-of-range value into its domain and sorts the region
// and LOD tables. Each correction is reported as a warning. Only values that have
// no sensible clamp (unparseable colours, an LOD factor that does not divide the
// chunk) are returned as errors.
func (c *Config) Sanitize() ([]string, error) {
	var w []string
	warn := func(format string, args ...any) { w = append(w, fmt.Sprintf(format, args...)) }

	if c.Server.TickRateHz < 1 {
		warn("server.tick_rate_hz %d raised to 1", c.Server.TickRateHz)
		c.Server.TickRateHz = 1
	}
	if c.Server.TickRateHz > 240 {
		warn("server.tick_rate_hz %d lowered to 240", c.Server.TickRateHz)
		c.Server.TickRateHz = 240
	}
	if c.Server.Workers < 0 {
		warn("server.workers %d reset to 0 (one per CPU)", c.Server.Workers)
		c.Server.Workers = 0
	}

	n := &c.Noise
	if n.Scale <= 0 {
		warn("noise.scale %v raised to %v", n.Scale, noise.MinScale)
		n.Scale = noise.MinScale
	}
	if n.Octaves < 0 {
		warn("noise.octaves %d raised to 0", n.Octaves)
		n.Octaves = 0
	}
	if n.Lacunarity < 1 {
		warn("noise.lacunarity %v raised to 1", n.Lacunarity)
		n.Lacunarity = 1
	}
	if n.Persistence < 0 || n.Persistence > 1 {
		p := min(max(n.Persistence, 0), 1)
		warn("noise.persistence %v clamped to %v", n.Persistence, p)
		n.Persistence = p
	}

	if len(c.Regions) == 0 {
		warn("no regions configured, using the default table")
		c.Regions = RegionsFromBands(terrain.DefaultBands())
	}
	if !sort.SliceIsSorted(c.Regions, func(i, j int) bool { return c.Regions[i].Height < c.Regions[j].Height }) {
		warn("regions sorted by ascending height")
		sort.SliceStable(c.Regions, func(i, j int) bool { return c.Regions[i].Height < c.Regions[j].Height })
	}
	for _, r := range c.Regions {
		if _, err := terrain.ParseHexColor(r.Color); err != nil {
			return nil, fmt.Errorf("%w: region %q: %v", ErrInvalid, r.Name, err)
		}
	}

	if c.Mesh.HeightMultiplier < 0 {
		warn("mesh.height_multiplier %v raised to 0", c.Mesh.HeightMultiplier)
		c.Mesh.HeightMultiplier = 0
	}
	if !meshing.NewKeyframeCurve(c.curveKeys()...).Monotonic() {
		warn("mesh.curve is not monotonic; vertices may fold over")
	}

	s := &c.Streaming
	if s.ChunkSize < 3 {
		warn("streaming.chunk_size %d raised to 3", s.ChunkSize)
		s.ChunkSize = 3
	}
	if s.WorldScale <= 0 {
		warn("streaming.world_scale %v reset to 1", s.WorldScale)
		s.WorldScale = 1
	}
	if s.EvictDistance < 0 {
		warn("streaming.evict_distance %v reset to 0 (never evict)", s.EvictDistance)
		s.EvictDistance = 0
	}
	for i := range s.LODs {
		l := &s.LODs[i]
		if l.LOD < 0 || l.LOD > meshing.MaxLOD {
			v := min(max(l.LOD, 0), meshing.MaxLOD)
			warn("streaming.lods[%d].lod %d clamped to %d", i, l.LOD, v)
			l.LOD = v
		}
	}
	if !sort.SliceIsSorted(s.LODs, func(i, j int) bool { return s.LODs[i].Distance < s.LODs[j].Distance }) {
		warn("streaming.lods sorted by ascending distance")
		sort.SliceStable(s.LODs, func(i, j int) bool { return s.LODs[i].Distance < s.LODs[j].Distance })
	}
	for _, l := range s.LODs {
		if err := meshing.CheckDimensions(s.ChunkSize, s.ChunkSize, l.LOD); err != nil {
			return nil, fmt.Errorf("%w: streaming.lods: %v", ErrInvalid, err)
		}
	}

	p := &c.Preview
	if p.LOD < 0 || p.LOD > meshing.MaxLOD {
		v := min(max(p.LOD, 0), meshing.MaxLOD)
		warn("preview.lod %d clamped to %d", p.LOD, v)
		p.LOD = v
	}
	if p.Zoom < 1 {
		warn("preview.zoom %d raised to 1", p.Zoom)
		p.Zoom = 1
	}
	return w, nil
}

func (c *Config) curveKeys() []meshing.Keyframe {
	keys := make([]meshing.Keyframe, len(c.Mesh.Curve))
	for i, k := range c.Mesh.Curve {
		keys[i] = meshing.Keyframe{Time: k.Time, Value: k.Value}
	}
	return keys
}
