package config

import (
	"fmt"
	"time"

	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"
	"lodterrain/internal/noise"
	"lodterrain/internal/terrain"
	"lodterrain/internal/texture"
	"lodterrain/internal/world"

	"github.com/go-gl/mathgl/mgl64"
)

// RegionsFromBands converts a band table into its configuration form.
func RegionsFromBands(bands terrain.Bands) []RegionConfig {
	out := make([]RegionConfig, len(bands))
	for i, b := range bands {
		out[i] = RegionConfig{Name: b.Name, Height: b.Height, Color: terrain.HexColor(b.Color)}
	}
	return out
}

// NoiseParameters returns the noise settings for generation.
func (c Config) NoiseParameters() (noise.Parameters, error) {
	src, err := noise.ParseSourceKind(c.Noise.Source)
	if err != nil {
		return noise.Parameters{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	mode := noise.NormalizeGlobal
	if c.Noise.Normalize == "local" {
		mode = noise.NormalizeLocal
	}
	return noise.Parameters{
		Seed:        c.Noise.Seed,
		Scale:       c.Noise.Scale,
		Octaves:     c.Noise.Octaves,
		Persistence: c.Noise.Persistence,
		Lacunarity:  c.Noise.Lacunarity,
		Offset:      mgl64.Vec2{c.Noise.Offset[0], c.Noise.Offset[1]},
		Normalize:   mode,
		Source:      src,
	}, nil
}

// Bands returns the region table.
func (c Config) Bands() (terrain.Bands, error) {
	bands := make(terrain.Bands, len(c.Regions))
	for i, r := range c.Regions {
		col, err := terrain.ParseHexColor(r.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: region %q: %v", ErrInvalid, r.Name, err)
		}
		bands[i] = terrain.Band{Name: r.Name, Height: r.Height, Color: col}
	}
	return bands, nil
}

// HeightCurve returns the mesh height response. An empty curve is linear.
func (c Config) HeightCurve() meshing.HeightCurve {
	if len(c.Mesh.Curve) == 0 {
		return meshing.LinearCurve{}
	}
	return meshing.NewKeyframeCurve(c.curveKeys()...)
}

// GeneratorSettings assembles the map generator settings.
func (c Config) GeneratorSettings() (mapgen.Settings, error) {
	params, err := c.NoiseParameters()
	if err != nil {
		return mapgen.Settings{}, err
	}
	bands, err := c.Bands()
	if err != nil {
		return mapgen.Settings{}, err
	}
	return mapgen.Settings{
		ChunkSize:        c.Streaming.ChunkSize,
		Noise:            params,
		Regions:          bands,
		HeightMultiplier: c.Mesh.HeightMultiplier,
		HeightCurve:      c.HeightCurve(),
	}, nil
}

// StreamerOptions returns the chunk streaming options.
func (c Config) StreamerOptions() world.Options {
	lods := make([]world.LODInfo, len(c.Streaming.LODs))
	for i, l := range c.Streaming.LODs {
		lods[i] = world.LODInfo{LOD: l.LOD, VisibleDistance: l.Distance}
	}
	retries := c.Streaming.MaxRetries
	if retries == 0 {
		retries = -1 // explicit zero means no retries
	}
	threshold := c.Streaming.MoveThreshold
	if threshold == 0 {
		threshold = -1
	}
	return world.Options{
		LODs:          lods,
		WorldScale:    c.Streaming.WorldScale,
		MoveThreshold: threshold,
		MaxRetries:    retries,
		EvictDistance: c.Streaming.EvictDistance,
	}
}

// DrawMode returns the preview draw mode.
func (c Config) DrawMode() mapgen.DrawMode {
	m, _ := mapgen.ParseDrawMode(c.Preview.DrawMode)
	return m
}

// ImageFormat returns the preview image format.
func (c Config) ImageFormat() texture.Format {
	f, _ := texture.ParseFormat(c.Preview.Format)
	return f
}

// TickInterval is the duration of one server tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Server.TickRateHz)
}

// SlowTick is the tick duration above which the server logs the top profiled sections.
func (c Config) SlowTick() time.Duration {
	return time.Duration(c.Server.SlowTickMs) * time.Millisecond
}
