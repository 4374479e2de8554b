// Package config loads the terrain configuration from YAML, validates it against
// an embedded JSON schema and clamps out-of-range values.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"lodterrain/internal/terrain"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid wraps schema violations and values that cannot be clamped.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Noise     NoiseConfig     `yaml:"noise"`
	Regions   []RegionConfig  `yaml:"regions"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Streaming StreamingConfig `yaml:"streaming"`
	Preview   PreviewConfig   `yaml:"preview"`
}

type ServerConfig struct {
	Listen     string `yaml:"listen"`
	TickRateHz int    `yaml:"tick_rate_hz"`
	Workers    int    `yaml:"workers"`
	SlowTickMs int    `yaml:"slow_tick_ms"`
}

type NoiseConfig struct {
	Seed        int64      `yaml:"seed"`
	Scale       float64    `yaml:"scale"`
	Octaves     int        `yaml:"octaves"`
	Persistence float64    `yaml:"persistence"`
	Lacunarity  float64    `yaml:"lacunarity"`
	Offset      [2]float64 `yaml:"offset"`
	Normalize   string     `yaml:"normalize"`
	Source      string     `yaml:"source"`
}

type RegionConfig struct {
	Name   string  `yaml:"name"`
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
}

type CurveKey struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

type MeshConfig struct {
	HeightMultiplier float32    `yaml:"height_multiplier"`
	Curve            []CurveKey `yaml:"curve"`
}

type LODConfig struct {
	LOD      int     `yaml:"lod"`
	Distance float32 `yaml:"distance"`
}

type StreamingConfig struct {
	ChunkSize     int         `yaml:"chunk_size"`
	WorldScale    float32     `yaml:"world_scale"`
	MoveThreshold float32     `yaml:"move_threshold"`
	MaxRetries    int         `yaml:"max_retries"`
	EvictDistance float32     `yaml:"evict_distance"`
	LODs          []LODConfig `yaml:"lods"`
}

type PreviewConfig struct {
	DrawMode string `yaml:"draw_mode"`
	LOD      int    `yaml:"lod"`
	Zoom     int    `yaml:"zoom"`
	Format   string `yaml:"format"`
	Legend   bool   `yaml:"legend"`
}

// Defaults reproduces the stock terrain scene.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Listen:     ":8080",
			TickRateHz: 30,
			SlowTickMs: 50,
		},
		Noise: NoiseConfig{
			Seed:        42,
			Scale:       50,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2,
			Normalize:   "global",
			Source:      "value",
		},
		Regions: RegionsFromBands(terrain.DefaultBands()),
		Mesh: MeshConfig{
			HeightMultiplier: 20,
			Curve: []CurveKey{
				{Time: 0, Value: 0},
				{Time: 0.4, Value: 0.02},
				{Time: 1, Value: 1},
			},
		},
		Streaming: StreamingConfig{
			ChunkSize:     241,
			WorldScale:    5,
			MoveThreshold: 25,
			MaxRetries:    3,
			LODs: []LODConfig{
				{LOD: 0, Distance: 200},
				{LOD: 1, Distance: 400},
				{LOD: 4, Distance: 600},
			},
		},
		Preview: PreviewConfig{
			DrawMode: "color",
			Zoom:     2,
			Format:   "png",
		},
	}
}

// Load reads path, validates it and returns the sanitized configuration with one
// warning per clamped value. Keys missing from the file keep their defaults.
func Load(path string) (Config, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, nil, err
	}
	cfg, warnings, err := Parse(raw)
	if err != nil {
		return Config{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, warnings, nil
}

// Parse is Load for an in-memory document.
func Parse(raw []byte) (Config, []string, error) {
	if err := Validate(raw); err != nil {
		return Config{}, nil, err
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	warnings, err := cfg.Sanitize()
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// Validate checks a YAML document against the embedded schema.
func Validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		// empty file: every default applies
		return nil
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s, err := compileSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	s, err := c.Compile("config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}
