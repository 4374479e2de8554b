package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lodterrain/internal/config"
	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"
	"lodterrain/internal/texture"

	"github.com/xlab/closer"
)

type options struct {
	mode   string
	lod    int
	out    string
	format string
	zoom   int
	legend bool
	obj    string
}

func main() {
	configPath := flag.String("config", "configs/terrain.yaml", "terrain configuration file")
	var opts options
	flag.StringVar(&opts.mode, "mode", "", "draw mode: noise, color or mesh (overrides preview.draw_mode)")
	flag.IntVar(&opts.lod, "lod", -1, "mesh LOD 0..6 (overrides preview.lod)")
	flag.StringVar(&opts.out, "out", "preview.png", "output image file")
	flag.StringVar(&opts.format, "format", "", "image format png, bmp or tiff (default: from -out, then preview.format)")
	flag.IntVar(&opts.zoom, "zoom", 0, "nearest-neighbour upscale factor (overrides preview.zoom)")
	flag.BoolVar(&opts.legend, "legend", false, "append a region legend")
	flag.StringVar(&opts.obj, "obj", "", "write the mesh as OBJ (mesh mode; .zst compresses)")
	watch := flag.Duration("watch", 0, "re-render whenever the config file changes, polling at this interval")
	flag.Parse()

	logger := log.New(os.Stdout, "[preview] ", log.LstdFlags)

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	for _, w := range warnings {
		logger.Printf("config: %s", w)
	}

	if err := render(cfg, opts, logger); err != nil {
		logger.Fatalf("render: %v", err)
	}
	if *watch <= 0 {
		return
	}

	live := config.NewLive(cfg, *configPath)
	done := make(chan struct{})
	closer.Bind(func() { close(done) })

	go func() {
		ticker := time.NewTicker(*watch)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			changed, warnings, err := live.ReloadIfChanged()
			if err != nil {
				logger.Printf("reload: %v", err)
				continue
			}
			if !changed {
				continue
			}
			for _, w := range warnings {
				logger.Printf("config: %s", w)
			}
			if err := render(live.Get(), opts, logger); err != nil {
				logger.Printf("render: %v", err)
			}
		}
	}()

	logger.Printf("watching %s", *configPath)
	closer.Hold()
}

// render writes the preview image (and optional OBJ) for cfg; flags override the preview section.
func render(cfg config.Config, opts options, logger *log.Logger) error {
	start := time.Now()

	mode := cfg.DrawMode()
	if opts.mode != "" {
		m, err := mapgen.ParseDrawMode(opts.mode)
		if err != nil {
			return err
		}
		mode = m
	}
	lod := cfg.Preview.LOD
	if opts.lod >= 0 {
		lod = opts.lod
	}
	zoom := cfg.Preview.Zoom
	if opts.zoom > 0 {
		zoom = opts.zoom
	}
	format := cfg.ImageFormat()
	switch {
	case opts.format != "":
		f, err := texture.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	case filepath.Ext(opts.out) != "":
		if f, err := texture.ParseFormat(opts.out); err == nil {
			format = f
		}
	}

	settings, err := cfg.GeneratorSettings()
	if err != nil {
		return err
	}
	gen := mapgen.NewGenerator(settings, nil)
	p, err := gen.Preview(mode, lod)
	if err != nil {
		return err
	}

	var img image.Image
	if mode == mapgen.DrawNoiseMap {
		img = texture.Upscale(texture.FromHeightGrid(p.Data.Height), zoom)
	} else {
		img = texture.Upscale(texture.FromColorGrid(p.Data.Colors, color.RGBA{R: 0xff, B: 0xff, A: 0xff}), zoom)
	}
	if opts.legend || cfg.Preview.Legend {
		if img, err = texture.Legend(img, settings.Regions, 14); err != nil {
			return err
		}
	}
	if err := writeFile(opts.out, func(f *os.File) error { return texture.Encode(f, img, format) }); err != nil {
		return err
	}

	if p.Mesh != nil && opts.obj != "" {
		name := fmt.Sprintf("terrain_lod%d", p.LOD)
		err := writeFile(opts.obj, func(f *os.File) error {
			if strings.HasSuffix(opts.obj, ".zst") {
				return meshing.WriteOBJZstd(f, p.Mesh, name)
			}
			return meshing.WriteOBJ(f, p.Mesh, name)
		})
		if err != nil {
			return err
		}
		logger.Printf("mesh: %d vertices, %d triangles -> %s", len(p.Mesh.Vertices), p.Mesh.TriangleCount(), opts.obj)
	}

	logger.Printf("%s preview (seed %d, lod %d) -> %s [%s] in %v",
		mode, settings.Noise.Seed, lod, opts.out, format, time.Since(start).Round(time.Millisecond))
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
