// Package game owns the generation queue, map generator and chunk streamer of one
// running terrain and drives them from a single tick loop.
package game

import (
	"io"
	"log"
	"sync"
	"time"

	"lodterrain/internal/config"
	"lodterrain/internal/jobs"
	"lodterrain/internal/mapgen"
	"lodterrain/internal/profiling"
	"lodterrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Stats is a snapshot of the session taken at the end of the last tick.
type Stats struct {
	Ticks       uint64      `json:"ticks"`
	SlowTicks   uint64      `json:"slow_ticks"`
	LastTickMs  float64     `json:"last_tick_ms"`
	Drained     int         `json:"drained"`
	Pending     int         `json:"pending"`
	InFlight    int         `json:"in_flight"`
	Viewer      [2]float32  `json:"viewer"`
	ViewerChunk [2]int      `json:"viewer_chunk"`
	World       world.Stats `json:"world"`
}

// Session wires one terrain together. Tick must always be called from the same
// goroutine; Stats may be called from any goroutine.
type Session struct {
	Queue     *jobs.Queue
	Generator *mapgen.Generator
	Streamer  *world.Streamer

	log      *log.Logger
	slowTick time.Duration

	mu    sync.RWMutex
	stats Stats
}

// NewSession builds the queue, generator and streamer described by cfg.
// Rendering events go to sink.
func NewSession(cfg config.Config, sink world.Sink, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	settings, err := cfg.GeneratorSettings()
	if err != nil {
		return nil, err
	}

	queue := jobs.NewQueue(cfg.Server.Workers, logger)
	gen := mapgen.NewGenerator(settings, queue)
	streamLog := log.New(logger.Writer(), "[stream] ", logger.Flags())
	streamer, err := world.NewStreamer(gen, sink, cfg.StreamerOptions(), streamLog)
	if err != nil {
		queue.Close()
		return nil, err
	}

	logger.Printf("session: chunk size %d, %d LOD levels, view distance %.0f (%d chunks each way)",
		gen.ChunkSize(), len(streamer.LODs()), world.MaxViewDistance(streamer.LODs()), streamer.ChunksVisibleInViewDistance())

	return &Session{
		Queue:     queue,
		Generator: gen,
		Streamer:  streamer,
		log:       logger,
		slowTick:  cfg.SlowTick(),
	}, nil
}

// Tick drains finished generation jobs, then lets the streamer follow the viewer
// (world units, XZ plane). It returns the time spent.
func (s *Session) Tick(viewer mgl32.Vec2) time.Duration {
	profiling.ResetFrame()
	start := time.Now()

	drained := s.Queue.Drain()
	s.Streamer.Update(viewer)

	d := time.Since(start)
	slow := s.slowTick > 0 && d > s.slowTick
	if slow {
		s.log.Printf("Slow tick: %v (%d completions). Top tasks: %s", d, drained, profiling.TopN(5))
	}

	ws := s.Streamer.Stats()
	vc := s.Streamer.ViewerChunk()

	s.mu.Lock()
	s.stats.Ticks++
	if slow {
		s.stats.SlowTicks++
	}
	s.stats.LastTickMs = float64(d.Microseconds()) / 1000
	s.stats.Drained = drained
	s.stats.Pending = s.Queue.Pending()
	s.stats.InFlight = s.Queue.InFlight()
	s.stats.Viewer = [2]float32{viewer.X(), viewer.Y()}
	s.stats.ViewerChunk = [2]int{vc.X, vc.Y}
	s.stats.World = ws
	s.mu.Unlock()

	return d
}

func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Close stops the worker pool. Completions that were never drained are discarded.
func (s *Session) Close() {
	s.Queue.Close()
}
