package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"
	"lodterrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidOptions is returned by NewStreamer for an unusable configuration.
var ErrInvalidOptions = errors.New("world: invalid streamer options")

const (
	DefaultWorldScale    = 5
	DefaultMoveThreshold = 25
	DefaultMaxRetries    = 3
)

// Generator is the part of mapgen.Generator the streamer needs.
type Generator interface {
	ChunkSize() int
	RequestMapData(centre mgl32.Vec2, callback func(mapgen.MapData, error)) error
	RequestMeshData(data mapgen.MapData, lod int, callback func(*meshing.MeshData, error)) error
}

// Options configures a Streamer. Zero values select the defaults.
type Options struct {
	LODs []LODInfo
	// WorldScale divides viewer world positions into grid units and multiplies chunk placement.
	WorldScale float32
	// MoveThreshold is how far (grid units) the viewer must move before visibility is recomputed.
	// Negative recomputes on every Update.
	MoveThreshold float32
	// MaxRetries bounds how often a failed request is resubmitted. Negative disables retries.
	// Zero selects DefaultMaxRetries.
	MaxRetries int
	// EvictDistance drops hidden, idle chunks whose edge is further than this (grid units). 0 never evicts.
	EvictDistance float32
}

// Stats is a snapshot of the streamer state.
type Stats struct {
	Chunks        int `json:"chunks"`
	Visible       int `json:"visible"`
	PendingMaps   int `json:"pending_maps"`
	PendingMeshes int `json:"pending_meshes"`
	Meshes        int `json:"meshes"`
	Failed        int `json:"failed"`
	Evicted       int `json:"evicted"`
	Updates       int `json:"updates"`
}

// Streamer keeps the chunks around a viewer generated, meshed at the right LOD
// and shown or hidden. It is not safe for concurrent use: Update and the Drain
// of the generator's job queue must run on the same goroutine.
type Streamer struct {
	gen   Generator
	sink  Sink
	log   *log.Logger
	store *ChunkStore

	lods            []LODInfo
	scale           float32
	sqrThreshold    float32
	maxRetries      int
	evictDistance   float32
	chunkSide       int
	maxViewDistance float32
	chunksVisible   int

	viewer    mgl32.Vec2 // grid units
	viewerOld mgl32.Vec2
	updated   bool

	visible map[ChunkCoord]*TerrainChunk
	// chunks with a failed request still inside their retry budget
	retry   map[ChunkCoord]*TerrainChunk
	evicted int
	updates int
}

// NewStreamer validates opts and returns an idle streamer. Nothing is requested until Update.
func NewStreamer(gen Generator, sink Sink, opts Options, logger *log.Logger) (*Streamer, error) {
	lods, err := ValidateLODs(opts.LODs)
	if err != nil {
		return nil, err
	}
	side := gen.ChunkSize() - 1
	for _, l := range lods {
		if err := meshing.CheckDimensions(side+1, side+1, l.LOD); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.WorldScale <= 0 {
		opts.WorldScale = DefaultWorldScale
	}
	switch {
	case opts.MoveThreshold == 0:
		opts.MoveThreshold = DefaultMoveThreshold
	case opts.MoveThreshold < 0:
		opts.MoveThreshold = 0
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = DefaultMaxRetries
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}

	maxView := MaxViewDistance(lods)
	return &Streamer{
		gen:             gen,
		sink:            sink,
		log:             logger,
		store:           NewChunkStore(),
		lods:            lods,
		scale:           opts.WorldScale,
		sqrThreshold:    opts.MoveThreshold * opts.MoveThreshold,
		maxRetries:      opts.MaxRetries,
		evictDistance:   opts.EvictDistance,
		chunkSide:       side,
		maxViewDistance: maxView,
		chunksVisible:   int(math.Round(float64(maxView) / float64(side))),
		visible:         make(map[ChunkCoord]*TerrainChunk),
		retry:           make(map[ChunkCoord]*TerrainChunk),
	}, nil
}

// Store exposes the chunk map.
func (s *Streamer) Store() *ChunkStore { return s.store }

// LODs returns the sorted LOD table in use.
func (s *Streamer) LODs() []LODInfo { return append([]LODInfo(nil), s.lods...) }

// Viewer returns the last viewer position in grid units.
func (s *Streamer) Viewer() mgl32.Vec2 { return s.viewer }

// ChunksVisibleInViewDistance is the radius, in chunks, of the window scanned on each update.
func (s *Streamer) ChunksVisibleInViewDistance() int { return s.chunksVisible }

// Update records the viewer position (world units) and recomputes visibility when the
// viewer moved past the threshold since the last recompute. The first call always
// recomputes. Failed requests are resubmitted on every call, throttled or not.
// It reports whether a recompute happened.
func (s *Streamer) Update(viewerWorld mgl32.Vec2) bool {
	s.viewer = s.toGrid(viewerWorld)
	s.retryFailed()
	if s.updated && s.sqrThreshold > 0 && s.viewer.Sub(s.viewerOld).LenSqr() <= s.sqrThreshold {
		return false
	}
	s.updateVisibleChunks()
	s.viewerOld = s.viewer
	s.updated = true
	return true
}

// ForceUpdate recomputes visibility for viewerWorld regardless of the move threshold.
func (s *Streamer) ForceUpdate(viewerWorld mgl32.Vec2) {
	s.viewer = s.toGrid(viewerWorld)
	s.updateVisibleChunks()
	s.viewerOld = s.viewer
	s.updated = true
}

func (s *Streamer) toGrid(world mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{world.X() / s.scale, world.Y() / s.scale}
}

// ViewerChunk returns the chunk coordinate nearest the viewer.
func (s *Streamer) ViewerChunk() ChunkCoord {
	return ChunkCoord{
		X: int(math.Round(float64(s.viewer.X()) / float64(s.chunkSide))),
		Y: int(math.Round(float64(s.viewer.Y()) / float64(s.chunkSide))),
	}
}

func (s *Streamer) updateVisibleChunks() {
	defer profiling.Track("world.UpdateVisibleChunks")()
	s.updates++

	centre := s.ViewerChunk()
	seen := make(map[ChunkCoord]struct{}, (2*s.chunksVisible+1)*(2*s.chunksVisible+1))

	for yOffset := -s.chunksVisible; yOffset <= s.chunksVisible; yOffset++ {
		for xOffset := -s.chunksVisible; xOffset <= s.chunksVisible; xOffset++ {
			coord := ChunkCoord{X: centre.X + xOffset, Y: centre.Y + yOffset}
			seen[coord] = struct{}{}

			chunk, ok := s.store.Get(coord)
			if !ok {
				s.createChunk(coord)
				continue
			}
			if !chunk.hasData && !chunk.dataRequested && !chunk.gaveUp {
				s.requestMapData(chunk)
			}
			s.updateChunk(chunk)
		}
	}

	// hide whatever was visible last pass and fell out of the window
	for coord, chunk := range s.visible {
		if _, ok := seen[coord]; !ok {
			delete(s.visible, coord)
			s.setVisible(chunk, false)
		}
	}

	if s.evictDistance > 0 {
		s.evictFarChunks()
	}
}

func (s *Streamer) createChunk(coord ChunkCoord) {
	chunk := newTerrainChunk(coord, s.chunkSide, s.lods)
	s.store.Add(chunk)
	pos := chunk.Position.Mul(s.scale)
	s.sink.ChunkCreated(coord, mgl32.Vec3{pos.X(), 0, pos.Y()}, s.scale)
	s.requestMapData(chunk)
}

func (s *Streamer) requestMapData(chunk *TerrainChunk) {
	chunk.dataRequested = true
	err := s.gen.RequestMapData(chunk.Position, func(data mapgen.MapData, err error) {
		s.onMapData(chunk, data, err)
	})
	if err != nil {
		chunk.dataRequested = false
		s.log.Printf("chunk %v: map data request rejected: %v", chunk.Coord, err)
		s.mapFailed(chunk)
	}
}

// mapFailed counts a failed map data attempt and schedules a retry while the budget lasts.
func (s *Streamer) mapFailed(chunk *TerrainChunk) {
	chunk.dataFailures++
	if chunk.dataFailures > s.maxRetries {
		chunk.gaveUp = true
		delete(s.retry, chunk.Coord)
		return
	}
	s.retry[chunk.Coord] = chunk
}

// retryFailed resubmits failed requests of tracked chunks. Each entry is tried once
// and re-added by the next failure.
func (s *Streamer) retryFailed() {
	if len(s.retry) == 0 {
		return
	}
	pending := s.retry
	s.retry = make(map[ChunkCoord]*TerrainChunk)
	for _, chunk := range pending {
		if !s.store.Has(chunk) {
			continue
		}
		if !chunk.hasData {
			if !chunk.dataRequested && !chunk.gaveUp {
				s.requestMapData(chunk)
			}
			continue
		}
		s.updateChunk(chunk)
	}
}

func (s *Streamer) onMapData(chunk *TerrainChunk, data mapgen.MapData, err error) {
	chunk.dataRequested = false
	if !s.store.Has(chunk) {
		// evicted while the job ran
		return
	}
	if err != nil {
		s.mapFailed(chunk)
		if chunk.gaveUp {
			s.log.Printf("chunk %v: map data failed %d times, giving up: %v", chunk.Coord, chunk.dataFailures, err)
		} else {
			s.log.Printf("chunk %v: map data failed (attempt %d): %v", chunk.Coord, chunk.dataFailures, err)
		}
		return
	}
	chunk.data = data
	chunk.hasData = true
	s.sink.SetTextures(chunk.Coord, data)
	s.updateChunk(chunk)
}

func (s *Streamer) requestMesh(chunk *TerrainChunk, index int) {
	lm := &chunk.meshes[index]
	lm.requested = true
	err := s.gen.RequestMeshData(chunk.data, lm.lod, func(mesh *meshing.MeshData, err error) {
		s.onMeshData(chunk, index, mesh, err)
	})
	if err != nil {
		lm.requested = false
		s.log.Printf("chunk %v: mesh request for LOD %d rejected: %v", chunk.Coord, lm.lod, err)
		s.meshFailed(chunk, lm)
	}
}

func (s *Streamer) onMeshData(chunk *TerrainChunk, index int, mesh *meshing.MeshData, err error) {
	lm := &chunk.meshes[index]
	lm.requested = false
	if !s.store.Has(chunk) {
		return
	}
	if err != nil {
		s.meshFailed(chunk, lm)
		s.log.Printf("chunk %v: mesh for LOD %d failed (attempt %d): %v", chunk.Coord, lm.lod, lm.failures, err)
		return
	}
	lm.mesh = mesh
	lm.ready = true
	s.updateChunk(chunk)
}

// updateChunk re-evaluates LOD and visibility of one chunk against the current viewer.
func (s *Streamer) meshFailed(chunk *TerrainChunk, lm *lodMesh) {
	lm.failures++
	if lm.failures <= s.maxRetries {
		s.retry[chunk.Coord] = chunk
	}
}

func (s *Streamer) updateChunk(chunk *TerrainChunk) {
	if !chunk.hasData {
		return
	}
	dist := chunk.Bounds.Distance(s.viewer)
	visible := dist <= s.maxViewDistance

	if visible {
		index := SelectLOD(s.lods, dist)
		chunk.desiredLOD = index
		if index != chunk.currentLOD {
			lm := &chunk.meshes[index]
			switch {
			case lm.ready:
				chunk.currentLOD = index
				s.sink.SetMesh(chunk.Coord, lm.lod, lm.mesh)
			case !lm.requested && lm.failures <= s.maxRetries:
				s.requestMesh(chunk, index)
			}
		}
		s.visible[chunk.Coord] = chunk
	} else {
		delete(s.visible, chunk.Coord)
	}
	s.setVisible(chunk, visible)
}

func (s *Streamer) setVisible(chunk *TerrainChunk, visible bool) {
	if chunk.visible == visible {
		return
	}
	chunk.visible = visible
	s.sink.SetVisible(chunk.Coord, visible)
}

func (s *Streamer) evictFarChunks() {
	removed := s.store.EvictWhere(func(c *TerrainChunk) bool {
		return !c.visible && !c.InFlight() && c.Bounds.Distance(s.viewer) > s.evictDistance
	})
	for _, coord := range removed {
		delete(s.retry, coord)
		s.sink.ChunkRemoved(coord)
	}
	if len(removed) > 0 {
		s.evicted += len(removed)
		s.log.Printf("evicted %d chunks beyond %.0f", len(removed), s.evictDistance)
	}
}

// Stats summarises the chunk map. Call it from the owning goroutine.
func (s *Streamer) Stats() Stats {
	st := Stats{Visible: len(s.visible), Evicted: s.evicted, Updates: s.updates}
	for _, c := range s.store.Chunks() {
		st.Chunks++
		if c.dataRequested {
			st.PendingMaps++
		}
		if !c.hasData && c.gaveUp {
			st.Failed++
		}
		for i := range c.meshes {
			if c.meshes[i].requested {
				st.PendingMeshes++
			}
			if c.meshes[i].ready {
				st.Meshes++
			}
		}
	}
	return st
}
