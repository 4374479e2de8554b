package viewer

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"lodterrain/internal/mapgen"
	"lodterrain/internal/meshing"
	"lodterrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// meshBlob compresses a mesh once, on first use by any client writer.
type meshBlob struct {
	mesh *meshing.MeshData
	once sync.Once
	data []byte
	err  error
}

func (b *meshBlob) bytes() ([]byte, error) {
	b.once.Do(func() { b.data, b.err = EncodeMesh(b.mesh) })
	return b.data, b.err
}

type chunkState struct {
	position []float32
	scale    float32
	data     mapgen.MapData
	hasData  bool
	lod      int
	mesh     *meshBlob
	visible  bool
}

type outbound struct {
	ev   Event
	mesh *meshBlob
}

type client struct {
	id  string
	out chan outbound
}

// Hub is the rendering sink for a world.Streamer and the source of the viewer
// position. Sink methods run on the streaming goroutine; client writers and HTTP
// handlers read from other goroutines.
type Hub struct {
	log *log.Logger

	mu      sync.RWMutex
	clients map[string]*client
	chunks  map[world.ChunkCoord]*chunkState

	viewer  atomic.Pointer[mgl32.Vec2]
	moves   atomic.Uint64
	dropped atomic.Uint64
}

var _ world.Sink = (*Hub)(nil)

// NewHub returns an empty hub with the viewer at the origin.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &Hub{
		log:     logger,
		clients: make(map[string]*client),
		chunks:  make(map[world.ChunkCoord]*chunkState),
	}
	h.viewer.Store(&mgl32.Vec2{})
	return h
}

// ViewerPosition returns the latest position reported by any viewer (world units, XZ plane).
func (h *Hub) ViewerPosition() mgl32.Vec2 {
	return *h.viewer.Load()
}

// SetViewerPosition records a viewer position.
func (h *Hub) SetViewerPosition(p mgl32.Vec2) {
	h.viewer.Store(&p)
	h.moves.Add(1)
}

// HubStats counts hub activity.
type HubStats struct {
	Clients int    `json:"clients"`
	Chunks  int    `json:"chunks"`
	Moves   uint64 `json:"moves"`
	Dropped uint64 `json:"dropped"`
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Clients: len(h.clients),
		Chunks:  len(h.chunks),
		Moves:   h.moves.Load(),
		Dropped: h.dropped.Load(),
	}
}

// MapData returns the generated grids of a chunk, if any.
func (h *Hub) MapData(coord world.ChunkCoord) (mapgen.MapData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.chunks[coord]
	if !ok || !st.hasData {
		return mapgen.MapData{}, false
	}
	return st.data, true
}

func (h *Hub) ChunkCreated(coord world.ChunkCoord, position mgl32.Vec3, scale float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := &chunkState{position: []float32{position.X(), position.Y(), position.Z()}, scale: scale}
	h.chunks[coord] = st
	h.broadcast(outbound{ev: createdEvent(coord, st)})
}

func (h *Hub) SetTextures(coord world.ChunkCoord, data mapgen.MapData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.state(coord)
	st.data, st.hasData = data, true
	h.broadcast(outbound{ev: texturesEvent(coord, data)})
}

func (h *Hub) SetMesh(coord world.ChunkCoord, lod int, mesh *meshing.MeshData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.state(coord)
	st.lod, st.mesh = lod, &meshBlob{mesh: mesh}
	h.broadcast(outbound{ev: Event{Type: EventMesh, Chunk: chunkKey(coord), LOD: lod}, mesh: st.mesh})
}

func (h *Hub) SetVisible(coord world.ChunkCoord, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state(coord).visible = visible
	h.broadcast(outbound{ev: Event{Type: EventVisible, Chunk: chunkKey(coord), Visible: visible}})
}

func (h *Hub) ChunkRemoved(coord world.ChunkCoord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.chunks, coord)
	h.broadcast(outbound{ev: Event{Type: EventRemoved, Chunk: chunkKey(coord)}})
}

// state returns the entry for coord, creating it for sinks driven without ChunkCreated. Callers hold mu.
func (h *Hub) state(coord world.ChunkCoord) *chunkState {
	st, ok := h.chunks[coord]
	if !ok {
		st = &chunkState{}
		h.chunks[coord] = st
	}
	return st
}

// broadcast queues ob for every client, dropping it for clients whose buffer is full. Callers hold mu.
func (h *Hub) broadcast(ob outbound) {
	for _, c := range h.clients {
		select {
		case c.out <- ob:
		default:
			h.dropped.Add(1)
		}
	}
}

// join registers a client and queues HELLO plus the current state of every chunk.
func (h *Hub) join(id string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{id: id, out: make(chan outbound, max(4096, 4*len(h.chunks)+1))}
	c.out <- outbound{ev: Event{Type: EventHello, ProtocolVersion: ProtocolVersion, Session: id}}

	coords := make([]world.ChunkCoord, 0, len(h.chunks))
	for coord := range h.chunks {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}
		return coords[i].X < coords[j].X
	})
	for _, coord := range coords {
		st := h.chunks[coord]
		c.out <- outbound{ev: createdEvent(coord, st)}
		if st.hasData {
			c.out <- outbound{ev: texturesEvent(coord, st.data)}
		}
		if st.mesh != nil {
			c.out <- outbound{ev: Event{Type: EventMesh, Chunk: chunkKey(coord), LOD: st.lod}, mesh: st.mesh}
		}
		if st.visible {
			c.out <- outbound{ev: Event{Type: EventVisible, Chunk: chunkKey(coord), Visible: true}}
		}
	}
	h.clients[id] = c
	return c
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

func chunkKey(c world.ChunkCoord) [2]int { return [2]int{c.X, c.Y} }

func createdEvent(coord world.ChunkCoord, st *chunkState) Event {
	return Event{Type: EventChunkCreated, Chunk: chunkKey(coord), Position: st.position, Scale: st.scale}
}

func texturesEvent(coord world.ChunkCoord, data mapgen.MapData) Event {
	base := fmt.Sprintf("/v1/chunks/%d/%d", coord.X, coord.Y)
	size := 0
	if data.Height != nil {
		size = data.Height.Width()
	}
	return Event{
		Type:     EventTextures,
		Chunk:    chunkKey(coord),
		Size:     size,
		Textures: &TextureURLs{Height: base + "/height", Color: base + "/color"},
	}
}
