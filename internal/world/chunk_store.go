package world

import (
	"sort"
	"sync"
)

// ChunkStore maps chunk coordinates to their streaming state.
// Mutations happen on the owning goroutine; the lock lets other goroutines count and list.
type ChunkStore struct {
	chunks   map[ChunkCoord]*TerrainChunk
	mu       sync.RWMutex
	modCount uint64 // increases on any chunk add/remove
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*TerrainChunk)}
}

// Get returns the chunk at coord.
func (cs *ChunkStore) Get(coord ChunkCoord) (*TerrainChunk, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, ok := cs.chunks[coord]
	return c, ok
}

// Has reports whether coord is tracked and still refers to c.
func (cs *ChunkStore) Has(c *TerrainChunk) bool {
	cur, ok := cs.Get(c.Coord)
	return ok && cur == c
}

// Add stores c, replacing any chunk at the same coordinate.
func (cs *ChunkStore) Add(c *TerrainChunk) {
	cs.mu.Lock()
	cs.chunks[c.Coord] = c
	cs.modCount++
	cs.mu.Unlock()
}

// Remove deletes the chunk at coord and reports whether it existed.
func (cs *ChunkStore) Remove(coord ChunkCoord) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; !ok {
		return false
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return true
}

// Len returns the number of tracked chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// ModCount changes whenever a chunk is added or removed.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// Coords returns every tracked coordinate sorted by Y then X.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		out = append(out, c)
	}
	cs.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Chunks returns a snapshot of every tracked chunk.
func (cs *ChunkStore) Chunks() []*TerrainChunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]*TerrainChunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		out = append(out, c)
	}
	return out
}

// EvictWhere removes every chunk for which evict returns true and returns their coordinates.
func (cs *ChunkStore) EvictWhere(evict func(*TerrainChunk) bool) []ChunkCoord {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var removed []ChunkCoord
	for coord, c := range cs.chunks {
		if evict(c) {
			delete(cs.chunks, coord)
			removed = append(removed, coord)
		}
	}
	if len(removed) > 0 {
		cs.modCount++
	}
	return removed
}
