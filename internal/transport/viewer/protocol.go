// Package viewer bridges remote viewers to the terrain streamer over HTTP and
// WebSocket: clients report their position and receive chunk events.
package viewer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"lodterrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

const ProtocolVersion = "1"

// Client to server message types.
const (
	MsgPosition = "POSITION"
)

// Server to client event types.
const (
	EventHello        = "HELLO"
	EventChunkCreated = "CHUNK_CREATED"
	EventTextures     = "TEXTURES"
	EventMesh         = "MESH"
	EventVisible      = "VISIBLE"
	EventRemoved      = "REMOVED"
)

// ClientMsg is a message sent by a viewer.
type ClientMsg struct {
	Type string  `json:"type"`
	X    float32 `json:"x"`
	Z    float32 `json:"z"`
}

// Event is a message pushed to viewers. Chunk is the grid coordinate; the
// remaining fields depend on Type.
type Event struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version,omitempty"`
	Session         string       `json:"session,omitempty"`
	Chunk           [2]int       `json:"chunk"`
	Position        []float32    `json:"position,omitempty"`
	Scale           float32      `json:"scale,omitempty"`
	LOD             int          `json:"lod,omitempty"`
	Visible         bool         `json:"visible,omitempty"`
	Size            int          `json:"size,omitempty"`
	Textures        *TextureURLs `json:"textures,omitempty"`
	// Mesh is a zstd-compressed EncodeMesh payload.
	Mesh []byte `json:"mesh,omitempty"`
}

// TextureURLs points at the HTTP endpoints serving a chunk's textures.
type TextureURLs struct {
	Height string `json:"height"`
	Color  string `json:"color"`
}

var meshMagic = [4]byte{'L', 'T', 'M', '1'}

var (
	// ErrBadMesh is returned by DecodeMesh for malformed payloads.
	ErrBadMesh = errors.New("viewer: malformed mesh payload")

	meshEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	meshDecoder, _ = zstd.NewReader(nil)
)

type meshHeader struct {
	Magic           [4]byte
	LOD             uint32
	VerticesPerLine uint32
	Vertices        uint32
	Indices         uint32
}

// EncodeMesh serialises m little-endian (header, positions, UVs, indices) and compresses it with zstd.
func EncodeMesh(m *meshing.MeshData) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(20 + len(m.Vertices)*20 + len(m.Triangles)*4)
	h := meshHeader{
		Magic:           meshMagic,
		LOD:             uint32(m.LOD),
		VerticesPerLine: uint32(m.VerticesPerLine),
		Vertices:        uint32(len(m.Vertices)),
		Indices:         uint32(len(m.Triangles)),
	}
	for _, v := range []any{h, m.Vertices, m.UVs, m.Triangles} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("encode mesh: %w", err)
		}
	}
	return meshEncoder.EncodeAll(buf.Bytes(), nil), nil
}

// DecodeMesh reverses EncodeMesh.
func DecodeMesh(payload []byte) (*meshing.MeshData, error) {
	raw, err := meshDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMesh, err)
	}
	r := bytes.NewReader(raw)
	var h meshHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadMesh, err)
	}
	if h.Magic != meshMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadMesh, h.Magic[:])
	}
	if want := int(h.Vertices)*20 + int(h.Indices)*4; r.Len() != want {
		return nil, fmt.Errorf("%w: %d body bytes, want %d", ErrBadMesh, r.Len(), want)
	}
	m := &meshing.MeshData{
		LOD:             int(h.LOD),
		VerticesPerLine: int(h.VerticesPerLine),
		Vertices:        make([]mgl32.Vec3, h.Vertices),
		UVs:             make([]mgl32.Vec2, h.Vertices),
		Triangles:       make([]uint32, h.Indices),
	}
	for _, v := range []any{m.Vertices, m.UVs, m.Triangles} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMesh, err)
		}
	}
	return m, nil
}
