package meshing

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteOBJ writes m as a Wavefront OBJ document with positions, UVs and smooth normals.
func WriteOBJ(w io.Writer, m *MeshData, name string) error {
	bw := bufio.NewWriterSize(w, 256*1024)
	fmt.Fprintf(bw, "# lodterrain mesh lod=%d vertices=%d triangles=%d\n", m.LOD, len(m.Vertices), m.TriangleCount())
	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	for _, uv := range m.UVs {
		// OBJ texture space has V pointing up
		fmt.Fprintf(bw, "vt %g %g\n", uv.X(), 1-uv.Y())
	}
	for _, n := range m.Normals() {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangles[3*i]+1, m.Triangles[3*i+1]+1, m.Triangles[3*i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}
	return bw.Flush()
}

// WriteOBJZstd writes the OBJ document through a zstd encoder.
func WriteOBJZstd(w io.Writer, m *MeshData, name string) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := WriteOBJ(enc, m, name); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
