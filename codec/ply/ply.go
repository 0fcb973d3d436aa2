// Package ply implements the binary little-endian PLY exporter from
// spec.md §6. Export-only: Load/GenerateChunks/GenerateScene all fail.
package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/voxforge/voxelcore/codec"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxerr"
)

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 3 && string(header[:3]) == "ply"
}

func (Codec) Load(r io.Reader) (any, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "ply.Load", "PLY export-only in this package")
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "ply.GenerateChunks", "PLY export-only in this package")
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node { return nil }

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	m := codec.DefaultGenerateMesh(model, mesher.Greedy{}, mesher.Options{})
	return SaveMesh(w, m)
}

// SaveMesh flattens every surface into one vertex list (surfaces are not
// round-trippable from PLY alone, so material boundaries are not preserved)
// and writes a single binary_little_endian element block per vertex/face.
func SaveMesh(w io.Writer, m *mesh.Mesh) error {
	var vertexCount, faceCount int
	for _, s := range m.Surfaces {
		vertexCount += len(s.Vertices)
		faceCount += len(s.Indices) / 3
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\n")
	fmt.Fprintf(bw, "format binary_little_endian 1.0\n")
	fmt.Fprintf(bw, "comment %s\n", m.Name)
	fmt.Fprintf(bw, "element vertex %d\n", vertexCount)
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property float nx\nproperty float ny\nproperty float nz\n")
	fmt.Fprintf(bw, "property float u\nproperty float v\n")
	fmt.Fprintf(bw, "element face %d\n", faceCount)
	fmt.Fprintf(bw, "property list uchar uint vertex_indices\n")
	fmt.Fprintf(bw, "end_header\n")
	if err := bw.Flush(); err != nil {
		return err
	}

	vertOffset := uint32(0)
	for _, s := range m.Surfaces {
		for _, v := range s.Vertices {
			binary.Write(w, binary.LittleEndian, v.Pos)
			binary.Write(w, binary.LittleEndian, v.Normal)
			binary.Write(w, binary.LittleEndian, v.UV)
		}
		for i := 0; i+2 < len(s.Indices); i += 3 {
			if err := binary.Write(w, binary.LittleEndian, uint8(3)); err != nil {
				return err
			}
			binary.Write(w, binary.LittleEndian, s.Indices[i]+vertOffset)
			binary.Write(w, binary.LittleEndian, s.Indices[i+1]+vertOffset)
			binary.Write(w, binary.LittleEndian, s.Indices[i+2]+vertOffset)
		}
		vertOffset += uint32(len(s.Vertices))
	}
	return nil
}
