// Package obj implements the plain-text Wavefront OBJ exporter from
// spec.md §6. Export-only: Load/GenerateChunks/GenerateScene all fail.
package obj

import (
	"bufio"
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

func (Codec) TypeOf(path string, header []byte) bool { return false }

func (Codec) Load(r io.Reader) (any, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "obj.Load", "OBJ export-only in this package")
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "obj.GenerateChunks", "OBJ export-only in this package")
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node { return nil }

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	m := codec.DefaultGenerateMesh(model, mesher.Greedy{}, mesher.Options{})
	return SaveMesh(w, m)
}

// SaveMesh writes out one object group per surface, each preceded by a
// usemtl comment naming the surface's material handle (OBJ has no native
// PBR material slots, so the handle is recorded for round-trip tooling
// that cares, and otherwise ignored by consumers).
func SaveMesh(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", m.Name)

	vertOffset := 1 // OBJ indices are 1-based
	for si, s := range m.Surfaces {
		fmt.Fprintf(bw, "g surface%d\n", si)
		fmt.Fprintf(bw, "usemtl %s\n", s.Material.Handle())
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, "v %f %f %f\n", v.Pos.X(), v.Pos.Y(), v.Pos.Z())
		}
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, "vn %f %f %f\n", v.Normal.X(), v.Normal.Y(), v.Normal.Z())
		}
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, "vt %f %f\n", v.UV.X(), v.UV.Y())
		}
		for i := 0; i+2 < len(s.Indices); i += 3 {
			a := int(s.Indices[i]) + vertOffset
			b := int(s.Indices[i+1]) + vertOffset
			c := int(s.Indices[i+2]) + vertOffset
			fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
		vertOffset += len(s.Vertices)
	}
	return bw.Flush()
}
