// Package codec defines the registry interface every concrete file-format
// collaborator implements (spec.md §6): signature/extension sniffing,
// import, the voxel-space/scene construction steps that follow import, and
// (for formats that support it) export.
package codec

import (
	"io"

	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
)

// Codec is the six-method contract every format collaborator satisfies.
// Import-only formats (MagicaVoxel, Goxel, Qubicle) return a non-nil error
// from Save; export-only formats (glTF, OBJ, PLY, FBX) return a non-nil
// error from Load.
type Codec interface {
	// TypeOf sniffs whether header/path identify this codec's format,
	// without fully parsing the file.
	TypeOf(path string, header []byte) bool

	// Load parses the wire format into the codec's own intermediate
	// representation (returned as `any`, since import-only codecs in
	// particular each keep their own shape of parsed chunks/layers).
	Load(r io.Reader) (any, error)

	// Save serializes a Model (and, for round-trip formats, its owning
	// scene) back to the wire format.
	Save(w io.Writer, model *voxelmodel.Model) error

	// GenerateChunks turns a Load result into a VoxelModel with its
	// VoxelSpace populated. It does not generate visibility masks; the CLI
	// runs visibility.Analyzer.Generate on the result before meshing.
	GenerateChunks(parsed any) (*voxelmodel.Model, error)

	// GenerateMesh is the convenience step from a built Model straight to
	// a Mesh, via the given Mesher.
	GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh

	// GenerateScene builds the SceneNode tree a Load result implies (for
	// formats that carry scene-graph structure; single-model formats
	// return a one-node tree wrapping the model).
	GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node
}

// DefaultGenerateMesh is the shared GenerateMesh body every codec can call:
// meshing is identical regardless of where the model came from.
func DefaultGenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return m.FullMesh(model, opts)
}

// DefaultGenerateScene is the shared single-model-format GenerateScene body:
// a root node wrapping the model, used by formats with no native scene
// graph of their own (Goxel, Qubicle, simple MagicaVoxel files).
func DefaultGenerateScene(model *voxelmodel.Model) *scene.Node {
	root := scene.NewNode(model.Name)
	root.SetModel(model)
	return root
}

// Registry dispatches to a concrete Codec by signature/extension sniffing.
type Registry struct {
	codecs []Codec
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(c Codec) { r.codecs = append(r.codecs, c) }

// Detect returns the first registered codec whose TypeOf matches, or nil.
func (r *Registry) Detect(path string, header []byte) Codec {
	for _, c := range r.codecs {
		if c.TypeOf(path, header) {
			return c
		}
	}
	return nil
}
