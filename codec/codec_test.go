package codec_test

import (
	"errors"
	"io"
	"testing"

	"github.com/voxforge/voxelcore/codec"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
)

type stubCodec struct {
	name    string
	matches bool
}

func (s *stubCodec) TypeOf(path string, header []byte) bool { return s.matches }
func (s *stubCodec) Load(r io.Reader) (any, error)          { return s.name, nil }
func (s *stubCodec) Save(w io.Writer, model *voxelmodel.Model) error {
	return errors.New("not supported")
}
func (s *stubCodec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	return voxelmodel.New(s.name), nil
}
func (s *stubCodec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}
func (s *stubCodec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	return codec.DefaultGenerateScene(model)
}

func TestRegistryDetectFirstMatchWins(t *testing.T) {
	r := codec.NewRegistry()
	a := &stubCodec{name: "a", matches: true}
	b := &stubCodec{name: "b", matches: true}
	r.Register(a)
	r.Register(b)

	got := r.Detect("x.bin", nil)
	if got != a {
		t.Fatal("Detect should return the first registered codec that matches")
	}
}

func TestRegistryDetectNoneMatch(t *testing.T) {
	r := codec.NewRegistry()
	r.Register(&stubCodec{name: "a", matches: false})
	if got := r.Detect("x.bin", nil); got != nil {
		t.Fatal("Detect should return nil when no codec matches")
	}
}

func TestRegistryDetectEmpty(t *testing.T) {
	r := codec.NewRegistry()
	if got := r.Detect("x.bin", nil); got != nil {
		t.Fatal("Detect on an empty registry must return nil")
	}
}

func TestDefaultGenerateSceneWrapsModel(t *testing.T) {
	model := voxelmodel.New("thing")
	node := codec.DefaultGenerateScene(model)
	if node.Name != "thing" {
		t.Fatalf("root node name = %q, want %q", node.Name, "thing")
	}
	if node.Model() != model {
		t.Fatal("DefaultGenerateScene's root node must wrap the given model")
	}
}

func TestDefaultGenerateMeshDelegatesToMesher(t *testing.T) {
	model := voxelmodel.New("empty")
	out := codec.DefaultGenerateMesh(model, mesher.Simple{}, mesher.Options{})
	if out == nil {
		t.Fatal("DefaultGenerateMesh must return a non-nil mesh even for an empty model")
	}
}
