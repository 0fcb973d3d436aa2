package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
)

func TestHasExt(t *testing.T) {
	if !hasExt("model.VOX", importExts) {
		t.Fatal("hasExt must be case-insensitive")
	}
	if hasExt("model.txt", importExts) {
		t.Fatal("hasExt must reject an unlisted extension")
	}
	if hasExt("noext", importExts) {
		t.Fatal("hasExt must reject a file with no extension")
	}
}

func TestContains(t *testing.T) {
	if !contains([]string{"a", "b"}, "b") {
		t.Fatal("contains should find a present element")
	}
	if contains([]string{"a", "b"}, "c") {
		t.Fatal("contains should not find an absent element")
	}
}

func TestBuildOutputPathStarSubstitution(t *testing.T) {
	got := buildOutputPath("*.glb", "models/windmill.vox", 0)
	if got != "windmill.glb" {
		t.Fatalf("buildOutputPath = %q, want %q", got, "windmill.glb")
	}
}

func TestBuildOutputPathCounterSubstitution(t *testing.T) {
	got := buildOutputPath("output/Mesh{0}.glb", "a.vox", 3)
	want := filepath.Join("output", "Mesh3.glb")
	if got != want {
		t.Fatalf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestBuildOutputPathKeepsDirectory(t *testing.T) {
	got := buildOutputPath("out/*.obj", "dir/thing.qb", 0)
	want := filepath.Join("out", "thing.obj")
	if got != want {
		t.Fatalf("buildOutputPath = %q, want %q", got, want)
	}
}

func TestResolveInputsExpandsDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.vox", "b.gox", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	files, err := resolveInputs([]string{dir}, "*.glb")
	if err != nil {
		t.Fatalf("resolveInputs failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 convertible files, got %d: %+v", len(files), files)
	}
}

func TestResolveInputsRejectsUnsupportedInputExt(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thing.bmp")
	os.WriteFile(p, []byte("x"), 0o644)
	if _, err := resolveInputs([]string{p}, "*.glb"); err == nil {
		t.Fatal("resolveInputs must reject an unrecognized input extension")
	}
}

func TestResolveInputsRejectsMissingOutputExt(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thing.vox")
	os.WriteFile(p, []byte("x"), 0o644)
	if _, err := resolveInputs([]string{p}, "noext"); err == nil {
		t.Fatal("resolveInputs must reject an output pattern with no extension")
	}
}

func TestResolveInputsRejectsUnsupportedOutputExt(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thing.vox")
	os.WriteFile(p, []byte("x"), 0o644)
	if _, err := resolveInputs([]string{p}, "*.bmp"); err == nil {
		t.Fatal("resolveInputs must reject an unsupported output extension")
	}
}

func TestSelectMesherDefaultsToSimple(t *testing.T) {
	m, _ := selectMesher("nonsense")
	if _, ok := m.(mesher.Simple); !ok {
		t.Fatalf("expected Simple for an unrecognized mesher name, got %T", m)
	}
}

func TestSelectMesherGreedyTextured(t *testing.T) {
	m, opts := selectMesher("greedy_textured")
	if _, ok := m.(mesher.Greedy); !ok {
		t.Fatalf("expected Greedy, got %T", m)
	}
	if !opts.Atlas {
		t.Fatal("greedy_textured must enable atlas mode")
	}
}

func TestSelectMesherChunked(t *testing.T) {
	m, _ := selectMesher("greedy_chunked")
	if _, ok := m.(chunkedGreedy); !ok {
		t.Fatalf("expected chunkedGreedy, got %T", m)
	}
}

func TestWorldMatrixForFindsNodeByModel(t *testing.T) {
	model := voxelmodel.New("m")
	root := scene.NewNode("root")
	child := scene.NewNode("child")
	child.Position = vecmath.Vec3i{X: 5, Y: 0, Z: 0}
	child.SetModel(model)
	root.AddChild(child)

	world := worldMatrixFor(root, mgl32.Ident4(), model)
	translated := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if translated.X() != 5 {
		t.Fatalf("expected the found node's world matrix to translate by 5, got %v", translated)
	}
}

func TestWorldMatrixForReturnsIdentityWhenNotFound(t *testing.T) {
	model := voxelmodel.New("m")
	other := voxelmodel.New("other")
	root := scene.NewNode("root")
	root.SetModel(other)

	world := worldMatrixFor(root, mgl32.Ident4(), model)
	if world != mgl32.Ident4() {
		t.Fatal("expected identity when the model is not present in the tree")
	}
}

func TestBakeWorldspaceNoopForIdentity(t *testing.T) {
	m := buildSingleTriMesh()
	orig := m.Surfaces[0].Vertices[0].Pos
	bakeWorldspace(m, mgl32.Ident4())
	if m.Surfaces[0].Vertices[0].Pos != orig {
		t.Fatal("bakeWorldspace must be a no-op for the identity matrix")
	}
}

func TestBakeWorldspaceTranslatesVertices(t *testing.T) {
	m := buildSingleTriMesh()
	world := mgl32.Translate3D(10, 0, 0)
	bakeWorldspace(m, world)
	got := m.Surfaces[0].Vertices[0].Pos
	if got.X() != 10 {
		t.Fatalf("expected vertex translated by 10 on X, got %v", got)
	}
}

func buildSingleTriMesh() *mesh.Mesh {
	m := mesh.New("t")
	s := m.SurfaceFor(nil, 3, 1<<20)
	s.AppendTriangle(
		mesh.Vertex{Pos: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
		mesh.Vertex{Pos: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
		mesh.Vertex{Pos: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}},
	)
	return m
}
