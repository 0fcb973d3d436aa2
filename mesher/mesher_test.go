package mesher_test

import (
	"testing"

	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/visibility"
)

func buildSingleVoxelModel() *voxelmodel.Model {
	m := voxelmodel.New("single")
	m.Space.Insert(vecmath.NewVec3i(0, 0, 0), voxel.New(0, 0, false))
	visibility.New().Generate(m.Space)
	return m
}

func buildTwoByTwoModel() *voxelmodel.Model {
	m := voxelmodel.New("plate")
	for x := 0; x < 2; x++ {
		for z := 0; z < 2; z++ {
			m.Space.Insert(vecmath.NewVec3i(x, 0, z), voxel.New(0, 0, false))
		}
	}
	visibility.New().Generate(m.Space)
	return m
}

func TestSimpleSingleVoxelSixFaces(t *testing.T) {
	m := buildSingleVoxelModel()
	mesh := mesher.Simple{}.FullMesh(m, mesher.Options{})

	if mesh.TriangleCount() != 12 {
		t.Fatalf("an isolated voxel has 6 visible faces = 12 triangles, got %d", mesh.TriangleCount())
	}
}

func TestGreedySingleVoxelSixFaces(t *testing.T) {
	m := buildSingleVoxelModel()
	mesh := mesher.Greedy{}.FullMesh(m, mesher.Options{})

	if mesh.TriangleCount() != 12 {
		t.Fatalf("an isolated voxel has 6 visible faces = 12 triangles even under greedy merge, got %d", mesh.TriangleCount())
	}
}

func TestGreedyMergesCoplanarFaces(t *testing.T) {
	m := buildTwoByTwoModel()
	simple := mesher.Simple{}.FullMesh(m, mesher.Options{})
	greedy := mesher.Greedy{}.FullMesh(m, mesher.Options{})

	if greedy.TriangleCount() >= simple.TriangleCount() {
		t.Fatalf("greedy meshing a flat 2x2 plate should produce fewer triangles than simple (greedy=%d, simple=%d)",
			greedy.TriangleCount(), simple.TriangleCount())
	}
}

func TestChunksEmptyModelReturnsNothing(t *testing.T) {
	m := voxelmodel.New("empty")
	if chunks := mesher.Simple{}.Chunks(m, mesher.Options{}); len(chunks) != 0 {
		t.Fatalf("an empty model should produce no chunks, got %d", len(chunks))
	}
}

func TestGreedyAtlasModeProducesAtlasTexture(t *testing.T) {
	m := buildTwoByTwoModel()
	mesh := mesher.Greedy{}.FullMesh(m, mesher.Options{Atlas: true})

	found := false
	for _, s := range mesh.Surfaces {
		if len(s.Vertices) > 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("atlas-mode mesh should still contain geometry")
	}
}

func TestOnlyDirtyFiltersCleanChunks(t *testing.T) {
	m := buildSingleVoxelModel()
	for _, meta := range m.Space.QueryChunks(nil) {
		m.Space.MarkAsProcessed(meta)
	}

	chunks := mesher.Simple{}.Chunks(m, mesher.Options{OnlyDirty: true})
	if len(chunks) != 0 {
		t.Fatalf("after marking every chunk processed, OnlyDirty should find nothing, got %d", len(chunks))
	}
}
