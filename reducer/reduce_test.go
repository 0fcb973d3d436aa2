package reducer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/mesh"
)

func vertAt(x, y, z float32) mesh.Vertex {
	return mesh.Vertex{Pos: mgl32.Vec3{x, y, z}, Normal: mgl32.Vec3{0, 0, 1}}
}

func TestReduceEmptyMesh(t *testing.T) {
	m := mesh.New("empty")
	out := New().Reduce(m)
	if len(out.Surfaces) != 0 {
		t.Fatalf("reducing an empty mesh should yield no surfaces, got %d", len(out.Surfaces))
	}
}

func TestReduceSingleTriangleUnchanged(t *testing.T) {
	m := mesh.New("single")
	mat := material.New()
	s := mesh.NewSurface(mat)
	s.AppendTriangle(vertAt(0, 0, 0), vertAt(1, 0, 0), vertAt(0, 1, 0))
	m.Surfaces = append(m.Surfaces, s)

	out := New().Reduce(m)
	if len(out.Surfaces) != 1 {
		t.Fatalf("expected 1 surface, got %d", len(out.Surfaces))
	}
	if len(out.Surfaces[0].Indices) != 3 {
		t.Fatalf("a lone triangle with no fan to collapse must survive untouched, got %d indices", len(out.Surfaces[0].Indices))
	}
}

func TestReduceNeverIncreasesTriangleCount(t *testing.T) {
	m := mesh.New("fan")
	mat := material.New()
	s := mesh.NewSurface(mat)

	// A 4-triangle fan around a shared center vertex, all coplanar (z=0),
	// same normal — the precondition tryCollapseFan requires.
	center := vertAt(0.5, 0.5, 0)
	a := vertAt(0, 0, 0)
	b := vertAt(1, 0, 0)
	d := vertAt(1, 1, 0)
	e := vertAt(0, 1, 0)

	s.Vertices = []mesh.Vertex{center, a, b, d, e}
	s.Indices = []uint32{
		0, 1, 2,
		0, 2, 3,
		0, 3, 4,
		0, 4, 1,
	}
	m.Surfaces = append(m.Surfaces, s)

	inTriCount := len(s.Indices) / 3
	out := New().Reduce(m)

	outTriCount := 0
	for _, os := range out.Surfaces {
		outTriCount += len(os.Indices) / 3
	}
	if outTriCount > inTriCount {
		t.Fatalf("Reduce must never increase triangle count: in=%d out=%d", inTriCount, outTriCount)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	m := mesh.New("orig")
	mat := material.New()
	s := mesh.NewSurface(mat)
	s.AppendTriangle(vertAt(0, 0, 0), vertAt(1, 0, 0), vertAt(0, 1, 0))
	m.Surfaces = append(m.Surfaces, s)

	origIndices := append([]uint32(nil), s.Indices...)
	New().Reduce(m)

	for i, idx := range s.Indices {
		if idx != origIndices[i] {
			t.Fatal("Reduce must not mutate the input mesh's surfaces")
		}
	}
}

func TestReducePreservesTextures(t *testing.T) {
	m := mesh.New("textured")
	m.FrameTimeMS = 42
	out := New().Reduce(m)
	if out.FrameTimeMS != 42 {
		t.Fatal("Reduce should carry over FrameTimeMS")
	}
}
