package reducer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestEarClipTriangle(t *testing.T) {
	ring := []uint32{0, 1, 2}
	pts := map[uint32]mgl32.Vec2{
		0: {0, 0}, 1: {1, 0}, 2: {0, 1},
	}
	tris, ok := earClip(ring, pts)
	if !ok || len(tris) != 1 {
		t.Fatalf("a 3-vertex ring should clip to exactly 1 triangle, ok=%v tris=%v", ok, tris)
	}
}

func TestEarClipSquare(t *testing.T) {
	ring := []uint32{0, 1, 2, 3}
	pts := map[uint32]mgl32.Vec2{
		0: {0, 0}, 1: {1, 0}, 2: {1, 1}, 3: {0, 1},
	}
	tris, ok := earClip(ring, pts)
	if !ok || len(tris) != 2 {
		t.Fatalf("a 4-vertex convex ring should clip to 2 triangles, ok=%v tris=%v", ok, tris)
	}
}

func TestEarClipConvexPentagon(t *testing.T) {
	ring := []uint32{0, 1, 2, 3, 4}
	pts := map[uint32]mgl32.Vec2{
		0: {0, 0}, 1: {2, 0}, 2: {3, 2}, 3: {1, 3}, 4: {-1, 2},
	}
	tris, ok := earClip(ring, pts)
	if !ok || len(tris) != 3 {
		t.Fatalf("a 5-vertex convex ring should clip to 3 triangles, ok=%v tris=%v", ok, tris)
	}
}

func TestEarClipTooFewVertices(t *testing.T) {
	ring := []uint32{0, 1}
	pts := map[uint32]mgl32.Vec2{0: {0, 0}, 1: {1, 0}}
	if _, ok := earClip(ring, pts); ok {
		t.Fatal("a ring with fewer than 3 vertices must fail")
	}
}

func TestEarClipConcaveLShape(t *testing.T) {
	// An L-shaped hexagon, CCW.
	ring := []uint32{0, 1, 2, 3, 4, 5}
	pts := map[uint32]mgl32.Vec2{
		0: {0, 0}, 1: {2, 0}, 2: {2, 1}, 3: {1, 1}, 4: {1, 2}, 5: {0, 2},
	}
	tris, ok := earClip(ring, pts)
	if !ok {
		t.Fatal("earClip should handle a concave (reflex-vertex) polygon")
	}
	if len(tris) != 4 {
		t.Fatalf("a 6-vertex simple polygon should clip to 4 triangles, got %d", len(tris))
	}
}
