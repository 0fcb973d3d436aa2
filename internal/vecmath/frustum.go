package vecmath

import "github.com/go-gl/mathgl/mgl32"

// Plane is ax + by + cz + d = 0, with (a,b,c) pointing to the visible
// half-space (same convention a view-frustum's planes use when derived
// from a combined view-projection matrix).
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

func (p Plane) Distance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

// Frustum is six plane equations, computed by the caller (spec.md §4.3.3:
// "the frustum is six plane equations computed by the caller").
type Frustum struct {
	Planes [6]Plane
}

// IntersectsBBox reports whether an axis-aligned box (given as integer
// Beg/End converted to world-space floats) is not entirely outside any
// single frustum plane — the standard AABB-vs-frustum rejection test. A
// box that is merely "possibly intersecting" still passes; this is a
// conservative (no false negatives) test, matching spec.md §4.3.3's
// "not entirely outside all six frustum planes".
func (f Frustum) IntersectsBBox(beg, end mgl32.Vec3) bool {
	for _, p := range f.Planes {
		// Pick the box corner most likely to be on the positive side of
		// the plane ("positive vertex"); if even that corner is outside,
		// the whole box is outside.
		var positive mgl32.Vec3
		positive[0] = chooseAxis(p.Normal[0], beg[0], end[0])
		positive[1] = chooseAxis(p.Normal[1], beg[1], end[1])
		positive[2] = chooseAxis(p.Normal[2], beg[2], end[2])

		if p.Distance(positive) < 0 {
			return false
		}
	}
	return true
}

func chooseAxis(normalComp, begComp, endComp float32) float32 {
	if normalComp >= 0 {
		return endComp
	}
	return begComp
}
