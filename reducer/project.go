package reducer

import "github.com/go-gl/mathgl/mgl32"

// dominantAxis picks the axis with the largest |component| of a face normal,
// per spec.md §4.4's projection rule.
func dominantAxis(n mgl32.Vec3) int {
	ax, ay, az := abs32(n.X()), abs32(n.Y()), abs32(n.Z())
	switch {
	case ax >= ay && ax >= az:
		return 0
	case ay >= ax && ay >= az:
		return 1
	default:
		return 2
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// project2D drops the dominant axis and returns the remaining two
// components, sign-flipping one of them per a fixed per-axis table so that
// the resulting 2-D polygon has a consistent orientation regardless of
// which cube face it came from (spec.md §4.4). The retained pair is taken in
// cyclic order, so it is right-handed about the dropped axis. The sign
// convention: for the dominant +X/+Y/+Z axes, keep both components; for
// -X/-Y/-Z, flip the first. This keeps a CCW 3-D polygon (as seen from the
// outward normal) CCW in the projected 2-D plane for every one of the six
// face directions.
func project2D(p mgl32.Vec3, axis int, positive bool) (u, v float32) {
	switch axis {
	case 0: // drop X, keep (Y, Z)
		u, v = p.Y(), p.Z()
	case 1: // drop Y, keep (Z, X)
		u, v = p.Z(), p.X()
	default: // drop Z, keep (X, Y)
		u, v = p.X(), p.Y()
	}
	if !positive {
		u = -u
	}
	return u, v
}
