package reducer

import "github.com/go-gl/mathgl/mgl32"

const convexEpsilon = 1e-10

// signedArea2 returns twice the signed area of triangle (a, b, c); positive
// for CCW.
func signedArea2(a, b, c mgl32.Vec2) float32 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func pointInTriangle(p, a, b, c mgl32.Vec2) bool {
	d1 := signedArea2(p, a, b)
	d2 := signedArea2(p, b, c)
	d3 := signedArea2(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// earClip triangulates a simple polygon ring (vertex indices in order, with
// 2-D projected positions in pts) by the standard O(n²) ear-clipping
// algorithm from spec.md §4.4. Returns the triangles as index triples into
// the original vertex numbering, or ok=false if clipping made no progress
// for 2n consecutive iterations.
func earClip(ring []uint32, pts map[uint32]mgl32.Vec2) ([][3]uint32, bool) {
	n := len(ring)
	if n < 3 {
		return nil, false
	}
	if n == 3 {
		return [][3]uint32{{ring[0], ring[1], ring[2]}}, true
	}

	remaining := append([]uint32(nil), ring...)
	var triangles [][3]uint32
	maxIter := 2 * n
	iter := 0

	for len(remaining) > 3 && iter < maxIter {
		progressed := false
		m := len(remaining)
		for i := 0; i < m; i++ {
			iter++
			if iter >= maxIter {
				break
			}
			u := remaining[(i-1+m)%m]
			v := remaining[i]
			w := remaining[(i+1)%m]

			pu, pv, pw := pts[u], pts[v], pts[w]
			if signedArea2(pu, pv, pw) <= convexEpsilon {
				continue // reflex or degenerate: not an ear
			}

			earContainsOther := false
			for j := 0; j < m; j++ {
				if j == (i-1+m)%m || j == i || j == (i+1)%m {
					continue
				}
				if pointInTriangle(pts[remaining[j]], pu, pv, pw) {
					earContainsOther = true
					break
				}
			}
			if earContainsOther {
				continue
			}

			triangles = append(triangles, [3]uint32{u, v, w})
			remaining = append(remaining[:i], remaining[i+1:]...)
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	if len(remaining) != 3 {
		return nil, false
	}
	triangles = append(triangles, [3]uint32{remaining[0], remaining[1], remaining[2]})
	return triangles, true
}
