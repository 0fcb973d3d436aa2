// Package reducer implements VertexReducer from spec.md §4.4: it collapses
// planar triangle fans sharing an interior vertex into a re-triangulated
// boundary polygon with strictly fewer triangles, falling back to the
// original fan whenever that cannot be done safely.
package reducer

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/mesh"
)

// Reducer is stateless; every method takes the mesh it operates on.
type Reducer struct{}

func New() *Reducer { return &Reducer{} }

// Reduce returns a new Mesh with every surface's triangle fans collapsed
// where possible. The input mesh is left untouched.
func (r *Reducer) Reduce(m *mesh.Mesh) *mesh.Mesh {
	out := mesh.New(m.Name)
	out.ModelMatrix = m.ModelMatrix
	out.FrameTimeMS = m.FrameTimeMS
	for k, v := range m.Textures {
		out.Textures[k] = v
	}
	for _, s := range m.Surfaces {
		out.Surfaces = append(out.Surfaces, reduceSurface(s))
	}
	return out
}

func reduceSurface(s *mesh.Surface) *mesh.Surface {
	tris := trianglesOf(s.Indices)
	active := make([]bool, len(tris))
	for i := range active {
		active[i] = true
	}
	byVertex := buildMultimap(tris)

	// Iterate candidate centers in a fixed order (sorted vertex index) so
	// repeated runs on identical input are deterministic.
	centers := make([]uint32, 0, len(byVertex))
	for v := range byVertex {
		centers = append(centers, v)
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i] < centers[j] })

	for _, c := range centers {
		tris, active = tryCollapseFan(s, tris, active, byVertex, c)
	}

	return compact(s, tris, active)
}

func trianglesOf(indices []uint32) [][3]uint32 {
	out := make([][3]uint32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	return out
}

func buildMultimap(tris [][3]uint32) map[uint32][]int {
	m := make(map[uint32][]int)
	for i, t := range tris {
		for _, v := range t {
			m[v] = append(m[v], i)
		}
	}
	return m
}

// tryCollapseFan attempts to replace every active triangle touching center c
// with a re-triangulation of the fan's boundary polygon. It returns
// (possibly-extended) triangle and active slices; byVertex is updated
// in-place so later centers see any newly-added triangles.
func tryCollapseFan(s *mesh.Surface, tris [][3]uint32, active []bool, byVertex map[uint32][]int, c uint32) ([][3]uint32, []bool) {
	var fan []int
	for _, ti := range byVertex[c] {
		if active[ti] {
			fan = append(fan, ti)
		}
	}
	if len(fan) < 3 {
		return tris, active
	}

	normal, ok := sharedNormal(s, tris, fan, c)
	if !ok {
		return tris, active
	}

	poly := newPolygon()
	valid := true
	for _, ti := range fan {
		t := tris[ti]
		a, b, ok := otherTwo(t, c)
		if !ok || !poly.addEdge(a, b) {
			valid = false
			break
		}
	}
	if !valid || !poly.Closed() {
		return tris, active
	}

	ring := poly.Ring()
	if len(ring) != len(fan) {
		return tris, active
	}

	axis := dominantAxis(normal)
	positive := componentOf(normal, axis) >= 0
	pts := make(map[uint32]mgl32.Vec2, len(ring))
	for _, v := range ring {
		u, w := project2D(s.Vertices[v].Pos, axis, positive)
		pts[v] = mgl32.Vec2{u, w}
	}

	newTris, ok := earClip(ring, pts)
	if !ok || len(newTris) >= len(fan) {
		return tris, active
	}

	for _, ti := range fan {
		active[ti] = false
	}
	for _, nt := range newTris {
		idx := len(tris)
		tris = append(tris, nt)
		active = append(active, true)
		for _, v := range nt {
			byVertex[v] = append(byVertex[v], idx)
		}
	}
	return tris, active
}

// sharedNormal returns the common vertex normal across every vertex touched
// by the fan, or ok=false if they are not all (quantized) equal — the
// "single normal" precondition from spec.md §4.4.
func sharedNormal(s *mesh.Surface, tris [][3]uint32, fan []int, c uint32) (mgl32.Vec3, bool) {
	n := s.Vertices[c].Normal
	for _, ti := range fan {
		for _, v := range tris[ti] {
			if !normalsEqual(s.Vertices[v].Normal, n) {
				return mgl32.Vec3{}, false
			}
		}
	}
	return n, true
}

func normalsEqual(a, b mgl32.Vec3) bool {
	const eps = 1e-4
	return abs32(a.X()-b.X()) < eps && abs32(a.Y()-b.Y()) < eps && abs32(a.Z()-b.Z()) < eps
}

func componentOf(v mgl32.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}

// otherTwo returns the two triangle vertices other than c, in the cyclic
// order that keeps the boundary edge's winding consistent with the
// triangle's own CCW winding (spec.md §4.4 step 2).
func otherTwo(t [3]uint32, c uint32) (a, b uint32, ok bool) {
	for i, v := range t {
		if v == c {
			return t[(i+1)%3], t[(i+2)%3], true
		}
	}
	return 0, 0, false
}

// compact rebuilds a surface from the active triangles, dropping vertices no
// longer referenced so the reduction also shrinks the vertex buffer.
func compact(s *mesh.Surface, tris [][3]uint32, active []bool) *mesh.Surface {
	out := mesh.NewSurface(s.Material)
	remap := make(map[uint32]uint32)

	remapped := func(v uint32) uint32 {
		if idx, ok := remap[v]; ok {
			return idx
		}
		idx := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, s.Vertices[v])
		remap[v] = idx
		return idx
	}

	for i, t := range tris {
		if !active[i] {
			continue
		}
		out.Indices = append(out.Indices, remapped(t[0]), remapped(t[1]), remapped(t[2]))
	}
	return out
}
