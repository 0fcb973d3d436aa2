// Package mesh implements the Mesh/Surface output model from spec.md §3.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/texture"
)

// Vertex is one mesh vertex: position, normal, primary UV, and an optional
// second UV set (used by some DCC export formats for lightmaps/atlases).
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	UV2    mgl32.Vec2
	HasUV2 bool
}

// IndexCeiling16 is the vertex-count ceiling for 16-bit index targets.
// Passed as the ceiling to WouldOverflow or NewBuilder, it makes callers
// split onto a fresh surface rather than exceed it.
const IndexCeiling16 = 1 << 16

// Surface is a vertex/index buffer pair homogeneous in material.
type Surface struct {
	Material *material.Material
	Vertices []Vertex
	Indices  []uint32
}

// NewSurface allocates a surface bound to a material.
func NewSurface(mat *material.Material) *Surface {
	return &Surface{Material: mat}
}

// WouldOverflow reports whether appending extraVerts more vertices would
// push this surface past ceiling (16-bit index targets use IndexCeiling16;
// 32-bit targets can pass math.MaxInt32, effectively disabling the check).
func (s *Surface) WouldOverflow(extraVerts int, ceiling int) bool {
	return len(s.Vertices)+extraVerts > ceiling
}

// AppendTriangle appends three vertices and the corresponding index
// triplet, without deduplication (used by the simple mesher, which never
// shares vertices across faces).
func (s *Surface) AppendTriangle(a, b, c Vertex) {
	base := uint32(len(s.Vertices))
	s.Vertices = append(s.Vertices, a, b, c)
	s.Indices = append(s.Indices, base, base+1, base+2)
}

// Merge appends another surface of the same material (vertex-append with
// index offsetting). The caller is responsible for verifying the materials
// match; Merge does not check identity itself so it can also be used to
// flatten an already-homogeneous group.
func (s *Surface) Merge(o *Surface) {
	base := uint32(len(s.Vertices))
	s.Vertices = append(s.Vertices, o.Vertices...)
	for _, idx := range o.Indices {
		s.Indices = append(s.Indices, idx+base)
	}
}

// Mesh owns a set of Surfaces, a texture table, and placement/timing
// metadata, per spec.md §3.
type Mesh struct {
	Name        string
	Surfaces    []*Surface
	Textures    map[texture.Type]*texture.Texture
	ModelMatrix mgl32.Mat4
	FrameTimeMS uint32
}

// New allocates an empty mesh with an identity model matrix.
func New(name string) *Mesh {
	return &Mesh{
		Name:        name,
		Textures:    make(map[texture.Type]*texture.Texture),
		ModelMatrix: mgl32.Ident4(),
	}
}

// SurfaceFor returns the (possibly newly appended) surface for a material
// that is not yet over the ceiling, creating a new surface whenever the
// last one for that material would overflow.
func (m *Mesh) SurfaceFor(mat *material.Material, extraVerts, ceiling int) *Surface {
	for i := len(m.Surfaces) - 1; i >= 0; i-- {
		s := m.Surfaces[i]
		if material.Same(s.Material, mat) {
			if !s.WouldOverflow(extraVerts, ceiling) {
				return s
			}
			break
		}
	}
	s := NewSurface(mat)
	m.Surfaces = append(m.Surfaces, s)
	return s
}

// TriangleCount sums triangle counts across all surfaces.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, s := range m.Surfaces {
		n += len(s.Indices) / 3
	}
	return n
}

// VertexCount sums vertex counts across all surfaces.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, s := range m.Surfaces {
		n += len(s.Vertices)
	}
	return n
}

// Merge appends another mesh's surfaces into this one, merging surfaces
// that share a material (by identity) instead of appending a duplicate
// surface, and leaves the other mesh's surfaces untouched (copies, not
// moves).
func (m *Mesh) Merge(o *Mesh) {
	for _, os := range o.Surfaces {
		target := m.SurfaceFor(os.Material, len(os.Vertices), math.MaxInt32)
		target.Merge(os)
	}
}
