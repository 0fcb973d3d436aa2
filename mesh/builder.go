package mesh

import (
	"math"

	"github.com/voxforge/voxelcore/material"
)

// vertexKey is the dedup key for (pos, normal, uv), so two vertices at the
// same position but different face orientation/UV are not merged. It is
// used directly as a Go map key; the 3-prime hash scheme is not applied.
// Floats are quantized to a fixed-point grid first so bit-for-bit equal
// float32 values always map to the same key.
type vertexKey struct {
	px, py, pz int32
	nx, ny, nz int32
	u, v       int32
}

const quantScale = 1 << 12

func quant(f float32) int32 {
	return int32(math.Round(float64(f) * quantScale))
}

func keyOf(v Vertex) vertexKey {
	return vertexKey{
		px: quant(v.Pos.X()), py: quant(v.Pos.Y()), pz: quant(v.Pos.Z()),
		nx: quant(v.Normal.X()), ny: quant(v.Normal.Y()), nz: quant(v.Normal.Z()),
		u: quant(v.UV.X()), v: quant(v.UV.Y()),
	}
}

// Builder deduplicates vertices by (pos, normal, uv) before assigning
// indices, and keeps a per-surface vertex-count cap, allocating a fresh
// surface (same material) on overflow (spec.md §4.3.2's MeshBuilder).
type Builder struct {
	mesh     *Mesh
	material *material.Material
	ceiling  int

	current *Surface
	indexOf map[vertexKey]uint32
}

// NewBuilder starts building into mesh m for material mat, with a per-
// surface vertex ceiling (use mesh.IndexCeiling16 for 16-bit index targets,
// or a large number such as math.MaxInt32 for 32-bit targets).
func NewBuilder(m *Mesh, mat *material.Material, ceiling int) *Builder {
	b := &Builder{mesh: m, material: mat, ceiling: ceiling}
	b.newSurface()
	return b
}

func (b *Builder) newSurface() {
	s := NewSurface(b.material)
	b.mesh.Surfaces = append(b.mesh.Surfaces, s)
	b.current = s
	b.indexOf = make(map[vertexKey]uint32)
}

// index returns the (possibly newly appended) index of v in the current
// surface, deduplicating by (pos, normal, uv). Rolls onto a fresh surface
// first if the surface is already at the ceiling and v is not a repeat of
// an existing vertex (a cache hit never needs new capacity).
func (b *Builder) index(v Vertex) uint32 {
	key := keyOf(v)
	if idx, ok := b.indexOf[key]; ok {
		return idx
	}
	if len(b.current.Vertices) >= b.ceiling {
		b.newSurface()
	}
	idx := uint32(len(b.current.Vertices))
	b.current.Vertices = append(b.current.Vertices, v)
	b.indexOf[key] = idx
	return idx
}

// AppendQuad appends a CCW-as-seen-from-outside quad (v1, v2, v3, v4) as
// two triangles, following the winding convention spec.md §4.3.2 requires
// for positive-normal faces: (v1, v2, v4), (v1, v4, v3). Callers supply
// already-reversed vertex order for negative-normal faces.
func (b *Builder) AppendQuad(v1, v2, v3, v4 Vertex) {
	i1, i2, i3, i4 := b.index(v1), b.index(v2), b.index(v3), b.index(v4)
	b.current.Indices = append(b.current.Indices, i1, i2, i4, i1, i4, i3)
}

// AppendTriangle appends a single deduplicated triangle.
func (b *Builder) AppendTriangle(v1, v2, v3 Vertex) {
	i1, i2, i3 := b.index(v1), b.index(v2), b.index(v3)
	b.current.Indices = append(b.current.Indices, i1, i2, i3)
}

// Surfaces returns every surface the builder has written to, in creation
// order (oldest first).
func (b *Builder) Surfaces() []*Surface {
	return b.mesh.Surfaces
}
