// Package chunk implements the fixed-size dense voxel chunk from spec.md
// §3/§4.1, including the per-axis face-bitmask acceleration structure used
// by visibility generation (spec.md §4.2) and the greedy mesher (spec.md
// §4.3.2).
package chunk

import (
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxel"
)

// Size is CHUNK_SIZE from spec.md: a compile-time power-of-two chunk edge
// length. The reference implementation (and this one) uses 16.
const Size = 16

// Chunk is a fixed-size dense cube of voxel cells plus the bookkeeping
// spec.md §3 requires: a tight inner bounding box over instantiated cells,
// a dirty flag, and a per-axis row-occupancy bitmask.
type Chunk struct {
	cells [Size * Size * Size]voxel.Cell

	inner vecmath.BBox // chunk-relative, tight over instantiated cells
	dirty bool

	// rowBits[axis][i][j] packs one bit per voxel along `axis`, for the row
	// at the two other axes fixed to (i, j) in increasing-axis order (see
	// rowCoord). Bit k (0 <= k < Size) is 1 iff the voxel at offset k along
	// `axis` is instantiated.
	rowBits [3][Size][Size]uint32
}

// New returns an empty chunk with a reset (empty) inner bbox.
func New() *Chunk {
	return &Chunk{inner: vecmath.EmptyBBox()}
}

func indexOf(x, y, z int) int { return x + y*Size + z*Size*Size }

// InBounds reports whether a chunk-relative position addresses a real cell.
func InBounds(p vecmath.Vec3i) bool {
	return p.X >= 0 && p.X < Size && p.Y >= 0 && p.Y < Size && p.Z >= 0 && p.Z < Size
}

// At returns the cell at the chunk-relative position, or the zero (empty)
// Cell if out of bounds.
func (c *Chunk) At(p vecmath.Vec3i) voxel.Cell {
	if !InBounds(p) {
		return voxel.Cell{}
	}
	return c.cells[indexOf(p.X, p.Y, p.Z)]
}

// CellPtr returns a pointer to the cell at a chunk-relative position for
// in-place mutation (e.g. by the visibility analyzer), or nil if out of
// bounds. The pointer is stable for the chunk's lifetime (spec.md §3).
func (c *Chunk) CellPtr(p vecmath.Vec3i) *voxel.Cell {
	if !InBounds(p) {
		return nil
	}
	return &c.cells[indexOf(p.X, p.Y, p.Z)]
}

// Set writes a cell at a chunk-relative position, updates the inner bbox
// and row bitmasks, and marks the chunk dirty. Panics if p is out of
// bounds; callers (VoxelSpace.Insert) are responsible for canonicalizing
// positions into chunk-relative coordinates first.
func (c *Chunk) Set(p vecmath.Vec3i, cell voxel.Cell) {
	if !InBounds(p) {
		panic("chunk: position out of bounds")
	}
	c.cells[indexOf(p.X, p.Y, p.Z)] = cell
	c.inner = c.inner.Merge(p)
	c.setRowBit(p, cell.Instantiated())
	c.dirty = true
}

// Erase zeroes the cell at p and marks the chunk dirty. The inner bbox is
// deliberately NOT recomputed here (spec.md §4.1: erase stays O(1)); call
// RecomputeInnerBBox before relying on a tight box after erases.
func (c *Chunk) Erase(p vecmath.Vec3i) {
	if !InBounds(p) {
		return
	}
	c.cells[indexOf(p.X, p.Y, p.Z)] = voxel.Cell{}
	c.setRowBit(p, false)
	c.dirty = true
}

func (c *Chunk) setRowBit(p vecmath.Vec3i, set bool) {
	for axis := 0; axis < 3; axis++ {
		i, j, k := rowCoord(axis, p)
		if set {
			c.rowBits[axis][i][j] |= 1 << uint(k)
		} else {
			c.rowBits[axis][i][j] &^= 1 << uint(k)
		}
	}
}

// rowCoord maps a chunk-relative position to (i, j, k) for a given axis:
// k is the coordinate along axis, and (i, j) are the coordinates along the
// other two axes in increasing order.
func rowCoord(axis int, p vecmath.Vec3i) (i, j, k int) {
	switch axis {
	case 0:
		return p.Y, p.Z, p.X
	case 1:
		return p.X, p.Z, p.Y
	default:
		return p.X, p.Y, p.Z
	}
}

// RowBits returns the packed row-occupancy bitmask along `axis` for the row
// at the other two axes fixed to (i, j) (see rowCoord for the ordering).
func (c *Chunk) RowBits(axis, i, j int) uint32 {
	return c.rowBits[axis][i][j]
}

// RowBitsPerp is RowBits addressed by the (axis+1)%3, (axis+2)%3 convention
// that visibility/mesher iterate their perpendicular axes in, rather than
// rowCoord's "other two axes in increasing index order". The two agree for
// axis 0 and 2; axis 1's perpendicular pair is (2, 0), the reverse of
// increasing order, so p0 and p1 are swapped before indexing rowBits.
func (c *Chunk) RowBitsPerp(axis, p0, p1 int) uint32 {
	if axis == 1 {
		return c.rowBits[1][p1][p0]
	}
	return c.rowBits[axis][p0][p1]
}

// RowFrontBack computes the positive-axis-face and negative-axis-face
// bitmasks for a row, using the shift trick from spec.md §4.2: bit k of
// plusFace is 1 iff voxel k is occupied and voxel k+1 is not (the +axis
// face of k is a boundary); bit k of minusFace is 1 iff voxel k is
// occupied and voxel k-1 is not (the -axis face of k is a boundary).
//
// faceMask covers the valid Size bits; bits beyond Size are never set by
// RowBits, so the shift-and-mask keeps both edges correct without explicit
// bounds checks (a run that touches the chunk edge is always treated as a
// boundary there).
func RowFrontBack(bits uint32) (plusFace, minusFace uint32) {
	const faceMask = (1 << Size) - 1
	plusFace = (bits &^ (bits >> 1)) & faceMask
	minusFace = (bits &^ (bits << 1)) & faceMask
	return plusFace, minusFace
}

// InnerBBox returns the chunk's current (chunk-relative) inner bounding
// box. It may be loose after erases until RecomputeInnerBBox is called.
func (c *Chunk) InnerBBox() vecmath.BBox { return c.inner }

// RecomputeInnerBBox rescans the dense array and tightens the inner bbox;
// erasing the last voxel resets it to empty (spec.md §3's invariant).
func (c *Chunk) RecomputeInnerBBox() {
	box := vecmath.EmptyBBox()
	for z := 0; z < Size; z++ {
		for y := 0; y < Size; y++ {
			for x := 0; x < Size; x++ {
				if c.cells[indexOf(x, y, z)].Instantiated() {
					box = box.Merge(vecmath.Vec3i{X: x, Y: y, Z: z})
				}
			}
		}
	}
	c.inner = box
}

// Dirty reports whether the chunk has unprocessed writes/erases since the
// last MarkProcessed.
func (c *Chunk) Dirty() bool { return c.dirty }

// MarkProcessed clears the dirty flag; it is the caller's (VoxelSpace's)
// job to invoke this exactly once per meshing pass (spec.md §5).
func (c *Chunk) MarkProcessed() { c.dirty = false }

// Cells exposes the dense backing array read-only, for iteration helpers
// and the visibility analyzer/mesher that need direct indexed access.
func (c *Chunk) Cells() *[Size * Size * Size]voxel.Cell { return &c.cells }
