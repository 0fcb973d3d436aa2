// Package visibility implements the per-voxel 6-face visibility mask
// maintenance protocol from spec.md §4.2.
package visibility

import (
	"math/bits"

	"github.com/voxforge/voxelcore/chunk"
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// Analyzer generates and incrementally updates voxel visibility masks. It
// holds no state of its own; every method takes the VoxelSpace it should
// operate on.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// neighborDelta is the unit offset for each face bit.
var neighborDelta = map[uint8]vecmath.Vec3i{
	voxel.Up:       {X: 0, Y: 1, Z: 0},
	voxel.Down:     {X: 0, Y: -1, Z: 0},
	voxel.Left:     {X: -1, Y: 0, Z: 0},
	voxel.Right:    {X: 1, Y: 0, Z: 0},
	voxel.Forward:  {X: 0, Y: 0, Z: 1},
	voxel.Backward: {X: 0, Y: 0, Z: -1},
}

var allFaceBits = [6]uint8{voxel.Up, voxel.Down, voxel.Left, voxel.Right, voxel.Forward, voxel.Backward}

// pairRule implements the table in spec.md §4.2 for two axis-adjacent
// instantiated cells a (facing +k) and b (facing -k, i.e. b is a's
// positive-k neighbor). Returns whether each of a's +k face and b's -k
// face should be visible. Absence is modeled by aPresent/bPresent.
func pairRule(a voxel.Cell, aPresent bool, b voxel.Cell, bPresent bool) (aVisible, bVisible bool) {
	switch {
	case !aPresent && !bPresent:
		return false, false
	case aPresent && !bPresent:
		return true, false
	case !aPresent && bPresent:
		return false, true
	}
	// both present
	aOpaque, bOpaque := !a.IsTransparent(), !b.IsTransparent()
	switch {
	case aOpaque && bOpaque:
		return false, false
	case aOpaque != bOpaque:
		return true, true
	default: // both transparent
		if voxel.SameKind(a, b) {
			return false, false
		}
		return true, true
	}
}

func setMaskBit(mask *uint8, bit uint8, on bool) {
	if on {
		*mask |= bit
	} else {
		*mask &^= bit
	}
}

// Generate recomputes the full visibility mask for every dirty chunk in the
// space. It does not clear dirty flags; callers mark chunks processed via
// VoxelSpace.MarkAsProcessed once they've also consumed the chunk for
// meshing.
func (a *Analyzer) Generate(space *voxelspace.VoxelSpace) {
	for _, meta := range space.QueryDirtyChunks(nil) {
		a.generateChunk(space, meta)
	}
}

// GenerateChunk recomputes the visibility mask for a single chunk,
// consulting the neighbor chunk across the positive-axis boundary where
// needed (spec.md §4.2: "at the positive-k chunk boundary, also consult the
// neighbor chunk's adjacent cell").
func (a *Analyzer) GenerateChunk(space *voxelspace.VoxelSpace, meta voxelspace.ChunkMeta) {
	a.generateChunk(space, meta)
}

func (a *Analyzer) generateChunk(space *voxelspace.VoxelSpace, meta voxelspace.ChunkMeta) {
	c := meta.Chunk
	inner := c.InnerBBox()
	if inner.Empty() {
		return
	}

	// First clear visibility bits for every instantiated cell in range;
	// they get re-set by the pairwise sweep below.
	for z := inner.Beg.Z; z < inner.End.Z; z++ {
		for y := inner.Beg.Y; y < inner.End.Y; y++ {
			for x := inner.Beg.X; x < inner.End.X; x++ {
				p := vecmath.Vec3i{X: x, Y: y, Z: z}
				cp := c.CellPtr(p)
				if cp != nil && cp.Instantiated() {
					cp.VisibilityMask = 0
				}
			}
		}
	}

	for axis := 0; axis < 3; axis++ {
		ax := voxel.Axis(axis)
		posFace := voxel.PositiveFace(ax)
		negFace := voxel.NegativeFace(ax)

		// Iterate every row perpendicular to axis within the inner bbox. The
		// row-occupancy bitmask (chunk.Chunk.RowBitsPerp) lets a fully empty
		// row be skipped in O(1) and an occupied row be walked bit-by-bit
		// instead of cell-by-cell, turning what used to be a dense Size-deep
		// scan with a CellPtr fetch at every k into one fetch per occupied
		// voxel (spec.md §4.2's O(CHUNK_SIZE²)-per-axis contract).
		beg, end := inner.Beg, inner.End
		begK, endK := beg.Get(axis), end.Get(axis)
		var rangeMask uint32
		if endK > begK {
			rangeMask = (uint32(1)<<uint(endK) - 1) &^ (uint32(1)<<uint(begK) - 1)
		}

		i0, i1 := perpRange(axis, beg, end)
		for p0 := i0.lo; p0 < i0.hi; p0++ {
			for p1 := i1.lo; p1 < i1.hi; p1++ {
				rowBits := c.RowBitsPerp(axis, p0, p1)
				walk := rowBits & rangeMask
				if walk == 0 {
					continue
				}
				// plusFace tells us, for every occupied k with k+1 < Size,
				// whether voxel k+1 is occupied too, without a second fetch;
				// minusFace does the same for voxel k-1.
				plusFace, minusFace := chunk.RowFrontBack(rowBits)

				for walk != 0 {
					k := int(bits.TrailingZeros32(walk))
					walk &^= 1 << uint(k)

					pos := rowPos(axis, p0, p1, k)
					cp := c.CellPtr(pos)
					if cp == nil {
						continue
					}

					// -k face: an occupied voxel k-1 in this chunk already set
					// it on its own visit; an empty one leaves it open; at
					// k == 0 the neighbor chunk's adjacent cell decides.
					if k > 0 {
						if minusFace&(1<<uint(k)) != 0 {
							setMaskBit(&cp.VisibilityMask, negFace, true)
						}
					} else {
						prevPos := pos.Add(meta.Origin).With(axis, meta.Origin.Get(axis)-1)
						prev, prevPresent := space.Find(prevPos, false)
						prevVis, selfVis := pairRule(prev, prevPresent, *cp, true)
						setMaskBit(&cp.VisibilityMask, negFace, selfVis)
						if prevPresent {
							updateNeighborMaskBit(space, prevPos, posFace, prevVis)
						}
					}

					nextPos := pos.With(axis, k+1)
					var nb voxel.Cell
					nbPresent := false
					if k+1 < chunk.Size {
						if plusFace&(1<<uint(k)) == 0 {
							// k is not a run boundary: voxel k+1 is occupied.
							if ncp := c.CellPtr(nextPos); ncp != nil {
								nb = *ncp
								nbPresent = true
							}
						}
					} else {
						// positive-k chunk boundary: consult the neighbor
						// chunk.
						worldPos := pos.Add(meta.Origin).With(axis, meta.Origin.Get(axis)+chunk.Size)
						if cell, ok := space.Find(worldPos, false); ok {
							nb = cell
							nbPresent = true
						}
					}

					aVis, bVis := pairRule(*cp, true, nb, nbPresent)
					setMaskBit(&cp.VisibilityMask, posFace, aVis)
					if nbPresent && k+1 < chunk.Size {
						ncp := c.CellPtr(nextPos)
						setMaskBit(&ncp.VisibilityMask, negFace, bVis)
					} else if nbPresent {
						// neighbor cell lives in another chunk
						worldPos := pos.Add(meta.Origin).With(axis, meta.Origin.Get(axis)+chunk.Size)
						updateNeighborMaskBit(space, worldPos, negFace, bVis)
					}
				}
			}
		}
	}
}

type axisRange struct{ lo, hi int }

func perpRange(axis int, beg, end vecmath.Vec3i) (axisRange, axisRange) {
	a1 := (axis + 1) % 3
	a2 := (axis + 2) % 3
	return axisRange{beg.Get(a1), end.Get(a1)}, axisRange{beg.Get(a2), end.Get(a2)}
}

func rowPos(axis, p0, p1, k int) vecmath.Vec3i {
	a1 := (axis + 1) % 3
	a2 := (axis + 2) % 3
	var v vecmath.Vec3i
	v = v.With(axis, k)
	v = v.With(a1, p0)
	v = v.With(a2, p1)
	return v
}

func updateNeighborMaskBit(space *voxelspace.VoxelSpace, pos vecmath.Vec3i, bit uint8, on bool) {
	c := space.ChunkAt(pos)
	if c == nil {
		return
	}
	origin := voxelspace.ChunkOrigin(pos)
	rel := pos.Sub(origin)
	cp := c.CellPtr(rel)
	if cp == nil {
		return
	}
	setMaskBit(&cp.VisibilityMask, bit, on)
}

// UpdateAround reapplies the pairwise rule between p and each of its six
// neighbors (spec.md §4.2's incremental protocol), after a single
// insert/erase at p. It updates both masks of every affected pair.
func (a *Analyzer) UpdateAround(space *voxelspace.VoxelSpace, p vecmath.Vec3i) {
	self, selfPresent := space.Find(p, false)

	for _, bit := range allFaceBits {
		delta := neighborDelta[bit]
		nPos := p.Add(delta)
		nb, nbPresent := space.Find(nPos, false)

		// `self` is the `a` side for this face; the neighbor in the +delta
		// direction is the `b` side.
		aVis, bVis := pairRule(self, selfPresent, nb, nbPresent)

		if selfPresent {
			setMaskBit(selfMaskPtr(space, p), bit, aVis)
		}
		if nbPresent {
			oppositeBit := opposite(bit)
			setMaskBit(selfMaskPtr(space, nPos), oppositeBit, bVis)
		}
	}
}

func selfMaskPtr(space *voxelspace.VoxelSpace, p vecmath.Vec3i) *uint8 {
	c := space.ChunkAt(p)
	if c == nil {
		return new(uint8)
	}
	origin := voxelspace.ChunkOrigin(p)
	cp := c.CellPtr(p.Sub(origin))
	if cp == nil {
		return new(uint8)
	}
	return &cp.VisibilityMask
}

func opposite(bit uint8) uint8 {
	switch bit {
	case voxel.Up:
		return voxel.Down
	case voxel.Down:
		return voxel.Up
	case voxel.Left:
		return voxel.Right
	case voxel.Right:
		return voxel.Left
	case voxel.Forward:
		return voxel.Backward
	default:
		return voxel.Forward
	}
}
