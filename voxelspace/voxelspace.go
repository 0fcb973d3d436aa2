// Package voxelspace implements the chunked voxel storage and iteration
// contract from spec.md §4.1.
package voxelspace

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/chunk"
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxel"
)

// ChunkMeta describes one chunk for query results: a stable identifier, the
// chunk itself, and its bounding boxes in world (space-relative) and
// chunk-relative coordinates.
type ChunkMeta struct {
	UniqueID  uint64
	Origin    vecmath.Vec3i
	Chunk     *chunk.Chunk
	TotalBBox vecmath.BBox // Origin + InnerBBox, in world coordinates
	InnerBBox vecmath.BBox // chunk-relative
}

type entry struct {
	id     uint64
	chunk  *chunk.Chunk
	origin vecmath.Vec3i
}

// VoxelSpace maps chunk-origin vectors to Chunks. Keys are canonicalized by
// flooring the world position to a multiple of chunk.Size; no two chunks
// overlap, and a world voxel position maps to exactly one chunk.
type VoxelSpace struct {
	chunks map[vecmath.Vec3i]*entry
	order  []vecmath.Vec3i // insertion order, the space's total-order guarantee (spec.md §5)
	nextID uint64
	count  int
}

// New returns an empty VoxelSpace.
func New() *VoxelSpace {
	return &VoxelSpace{chunks: make(map[vecmath.Vec3i]*entry)}
}

// ChunkOrigin canonicalizes a world position to its containing chunk's
// origin (floored to a multiple of chunk.Size).
func ChunkOrigin(pos vecmath.Vec3i) vecmath.Vec3i {
	return vecmath.Vec3i{
		X: vecmath.FloorDiv(pos.X, chunk.Size) * chunk.Size,
		Y: vecmath.FloorDiv(pos.Y, chunk.Size) * chunk.Size,
		Z: vecmath.FloorDiv(pos.Z, chunk.Size) * chunk.Size,
	}
}

func relativeOf(pos, origin vecmath.Vec3i) vecmath.Vec3i { return pos.Sub(origin) }

func (s *VoxelSpace) getOrCreate(origin vecmath.Vec3i) *entry {
	if e, ok := s.chunks[origin]; ok {
		return e
	}
	e := &entry{id: s.nextID, chunk: chunk.New(), origin: origin}
	s.nextID++
	s.chunks[origin] = e
	s.order = append(s.order, origin)
	return e
}

// ChunkAt returns the chunk covering pos, or nil if no chunk has ever been
// created there.
func (s *VoxelSpace) ChunkAt(pos vecmath.Vec3i) *chunk.Chunk {
	origin := ChunkOrigin(pos)
	e, ok := s.chunks[origin]
	if !ok {
		return nil
	}
	return e.chunk
}

// Count returns the number of instantiated voxels in the space.
func (s *VoxelSpace) Count() int { return s.count }

// Insert canonicalizes the chunk origin, creates the chunk lazily, writes
// the cell at the chunk-relative offset, updates the chunk's inner bbox,
// marks the chunk dirty, and increments the space-wide voxel count unless
// a cell already occupied pos (spec.md §4.1: inserting at an already-
// occupied position overwrites rather than double-counting).
func (s *VoxelSpace) Insert(pos vecmath.Vec3i, cell voxel.Cell) {
	origin := ChunkOrigin(pos)
	e := s.getOrCreate(origin)
	rel := relativeOf(pos, origin)
	wasInstantiated := e.chunk.At(rel).Instantiated()
	e.chunk.Set(rel, cell)
	if !wasInstantiated {
		s.count++
	}
}

// Find does an O(1) chunk lookup and O(1) relative index lookup, optionally
// filtering by the transparent bit. ok is false if there is no chunk, no
// instantiated cell, or (when opaque is requested) the cell is transparent.
func (s *VoxelSpace) Find(pos vecmath.Vec3i, opaqueOnly bool) (cell voxel.Cell, ok bool) {
	c := s.ChunkAt(pos)
	if c == nil {
		return voxel.Cell{}, false
	}
	rel := relativeOf(pos, ChunkOrigin(pos))
	cell = c.At(rel)
	if !cell.Instantiated() {
		return voxel.Cell{}, false
	}
	if opaqueOnly && cell.IsTransparent() {
		return voxel.Cell{}, false
	}
	return cell, true
}

// FindVisible is Find plus a visibility-mask check.
func (s *VoxelSpace) FindVisible(pos vecmath.Vec3i, opaqueOnly bool) (cell voxel.Cell, ok bool) {
	cell, ok = s.Find(pos, opaqueOnly)
	if !ok || !cell.Visible() {
		return voxel.Cell{}, false
	}
	return cell, true
}

// Erase zeroes the cell at pos, decrements the count if it was
// instantiated, and marks the owning chunk dirty. The chunk's inner bbox is
// deliberately not recomputed (spec.md §4.1); call RecomputeInnerBBoxes (or
// rely on the mesher/visibility pass, which only reads within the loose
// box) before depending on tightness.
func (s *VoxelSpace) Erase(pos vecmath.Vec3i) {
	c := s.ChunkAt(pos)
	if c == nil {
		return
	}
	rel := relativeOf(pos, ChunkOrigin(pos))
	if !c.At(rel).Instantiated() {
		return
	}
	c.Erase(rel)
	s.count--
}

// QueryVisible does a full scan for every visible cell, optionally filtered
// to opaque-only, and returns world position -> cell. Intended for debug
// tooling; the meshers work per chunk and do not call it.
func (s *VoxelSpace) QueryVisible(opaqueOnly bool) map[vecmath.Vec3i]voxel.Cell {
	out := make(map[vecmath.Vec3i]voxel.Cell)
	for it := s.Iterate(); !it.Done(); it.Next() {
		pos, cell := it.Cell()
		if !cell.Visible() {
			continue
		}
		if opaqueOnly && cell.IsTransparent() {
			continue
		}
		out[pos] = cell
	}
	return out
}

// chunkMetaFor builds a ChunkMeta for an entry, recomputing nothing (the
// caller decides whether the inner bbox needs tightening first).
func chunkMetaFor(e *entry) ChunkMeta {
	inner := e.chunk.InnerBBox()
	return ChunkMeta{
		UniqueID:  e.id,
		Origin:    e.origin,
		Chunk:     e.chunk,
		InnerBBox: inner,
		TotalBBox: inner.Offset(e.origin),
	}
}

func worldCorners(b vecmath.BBox) (beg, end mgl32.Vec3) {
	beg = mgl32.Vec3{float32(b.Beg.X), float32(b.Beg.Y), float32(b.Beg.Z)}
	end = mgl32.Vec3{float32(b.End.X), float32(b.End.Y), float32(b.End.Z)}
	return
}

// QueryChunks enumerates chunks in insertion order; when frustum is
// non-nil, only chunks whose total bbox intersects the frustum are yielded.
func (s *VoxelSpace) QueryChunks(frustum *vecmath.Frustum) []ChunkMeta {
	out := make([]ChunkMeta, 0, len(s.order))
	for _, origin := range s.order {
		e := s.chunks[origin]
		if e.chunk.InnerBBox().Empty() {
			continue
		}
		meta := chunkMetaFor(e)
		if frustum != nil {
			beg, end := worldCorners(meta.TotalBBox)
			if !frustum.IntersectsBBox(beg, end) {
				continue
			}
		}
		out = append(out, meta)
	}
	return out
}

// QueryDirtyChunks is QueryChunks restricted to dirty chunks. It does not
// clear the dirty flag.
func (s *VoxelSpace) QueryDirtyChunks(frustum *vecmath.Frustum) []ChunkMeta {
	all := s.QueryChunks(frustum)
	out := all[:0:0]
	for _, m := range all {
		if m.Chunk.Dirty() {
			out = append(out, m)
		}
	}
	return out
}

// MarkAsProcessed clears the dirty flag of the chunk named by meta.
func (s *VoxelSpace) MarkAsProcessed(meta ChunkMeta) {
	meta.Chunk.MarkProcessed()
}

// RecomputeInnerBBoxes tightens every chunk's inner bbox; useful after a
// batch of erases when a caller wants exact (not merely loose) boxes before
// querying.
func (s *VoxelSpace) RecomputeInnerBBoxes() {
	for _, origin := range s.order {
		s.chunks[origin].chunk.RecomputeInnerBBox()
	}
}
