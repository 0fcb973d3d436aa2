package voxelspace

import (
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxel"
)

// Iterator walks all instantiated cells in chunk-major then cell-major
// order (spec.md §4.1). Advancing within a chunk follows the chunk's inner
// bbox in z-major, y, x order, skipping empty cells cheaply; crossing into
// the next chunk follows the space's insertion order.
type Iterator struct {
	space      *VoxelSpace
	chunkIdx   int
	cur        vecmath.Vec3i // chunk-relative position of the current cell
	done       bool
	curEntry   *entry
	curInner   vecmath.BBox
}

// Iterate returns an iterator positioned at the first instantiated cell, or
// a done iterator if the space is empty.
func (s *VoxelSpace) Iterate() *Iterator {
	it := &Iterator{space: s, chunkIdx: -1}
	it.advanceChunk()
	if it.done {
		return it
	}
	if !it.seekForward() {
		it.advanceChunkLoop()
	}
	return it
}

// advanceChunk moves to the next non-empty chunk in insertion order and
// resets cur to its inner bbox's first cell (Beg). It does not itself
// guarantee the new chunk has any instantiated cell at cur; callers must
// call seekForward (directly or via advanceChunkLoop).
func (it *Iterator) advanceChunk() {
	it.chunkIdx++
	for it.chunkIdx < len(it.space.order) {
		e := it.space.chunks[it.space.order[it.chunkIdx]]
		inner := e.chunk.InnerBBox()
		if !inner.Empty() {
			it.curEntry = e
			it.curInner = inner
			it.cur = inner.Beg
			return
		}
		it.chunkIdx++
	}
	it.done = true
}

// advanceChunkLoop keeps calling advanceChunk until a chunk with an
// instantiated cell is found or the space is exhausted.
func (it *Iterator) advanceChunkLoop() {
	for !it.done {
		if it.seekForward() {
			return
		}
		it.advanceChunk()
	}
}

// seekForward scans forward from it.cur (inclusive) within the current
// chunk's inner bbox, in z-major, y, x order, for the next instantiated
// cell. Returns false (leaving it.cur past the box) if none remains in this
// chunk.
func (it *Iterator) seekForward() bool {
	box := it.curInner
	for z := it.cur.Z; z < box.End.Z; z++ {
		yBeg := box.Beg.Y
		if z == it.cur.Z {
			yBeg = it.cur.Y
		}
		for y := yBeg; y < box.End.Y; y++ {
			xBeg := box.Beg.X
			if z == it.cur.Z && y == it.cur.Y {
				xBeg = it.cur.X
			}
			for x := xBeg; x < box.End.X; x++ {
				p := vecmath.Vec3i{X: x, Y: y, Z: z}
				if it.curEntry.chunk.At(p).Instantiated() {
					it.cur = p
					return true
				}
			}
		}
	}
	return false
}

// Done reports whether the iterator has passed the last instantiated cell.
func (it *Iterator) Done() bool { return it.done }

// Cell returns the world position and cell the iterator currently points
// at. Undefined if Done().
func (it *Iterator) Cell() (vecmath.Vec3i, voxel.Cell) {
	world := it.cur.Add(it.curEntry.origin)
	return world, it.curEntry.chunk.At(it.cur)
}

// CellPtr is Cell but returns a live pointer into the chunk's dense array
// for in-place mutation.
func (it *Iterator) CellPtr() (vecmath.Vec3i, *voxel.Cell) {
	world := it.cur.Add(it.curEntry.origin)
	return world, it.curEntry.chunk.CellPtr(it.cur)
}

// Next advances the iterator to the next instantiated cell (may cross into
// a subsequent chunk), or marks it Done.
func (it *Iterator) Next() {
	if it.done {
		return
	}
	// step past the current cell before searching again
	box := it.curInner
	it.cur.X++
	if it.cur.X >= box.End.X {
		it.cur.X = box.Beg.X
		it.cur.Y++
		if it.cur.Y >= box.End.Y {
			it.cur.Y = box.Beg.Y
			it.cur.Z++
		}
	}
	if it.cur.Z >= box.End.Z {
		it.advanceChunk()
		if it.done {
			return
		}
	}
	it.advanceChunkLoop()
}

// Erase is the space-level erase-by-iterator operation from spec.md §4.1:
// it zeroes the cell under the iterator, decrements the count, marks the
// chunk dirty, and leaves the iterator positioned at the next instantiated
// cell (advancing across chunks if needed). The inner bbox is not
// recomputed (erase stays O(1)).
func (it *Iterator) Erase() {
	if it.done {
		return
	}
	world, _ := it.Cell()
	it.space.count--
	it.curEntry.chunk.Erase(it.cur)
	it.Next()
	_ = world
}
