package voxelspace

import (
	"testing"

	"github.com/voxforge/voxelcore/chunk"
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxel"
)

func TestChunkOriginFloorsNegative(t *testing.T) {
	got := ChunkOrigin(vecmath.NewVec3i(-1, 0, 17))
	want := vecmath.NewVec3i(-chunk.Size, 0, chunk.Size)
	if got != want {
		t.Fatalf("ChunkOrigin(-1,0,17) = %v, want %v", got, want)
	}
}

func TestInsertAndFind(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(5, 5, 5)
	s.Insert(p, voxel.New(1, 2, false))

	cell, ok := s.Find(p, false)
	if !ok {
		t.Fatal("expected to find the inserted cell")
	}
	if cell.MaterialIndex != 1 || cell.ColorIndex != 2 {
		t.Fatalf("wrong cell returned: %+v", cell)
	}
	if s.Count() != 1 {
		t.Fatalf("Count should be 1, got %d", s.Count())
	}
}

func TestInsertOverwriteDoesNotDoubleCount(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(1, 1, 1)
	s.Insert(p, voxel.New(1, 1, false))
	s.Insert(p, voxel.New(2, 2, false))

	if s.Count() != 1 {
		t.Fatalf("overwriting an occupied position must not double-count, got %d", s.Count())
	}
	cell, _ := s.Find(p, false)
	if cell.MaterialIndex != 2 {
		t.Fatal("overwrite should replace the cell's contents")
	}
}

func TestFindMissingReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Find(vecmath.NewVec3i(0, 0, 0), false)
	if ok {
		t.Fatal("Find on an empty space must return ok=false")
	}
}

func TestFindOpaqueOnlyFiltersTransparent(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(0, 0, 0)
	s.Insert(p, voxel.New(1, 1, true))

	if _, ok := s.Find(p, true); ok {
		t.Fatal("Find with opaqueOnly must reject a transparent cell")
	}
	if _, ok := s.Find(p, false); !ok {
		t.Fatal("Find without opaqueOnly must still return the transparent cell")
	}
}

func TestFindVisibleRequiresVisibilityMask(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(0, 0, 0)
	s.Insert(p, voxel.New(1, 1, false))

	if _, ok := s.FindVisible(p, false); ok {
		t.Fatal("FindVisible must be false before any visibility mask is set")
	}

	c := s.ChunkAt(p)
	ptr := c.CellPtr(vecmath.NewVec3i(0, 0, 0))
	ptr.VisibilityMask = voxel.AllFaces

	if _, ok := s.FindVisible(p, false); !ok {
		t.Fatal("FindVisible must be true once the visibility mask is nonzero")
	}
}

func TestEraseDecrementsCount(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(2, 2, 2)
	s.Insert(p, voxel.New(1, 1, false))
	s.Erase(p)

	if s.Count() != 0 {
		t.Fatalf("Count should be 0 after erase, got %d", s.Count())
	}
	if _, ok := s.Find(p, false); ok {
		t.Fatal("erased position must not be found")
	}
}

func TestEraseOnEmptyPositionIsNoop(t *testing.T) {
	s := New()
	s.Erase(vecmath.NewVec3i(0, 0, 0))
	if s.Count() != 0 {
		t.Fatal("erasing an empty position must not affect count")
	}
}

func TestQueryChunksInsertionOrder(t *testing.T) {
	s := New()
	third := vecmath.NewVec3i(100, 0, 0)
	first := vecmath.NewVec3i(0, 0, 0)
	second := vecmath.NewVec3i(50, 0, 0)

	s.Insert(third, voxel.New(1, 1, false))
	s.Insert(first, voxel.New(1, 1, false))
	s.Insert(second, voxel.New(1, 1, false))

	metas := s.QueryChunks(nil)
	if len(metas) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(metas))
	}
	if metas[0].Origin != ChunkOrigin(third) {
		t.Fatalf("first chunk queried should be the first inserted (origin of %v), got %v", third, metas[0].Origin)
	}
	if metas[1].Origin != ChunkOrigin(first) {
		t.Fatalf("second chunk should be origin of %v, got %v", first, metas[1].Origin)
	}
}

func TestQueryChunksSkipsEmptyChunks(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(0, 0, 0)
	s.Insert(p, voxel.New(1, 1, false))
	s.Erase(p)
	s.RecomputeInnerBBoxes()

	metas := s.QueryChunks(nil)
	if len(metas) != 0 {
		t.Fatalf("a chunk whose inner bbox recomputed to empty must not be queried, got %d", len(metas))
	}
}

func TestQueryDirtyChunks(t *testing.T) {
	s := New()
	p := vecmath.NewVec3i(0, 0, 0)
	s.Insert(p, voxel.New(1, 1, false))

	dirty := s.QueryDirtyChunks(nil)
	if len(dirty) != 1 {
		t.Fatalf("expected 1 dirty chunk, got %d", len(dirty))
	}

	s.MarkAsProcessed(dirty[0])
	dirty = s.QueryDirtyChunks(nil)
	if len(dirty) != 0 {
		t.Fatal("MarkAsProcessed should remove the chunk from the dirty query")
	}
}

func TestIterateVisitsAllInsertedCells(t *testing.T) {
	s := New()
	positions := []vecmath.Vec3i{
		vecmath.NewVec3i(0, 0, 0),
		vecmath.NewVec3i(1, 0, 0),
		vecmath.NewVec3i(20, 0, 0), // different chunk
	}
	for _, p := range positions {
		s.Insert(p, voxel.New(1, 1, false))
	}

	seen := make(map[vecmath.Vec3i]bool)
	for it := s.Iterate(); !it.Done(); it.Next() {
		pos, cell := it.Cell()
		if !cell.Instantiated() {
			t.Fatal("iterator must only yield instantiated cells")
		}
		seen[pos] = true
	}
	if len(seen) != len(positions) {
		t.Fatalf("expected to visit %d cells, visited %d", len(positions), len(seen))
	}
	for _, p := range positions {
		if !seen[p] {
			t.Fatalf("position %v was not visited", p)
		}
	}
}

func TestIteratorEraseAdvances(t *testing.T) {
	s := New()
	a := vecmath.NewVec3i(0, 0, 0)
	b := vecmath.NewVec3i(1, 0, 0)
	s.Insert(a, voxel.New(1, 1, false))
	s.Insert(b, voxel.New(1, 1, false))

	it := s.Iterate()
	it.Erase()
	if s.Count() != 1 {
		t.Fatalf("Erase via iterator should decrement count to 1, got %d", s.Count())
	}
	if it.Done() {
		t.Fatal("after erasing the first of two cells, the iterator should still have one left")
	}
	pos, _ := it.Cell()
	if pos != b {
		t.Fatalf("iterator should now point at %v, got %v", b, pos)
	}
}

func TestQueryVisibleFiltersByMaskAndOpacity(t *testing.T) {
	s := New()
	opaque := vecmath.NewVec3i(0, 0, 0)
	transparent := vecmath.NewVec3i(1, 0, 0)
	s.Insert(opaque, voxel.New(1, 1, false))
	s.Insert(transparent, voxel.New(1, 1, true))

	for _, p := range []vecmath.Vec3i{opaque, transparent} {
		ptr := s.ChunkAt(p).CellPtr(relativeOf(p, ChunkOrigin(p)))
		ptr.VisibilityMask = voxel.AllFaces
	}

	all := s.QueryVisible(false)
	if len(all) != 2 {
		t.Fatalf("expected 2 visible cells, got %d", len(all))
	}
	opaqueOnly := s.QueryVisible(true)
	if len(opaqueOnly) != 1 {
		t.Fatalf("expected 1 opaque visible cell, got %d", len(opaqueOnly))
	}
}

func TestChunkAtUncreatedReturnsNil(t *testing.T) {
	s := New()
	if s.ChunkAt(vecmath.NewVec3i(0, 0, 0)) != nil {
		t.Fatal("ChunkAt on an empty space must return nil")
	}
}
