// Package mesher implements the Simple and Greedy meshers from spec.md
// §4.3, sharing a common chunk-dispatch contract and frustum-culling gate.
package mesher

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/texture"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// Options controls a meshing pass.
type Options struct {
	OnlyDirty bool
	Frustum   *vecmath.Frustum
	// Atlas enables the greedy mesher's per-quad texture atlas mode
	// (spec.md §4.3.2's "optional atlas mode"). Ignored by Simple.
	Atlas bool
	// IndexCeiling bounds per-surface vertex count; 0 means "use the
	// package default" (math.MaxInt32, i.e. effectively 32-bit indices).
	IndexCeiling int
	// PoolSize overrides the worker count; 0 means runtime.NumCPU().
	PoolSize int
}

func (o Options) ceiling() int {
	if o.IndexCeiling <= 0 {
		return math.MaxInt32
	}
	return o.IndexCeiling
}

func (o Options) poolSize() int {
	if o.PoolSize > 0 {
		return o.PoolSize
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// MeshChunk is one chunk's meshing result: its identity, bounding boxes,
// and the mesh fragment covering it (spec.md §4.3's output contract).
type MeshChunk struct {
	UniqueID  uint64
	InnerBBox vecmath.BBox
	TotalBBox vecmath.BBox
	Mesh      *mesh.Mesh
}

// Mesher is the shared contract both mesher implementations satisfy.
type Mesher interface {
	// Chunks meshes every (optionally dirty-only, optionally frustum-
	// culled) chunk of model, dispatched across a worker pool, one task
	// per chunk, and returns results in the space's chunk iteration order
	// (spec.md §5's ordering guarantee).
	Chunks(model *voxelmodel.Model, opts Options) []MeshChunk
	// FullMesh is the convenience full-mesh call: Chunks, merged into one
	// Mesh in the same order.
	FullMesh(model *voxelmodel.Model, opts Options) *mesh.Mesh
}

// chunkWork is the per-chunk task signature every mesher implementation
// supplies to dispatch.
type chunkWork func(model *voxelmodel.Model, meta voxelspace.ChunkMeta, opts Options) *mesh.Mesh

// dispatch selects the chunks to process (honoring OnlyDirty/Frustum), runs
// one task per chunk across a bounded worker pool, and returns results in
// the same order QueryChunks/QueryDirtyChunks yielded them — which is the
// space's insertion order (spec.md §5). Meshing never mutates the model; it
// is safe to call concurrently with reads, and the caller is responsible
// for calling MarkAsProcessed once it has consumed the results.
func dispatch(model *voxelmodel.Model, opts Options, work chunkWork) []MeshChunk {
	var metas []voxelspace.ChunkMeta
	if opts.OnlyDirty {
		metas = model.Space.QueryDirtyChunks(opts.Frustum)
	} else {
		metas = model.Space.QueryChunks(opts.Frustum)
	}
	if len(metas) == 0 {
		return nil
	}

	results := make([]MeshChunk, len(metas))
	sem := make(chan struct{}, opts.poolSize())
	var wg sync.WaitGroup

	for i, meta := range metas {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, meta voxelspace.ChunkMeta) {
			defer wg.Done()
			defer func() { <-sem }()
			m := work(model, meta, opts)
			results[i] = MeshChunk{
				UniqueID:  meta.UniqueID,
				InnerBBox: meta.InnerBBox,
				TotalBBox: meta.TotalBBox,
				Mesh:      m,
			}
		}(i, meta)
	}
	wg.Wait()
	return results
}

// mergeAll merges a list of per-chunk meshes into one Mesh, in order.
func mergeAll(name string, chunks []MeshChunk) *mesh.Mesh {
	out := mesh.New(name)
	for _, c := range chunks {
		if c.Mesh == nil {
			continue
		}
		out.Merge(c.Mesh)
	}
	return out
}

func paletteWidth(model *voxelmodel.Model) int {
	if t, ok := model.Textures[texture.TypePalette]; ok && t != nil {
		w, _ := t.Size()
		if w > 0 {
			return w
		}
	}
	return 256
}

func colorUV(colorIndex uint8, width int) (float32, float32) {
	if width <= 0 {
		width = 256
	}
	return (float32(colorIndex) + 0.5) / float32(width), 0.5
}

// faceCorners returns the four corners of a quad normal to `axis`, in the
// winding order spec.md §4.3.2 requires: CCW as seen from the outward-normal
// side. k is the fixed coordinate along axis (the face plane); (lo1, hi1)
// and (lo2, hi2) are the span along the two perpendicular axes, taken in
// cyclic order a1=(axis+1)%3, a2=(axis+2)%3 — a1 x a2 = +axis, so for the
// positive-normal face the natural (lo1,lo2),(hi1,lo2),(hi1,hi2),(lo1,hi2)
// order already has the right handedness; the negative-normal face reverses
// the a2 traversal to flip the winding instead.
func faceCorners(axis int, positive bool, k, lo1, hi1, lo2, hi2 int) [4]vecmath.Vec3i {
	a1 := (axis + 1) % 3
	a2 := (axis + 2) % 3
	set := func(v1, v2 int) vecmath.Vec3i {
		var p vecmath.Vec3i
		p = p.With(axis, k)
		p = p.With(a1, v1)
		p = p.With(a2, v2)
		return p
	}
	if positive {
		return [4]vecmath.Vec3i{set(lo1, lo2), set(hi1, lo2), set(hi1, hi2), set(lo1, hi2)}
	}
	return [4]vecmath.Vec3i{set(lo1, lo2), set(lo1, hi2), set(hi1, hi2), set(hi1, lo2)}
}

func axisNormal(axis int, positive bool) mgl32.Vec3 {
	var n mgl32.Vec3
	switch axis {
	case 0:
		n = mgl32.Vec3{1, 0, 0}
	case 1:
		n = mgl32.Vec3{0, 1, 0}
	default:
		n = mgl32.Vec3{0, 0, 1}
	}
	if !positive {
		return n.Mul(-1)
	}
	return n
}

func faceBit(axis int, positive bool) uint8 {
	ax := voxel.Axis(axis)
	if positive {
		return voxel.PositiveFace(ax)
	}
	return voxel.NegativeFace(ax)
}
