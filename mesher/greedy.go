package mesher

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/chunk"
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// Greedy is the axis-by-axis greedy mesher from spec.md §4.3.2: for each of
// the six face directions, slices the chunk perpendicular to the face's
// axis, builds a 2-D mask of same-kind exposed faces per slice, and merges
// the mask into maximal rectangles before emitting one quad per rectangle.
type Greedy struct{}

var _ Mesher = Greedy{}

func (Greedy) Chunks(model *voxelmodel.Model, opts Options) []MeshChunk {
	if opts.Atlas {
		return atlasChunks(model, opts)
	}
	return dispatch(model, opts, greedyChunk)
}

func (Greedy) FullMesh(model *voxelmodel.Model, opts Options) *mesh.Mesh {
	return mergeAll(model.Name, Greedy{}.Chunks(model, opts))
}

// quadKey identifies the "same kind" a greedy rectangle may merge across:
// same material and same palette color (so the merged quad still has a
// single well-defined UV). A zero quadKey with valid=false means "no exposed
// face here".
type quadKey struct {
	valid      bool
	materialID uint8
	colorID    uint8
}

func greedyChunk(model *voxelmodel.Model, meta voxelspace.ChunkMeta, opts Options) *mesh.Mesh {
	m := mesh.New(model.Name)
	c := meta.Chunk
	inner := c.InnerBBox()
	if inner.Empty() {
		return m
	}

	byMaterial := make(map[string]*mesh.Builder)
	builderFor := func(matIdx uint8) *mesh.Builder {
		mat := model.MaterialFor(voxel.New(matIdx, 0, false))
		b, ok := byMaterial[mat.Handle()]
		if !ok {
			b = mesh.NewBuilder(m, mat, opts.ceiling())
			byMaterial[mat.Handle()] = b
		}
		return b
	}
	paletteW := paletteWidth(model)

	for axis := 0; axis < 3; axis++ {
		a1 := (axis + 1) % 3
		a2 := (axis + 2) % 3
		lo1, hi1 := inner.Beg.Get(a1), inner.End.Get(a1)
		lo2, hi2 := inner.Beg.Get(a2), inner.End.Get(a2)
		if lo1 >= hi1 || lo2 >= hi2 {
			continue
		}
		w, h := hi1-lo1, hi2-lo2

		for _, positive := range [2]bool{true, false} {
			bit := faceBit(axis, positive)
			normal := axisNormal(axis, positive)

			for k := inner.Beg.Get(axis); k < inner.End.Get(axis); k++ {
				mask := buildSliceMask(c, axis, a1, a2, k, lo1, lo2, w, h, bit)
				rects := greedyMerge(mask, w, h)

				planeK := k
				if positive {
					planeK = k + 1
				}

				for _, r := range rects {
					rl1, rh1 := lo1+r.u0, lo1+r.u0+r.w
					rl2, rh2 := lo2+r.v0, lo2+r.v0+r.h
					corners := faceCorners(axis, positive, planeK, rl1, rh1, rl2, rh2)

					world := [4]vecmath.Vec3i{}
					for i, cr := range corners {
						world[i] = cr.Add(meta.Origin)
					}

					u, v := colorUV(r.key.colorID, paletteW)
					var verts [4]mesh.Vertex
					for i, wc := range world {
						verts[i] = mesh.Vertex{
							Pos:    mgl32.Vec3{float32(wc.X), float32(wc.Y), float32(wc.Z)},
							Normal: normal,
							UV:     mgl32.Vec2{u, v},
						}
					}
					builderFor(r.key.materialID).AppendQuad(verts[0], verts[1], verts[2], verts[3])
				}
			}
		}
	}

	return m
}

// buildSliceMask reads the exposed-face bit for every cell in slice k
// (fixed along axis) and fills a w x h mask (indexed relative to lo1, lo2)
// with each exposed cell's merge key. Most (i, j) pairs in a slice have no
// voxel at all; RowBitsPerp's occupancy bit answers that in O(1) per cell
// instead of always materializing the Cell just to find VisibilityMask
// zero.
func buildSliceMask(c *chunk.Chunk, axis, a1, a2, k, lo1, lo2, w, h int, bit uint8) []quadKey {
	mask := make([]quadKey, w*h)
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			row := c.RowBitsPerp(axis, lo1+i, lo2+j)
			if row&(1<<uint(k)) == 0 {
				continue
			}
			var p vecmath.Vec3i
			p = p.With(axis, k)
			p = p.With(a1, lo1+i)
			p = p.With(a2, lo2+j)
			cell := c.At(p)
			if cell.VisibilityMask&bit == 0 {
				continue
			}
			mask[j*w+i] = quadKey{valid: true, materialID: cell.MaterialIndex, colorID: cell.ColorIndex}
		}
	}
	return mask
}

type rect struct {
	u0, v0, w, h int
	key          quadKey
}

// greedyMerge runs the classical greedy-meshing sweep over a w x h mask
// (row-major, index j*w+i): scan for an unconsumed cell, grow it first along
// u (width) while the key matches, then grow along v (height) while the
// entire new row shares the same key, marking consumed cells as it goes.
// Ties (several equally valid expansions) resolve in scan order: width
// before height, lowest (u0, v0) first.
func greedyMerge(mask []quadKey, w, h int) []rect {
	consumed := make([]bool, w*h)
	var out []rect

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			idx := j*w + i
			if consumed[idx] || !mask[idx].valid {
				continue
			}
			k := mask[idx]

			width := 1
			for i+width < w {
				ni := idx + width
				if consumed[ni] || mask[ni] != k {
					break
				}
				width++
			}

			height := 1
		rowLoop:
			for j+height < h {
				base := (j+height)*w + i
				for x := 0; x < width; x++ {
					ni := base + x
					if consumed[ni] || mask[ni] != k {
						break rowLoop
					}
				}
				height++
			}

			for y := 0; y < height; y++ {
				base := (j+y)*w + i
				for x := 0; x < width; x++ {
					consumed[base+x] = true
				}
			}

			out = append(out, rect{u0: i, v0: j, w: width, h: height, key: k})
		}
	}

	return out
}
