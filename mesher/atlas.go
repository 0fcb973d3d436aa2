package mesher

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/texture"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// maxAtlasDim bounds the packed atlas's final pixel dimensions; shelf
// packing itself has no such bound, so anything larger is downscaled
// (texture.Downscale) rather than shipped as an oversized texture.
const maxAtlasDim = 2048

// atlasRect is one merged quad's footprint, in texels (one texel per voxel
// cell the quad covers), pending a shelf placement.
type atlasRect struct {
	w, h int
}

// atlasPlacement is where a rect of that size landed in the packed atlas.
type atlasPlacement struct {
	x, y int
}

// packAtlas packs rects shelf-order, largest-first (spec.md §4.3.2's
// "optional atlas mode"): sort by height descending (ties by width
// descending), then lay out left-to-right on the current shelf, starting a
// new shelf when the current one would overflow a width budget chosen as
// the integer square root of the rects' total area plus one, raised to the
// widest rect's width if that is larger (a simple, deterministic bound
// that keeps the atlas roughly square without an iterative bin search).
func packAtlas(rects []atlasRect) ([]atlasPlacement, int, int) {
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := rects[order[i]], rects[order[j]]
		if a.h != b.h {
			return a.h > b.h
		}
		return a.w > b.w
	})

	totalArea := 0
	maxW := 0
	for _, r := range rects {
		totalArea += r.w * r.h
		if r.w > maxW {
			maxW = r.w
		}
	}
	widthBudget := isqrt(totalArea) + 1
	if widthBudget < maxW {
		widthBudget = maxW
	}

	placements := make([]atlasPlacement, len(rects))
	shelfX, shelfY, shelfH := 0, 0, 0
	atlasW, atlasH := 0, 0

	for _, idx := range order {
		r := rects[idx]
		if shelfX+r.w > widthBudget && shelfX > 0 {
			shelfY += shelfH
			shelfX, shelfH = 0, 0
		}
		placements[idx] = atlasPlacement{x: shelfX, y: shelfY}
		shelfX += r.w
		if r.h > shelfH {
			shelfH = r.h
		}
		if shelfX > atlasW {
			atlasW = shelfX
		}
		if shelfY+shelfH > atlasH {
			atlasH = shelfY + shelfH
		}
	}
	if atlasW == 0 {
		atlasW = 1
	}
	if atlasH == 0 {
		atlasH = 1
	}
	return placements, atlasW, atlasH
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// quadParams returns, for each of the four faceCorners() output positions,
// the (u, v) in [0, 1] that corner occupies within its rect, matching the
// two corner orderings faceCorners emits for positive/negative faces.
func quadParams(positive bool) [4][2]float32 {
	if positive {
		return [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	}
	return [4][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
}

type atlasQuadRef struct {
	chunkIdx int
	meta     voxelspace.ChunkMeta
	axis     int
	positive bool
	planeK   int
	rl1, rh1, rl2, rh2 int
	key      quadKey
}

func selectChunks(model *voxelmodel.Model, opts Options) []voxelspace.ChunkMeta {
	if opts.OnlyDirty {
		return model.Space.QueryDirtyChunks(opts.Frustum)
	}
	return model.Space.QueryChunks(opts.Frustum)
}

// atlasChunks is the Greedy mesher's atlas-mode path: a sequential two-pass
// variant of the normal per-chunk dispatch. The first pass gathers every
// merged quad's footprint across every chunk; a global shelf pack then
// assigns each one a place in a single atlas texture, and a second pass
// bakes the final per-chunk meshes with UVs rewritten to address that atlas
// instead of the palette strip.
func atlasChunks(model *voxelmodel.Model, opts Options) []MeshChunk {
	metas := selectChunks(model, opts)
	if len(metas) == 0 {
		return nil
	}

	var refs []atlasQuadRef
	var rects []atlasRect

	for ci, meta := range metas {
		c := meta.Chunk
		inner := c.InnerBBox()
		if inner.Empty() {
			continue
		}
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
				for k := inner.Beg.Get(axis); k < inner.End.Get(axis); k++ {
					mask := buildSliceMask(c, axis, a1, a2, k, lo1, lo2, w, h, bit)
					for _, r := range greedyMerge(mask, w, h) {
						planeK := k
						if positive {
							planeK = k + 1
						}
						refs = append(refs, atlasQuadRef{
							chunkIdx: ci, meta: meta, axis: axis, positive: positive, planeK: planeK,
							rl1: lo1 + r.u0, rh1: lo1 + r.u0 + r.w,
							rl2: lo2 + r.v0, rh2: lo2 + r.v0 + r.h,
							key: r.key,
						})
						rects = append(rects, atlasRect{w: r.w, h: r.h})
					}
				}
			}
		}
	}

	if len(refs) == 0 {
		out := make([]MeshChunk, len(metas))
		for i, meta := range metas {
			out[i] = MeshChunk{UniqueID: meta.UniqueID, InnerBBox: meta.InnerBBox, TotalBBox: meta.TotalBBox, Mesh: mesh.New(model.Name)}
		}
		return out
	}

	placements, atlasW, atlasH := packAtlas(rects)
	diffuse := texture.New(atlasW, atlasH)
	var emission *texture.Texture
	palette := model.Textures[texture.TypePalette]

	for i, ref := range refs {
		mat := model.MaterialFor(voxel.New(ref.key.materialID, 0, false))
		fillRect(diffuse, placements[i], rects[i], paletteColor(palette, ref.key.colorID))
		if mat.EmissionPower > 0 {
			if emission == nil {
				emission = texture.New(atlasW, atlasH)
			}
			fillRect(emission, placements[i], rects[i], paletteColor(palette, ref.key.colorID))
		}
	}

	// Shelf packing has no upper bound on atlas size; cap it so a model with
	// an extreme quad count still produces a texture a GPU can sample.
	if atlasW > maxAtlasDim || atlasH > maxAtlasDim {
		diffuse = texture.Downscale(diffuse, maxAtlasDim, maxAtlasDim)
		if emission != nil {
			emission = texture.Downscale(emission, maxAtlasDim, maxAtlasDim)
		}
	}

	meshes := make([]*mesh.Mesh, len(metas))
	builders := make([]map[string]*mesh.Builder, len(metas))
	for i, meta := range metas {
		meshes[i] = mesh.New(model.Name)
		meshes[i].Textures[texture.TypeAtlas] = diffuse
		if emission != nil {
			meshes[i].Textures[texture.TypeEmission] = emission
		}
		builders[i] = make(map[string]*mesh.Builder)
	}
	builderFor := func(ci int, matIdx uint8) *mesh.Builder {
		mat := model.MaterialFor(voxel.New(matIdx, 0, false))
		b, ok := builders[ci][mat.Handle()]
		if !ok {
			b = mesh.NewBuilder(meshes[ci], mat, opts.ceiling())
			builders[ci][mat.Handle()] = b
		}
		return b
	}

	for i, ref := range refs {
		corners := faceCorners(ref.axis, ref.positive, ref.planeK, ref.rl1, ref.rh1, ref.rl2, ref.rh2)
		normal := axisNormal(ref.axis, ref.positive)
		params := quadParams(ref.positive)
		pl := placements[i]

		var verts [4]mesh.Vertex
		for j, corner := range corners {
			world := corner.Add(ref.meta.Origin)
			u := (float32(pl.x) + params[j][0]*float32(rects[i].w)) / float32(atlasW)
			v := (float32(pl.y) + params[j][1]*float32(rects[i].h)) / float32(atlasH)
			verts[j] = mesh.Vertex{
				Pos:    mgl32.Vec3{float32(world.X), float32(world.Y), float32(world.Z)},
				Normal: normal,
				UV:     mgl32.Vec2{u, v},
			}
		}
		builderFor(ref.chunkIdx, ref.key.materialID).AppendQuad(verts[0], verts[1], verts[2], verts[3])
	}

	out := make([]MeshChunk, len(metas))
	for i, meta := range metas {
		out[i] = MeshChunk{UniqueID: meta.UniqueID, InnerBBox: meta.InnerBBox, TotalBBox: meta.TotalBBox, Mesh: meshes[i]}
	}
	return out
}

func paletteColor(t *texture.Texture, colorID uint8) uint32 {
	if t == nil {
		return 0
	}
	return t.GetPixel(int(colorID), 0)
}

func fillRect(t *texture.Texture, at atlasPlacement, r atlasRect, packed uint32) {
	for y := 0; y < r.h; y++ {
		for x := 0; x < r.w; x++ {
			t.SetPixel(at.x+x, at.y+y, packed)
		}
	}
}
