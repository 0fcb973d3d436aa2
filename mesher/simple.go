package mesher

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// Simple is the per-face mesher from spec.md §4.3.1: one unit quad per
// visible face, no merging.
type Simple struct{}

var _ Mesher = Simple{}

func (Simple) Chunks(model *voxelmodel.Model, opts Options) []MeshChunk {
	return dispatch(model, opts, simpleChunk)
}

func (Simple) FullMesh(model *voxelmodel.Model, opts Options) *mesh.Mesh {
	return mergeAll(model.Name, Simple{}.Chunks(model, opts))
}

func simpleChunk(model *voxelmodel.Model, meta voxelspace.ChunkMeta, opts Options) *mesh.Mesh {
	m := mesh.New(model.Name)
	byMaterial := make(map[string]*mesh.Builder)
	paletteW := paletteWidth(model)

	inner := meta.Chunk.InnerBBox()
	if inner.Empty() {
		return m
	}

	for z := inner.Beg.Z; z < inner.End.Z; z++ {
		for y := inner.Beg.Y; y < inner.End.Y; y++ {
			for x := inner.Beg.X; x < inner.End.X; x++ {
				rel := vecmath.Vec3i{X: x, Y: y, Z: z}
				cell := meta.Chunk.At(rel)
				if !cell.Visible() {
					continue
				}
				mat := model.MaterialFor(cell)
				b, ok := byMaterial[mat.Handle()]
				if !ok {
					b = mesh.NewBuilder(m, mat, opts.ceiling())
					byMaterial[mat.Handle()] = b
				}

				world := rel.Add(meta.Origin)
				u, v := colorUV(cell.ColorIndex, paletteW)

				for axis := 0; axis < 3; axis++ {
					for _, positive := range [2]bool{true, false} {
						bit := faceBit(axis, positive)
						if cell.VisibilityMask&bit == 0 {
							continue
						}
						k := world.Get(axis)
						if positive {
							k++
						}
						a1 := (axis + 1) % 3
						a2 := (axis + 2) % 3
						lo1, lo2 := world.Get(a1), world.Get(a2)
						corners := faceCorners(axis, positive, k, lo1, lo1+1, lo2, lo2+1)
						normal := axisNormal(axis, positive)

						var verts [4]mesh.Vertex
						for i, c := range corners {
							verts[i] = mesh.Vertex{
								Pos:    mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)},
								Normal: normal,
								UV:     mgl32.Vec2{u, v},
							}
						}
						b.AppendQuad(verts[0], verts[1], verts[2], verts[3])
					}
				}
			}
		}
	}

	return m
}
