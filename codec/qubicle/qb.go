// Package qubicle implements the Qubicle Binary (.qb) importer from
// spec.md §6: a header describing color format/axis orientation/RLE
// compression, followed by one matrix per named voxel region. Grounded on
// original_source's QubicleBinaryFormat.cpp.
package qubicle

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/voxforge/voxelcore/codec"
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/texture"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxerr"
)

const (
	codeFlag       uint32 = 2
	nextSliceFlag  uint32 = 6
)

type header struct {
	Version          [4]byte
	ColorFormat      int32 // 0 = RGBA, 1 = BGRA
	ZAxisOrientation int32 // 0 = left-handed, 1 = right-handed
	Compression      int32 // 0 = uncompressed, 1 = RLE
	VisibilityMask   int32
	MatrixCount      int32
}

type matrix struct {
	Name     string
	Size     vecmath.Vec3i
	Position vecmath.Vec3i
	Voxels   map[vecmath.Vec3i]uint8 // local position -> palette color index
}

// Parsed is the intermediate representation returned by Load.
type Parsed struct {
	Header   header
	Matrices []matrix
	Palette  []uint32 // packed RGBA, append-order == color index
}

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 4 && header[0] == 1 && header[1] == 1 && header[2] == 0 && header[3] == 0
}

type reader struct {
	r   io.Reader
	err error
}

func (rd *reader) u8() uint8 {
	var b [1]byte
	rd.read(b[:])
	return b[0]
}

func (rd *reader) i32() int32 {
	var b [4]byte
	rd.read(b[:])
	return int32(binary.LittleEndian.Uint32(b[:]))
}

func (rd *reader) u32() uint32 {
	var b [4]byte
	rd.read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (rd *reader) bytes(n int) []byte {
	b := make([]byte, n)
	rd.read(b)
	return b
}

func (rd *reader) read(b []byte) {
	if rd.err != nil {
		return
	}
	_, rd.err = io.ReadFull(rd.r, b)
}

// readVector mirrors the original's ReadVector: three ints are read in file
// order (x, z, y) and reassembled into a y-up vector.
func (rd *reader) readVector() vecmath.Vec3i {
	x := int(rd.i32())
	z := int(rd.i32())
	y := int(rd.i32())
	return vecmath.Vec3i{X: x, Y: y, Z: z}
}

func (Codec) Load(r io.Reader) (any, error) {
	const op = "qubicle.Load"
	rd := &reader{r: r}

	var h header
	h.Version = [4]byte{rd.u8(), rd.u8(), rd.u8(), rd.u8()}
	h.ColorFormat = rd.i32()
	h.ZAxisOrientation = rd.i32()
	h.Compression = rd.i32()
	h.VisibilityMask = rd.i32()
	h.MatrixCount = rd.i32()
	if rd.err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading header", rd.err)
	}
	if h.Version != [4]byte{1, 1, 0, 0} {
		return nil, voxerr.New(voxerr.VersionUnsupported, op, fmt.Sprintf("version %d.%d.%d.%d is not supported", h.Version[0], h.Version[1], h.Version[2], h.Version[3]))
	}

	p := &Parsed{Header: h}
	colorIdx := make(map[uint32]uint8)

	for i := int32(0); i < h.MatrixCount; i++ {
		nameLen := rd.u8()
		name := string(rd.bytes(int(nameLen)))
		size := rd.readVector()
		pos := rd.readVector()
		if rd.err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading matrix header", rd.err)
		}

		half := vecmath.Vec3i{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2}
		pos = pos.Add(half)
		pos.Y, pos.Z = pos.Z, pos.Y
		if h.ZAxisOrientation == 1 {
			pos.Z = -pos.Z
		}

		m := matrix{Name: name, Size: size, Position: pos, Voxels: make(map[vecmath.Vec3i]uint8)}

		colorOf := func(packed uint32) (idx uint8, visible bool) {
			a := uint8(packed >> 24)
			if h.ColorFormat == 1 {
				// BGRA on the wire; repack to RGBA before dedup.
				b := uint8(packed)
				g := uint8(packed >> 8)
				rr := uint8(packed >> 16)
				packed = uint32(rr) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
			}
			if a == 0 {
				return 0, false
			}
			opaque := packed | 0xFF000000
			if existing, ok := colorIdx[opaque]; ok {
				return existing, true
			}
			idx = uint8(len(p.Palette))
			colorIdx[opaque] = idx
			p.Palette = append(p.Palette, opaque)
			return idx, true
		}

		if h.Compression == 0 {
			for z := 0; z < size.Y; z++ {
				for y := 0; y < size.Z; y++ {
					for x := 0; x < size.X; x++ {
						c := rd.u32()
						idx, visible := colorOf(c)
						if !visible {
							continue
						}
						ly := z
						if h.ZAxisOrientation == 0 {
							ly = size.Y - 1 - z
						}
						m.Voxels[vecmath.Vec3i{X: x, Y: ly, Z: y}] = idx
					}
				}
			}
		} else {
			for z := 0; z < size.Y; z++ {
				index := 0
				for {
					data := rd.u32()
					if rd.err != nil {
						return nil, voxerr.Wrap(voxerr.Io, op, "reading RLE stream", rd.err)
					}
					if data == nextSliceFlag {
						break
					}
					count := 1
					if data == codeFlag {
						count = int(rd.u32())
						data = rd.u32()
					}
					for n := 0; n < count; n++ {
						x := index % size.X
						y := index / size.X
						index++
						idx, visible := colorOf(data)
						if !visible {
							continue
						}
						ly := z
						if h.ZAxisOrientation == 0 {
							ly = size.Y - 1 - z
						}
						m.Voxels[vecmath.Vec3i{X: x, Y: ly, Z: y}] = idx
					}
				}
			}
		}
		p.Matrices = append(p.Matrices, m)
	}
	return p, nil
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	return voxerr.New(voxerr.InvalidArgument, "qubicle.Save", "Qubicle Binary import is one-way in this package")
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	p, ok := parsed.(*Parsed)
	if !ok {
		return nil, voxerr.New(voxerr.InvalidArgument, "qubicle.GenerateChunks", "not a qubicle.Parsed value")
	}

	out := voxelmodel.New("qubicle")
	out.Materials = []*material.Material{material.Default()}

	palette := texture.New(len(p.Palette), 1)
	for i, c := range p.Palette {
		palette.SetPixel(i, 0, c)
	}
	out.Textures[texture.TypePalette] = palette

	for _, m := range p.Matrices {
		for local, colorIdx := range m.Voxels {
			wp := local.Add(m.Position)
			out.Space.Insert(wp, voxel.New(0, colorIdx, false))
		}
	}
	return out, nil
}

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	p, ok := parsed.(*Parsed)
	if !ok || len(p.Matrices) <= 1 {
		return codec.DefaultGenerateScene(model)
	}
	root := scene.NewNode("qubicle-scene")
	root.SetModel(model)
	return root
}
