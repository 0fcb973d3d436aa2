// Package gox implements the Goxel .gox importer from spec.md §6: a
// PNG-chunked container (BL16 16x16x16 blocks stored as a 256x256
// PNG-in-RGBA image, LAYR block placement + material reference, MATE
// material records), with the same y-up handedness conversion as the
// MagicaVoxel importer. Grounded on original_source's GoxelFormat.cpp.
package gox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

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

const magic = "GOX "
const wantVersion = 2

// block16 is one decoded BL16 16x16x16 voxel block, stored as packed RGBA.
type block16 struct {
	pixels [16 * 16 * 16]uint32 // indexed z*256 + y*16 + x, 0 => empty
}

type blockPlacement struct {
	BlockIndex int
	Pos        vecmath.Vec3i
}

type layer struct {
	Name      string
	MatIndex  int
	Blocks    []blockPlacement
}

type materialRec struct {
	Color                          [4]float32
	Metallic, Roughness, Emission float32
}

// Parsed is the intermediate representation returned by Load.
type Parsed struct {
	Blocks    []block16
	Layers    []layer
	Materials []materialRec
}

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 4 && string(header[:4]) == magic
}

func (Codec) Load(r io.Reader) (any, error) {
	const op = "gox.Load"
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading signature", err)
	}
	if string(sig[:]) != magic {
		return nil, voxerr.New(voxerr.FormatUnknown, op, "missing \"GOX \" signature")
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading version", err)
	}
	if version != wantVersion {
		return nil, voxerr.New(voxerr.VersionUnsupported, op, fmt.Sprintf("version %d unsupported (need %d)", version, wantVersion))
	}

	p := &Parsed{}
	for {
		var chType [4]byte
		if _, err := io.ReadFull(r, chType[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk type", err)
		}
		var size int32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk size", err)
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk body", err)
		}
		var crc [4]byte
		if _, err := io.ReadFull(r, crc[:]); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk crc", err)
		}

		var err error
		switch string(chType[:]) {
		case "BL16":
			err = processBL16(p, data)
		case "LAYR":
			err = processLayer(p, data)
		case "MATE":
			err = processMaterial(p, data)
		}
		if err != nil {
			return nil, voxerr.Wrap(voxerr.Parse, op, "processing "+string(chType[:])+" chunk", err)
		}
	}
	return p, nil
}

func readDict(data []byte) map[string][]byte {
	res := make(map[string][]byte)
	for len(data) >= 4 {
		keyLen := int(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		if len(data) < keyLen {
			break
		}
		key := string(data[:keyLen])
		data = data[keyLen:]
		if len(data) < 4 {
			break
		}
		valLen := int(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		if len(data) < valLen {
			break
		}
		res[key] = data[:valLen]
		data = data[valLen:]
	}
	return res
}

func float32At(b []byte) float32 {
	if len(b) < 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func processBL16(p *Parsed, data []byte) error {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	var blk block16
	bounds := img.Bounds()
	for z := 0; z < 16; z++ {
		// 256x256 image arranged as a 16x16 grid of 16x16 z-slice tiles.
		tileX := (z % 16) * 16
		tileY := (z / 16) * 16
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				px := bounds.Min.X + tileX + x
				py := bounds.Min.Y + tileY + y
				if px >= bounds.Max.X || py >= bounds.Max.Y {
					continue
				}
				r, g, b, a := img.At(px, py).RGBA()
				c := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
				if c.A == 0 {
					continue
				}
				blk.pixels[z*256+y*16+x] = uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
			}
		}
	}
	p.Blocks = append(p.Blocks, blk)
	return nil
}

func processLayer(p *Parsed, data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("LAYR chunk too small")
	}
	count := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]

	var l layer
	for i := 0; i < count; i++ {
		if len(data) < 20 {
			return fmt.Errorf("LAYR block entry truncated")
		}
		idx := int(int32(binary.LittleEndian.Uint32(data[0:4])))
		x := int(int32(binary.LittleEndian.Uint32(data[4:8])))
		y := int(int32(binary.LittleEndian.Uint32(data[8:12])))
		z := int(int32(binary.LittleEndian.Uint32(data[12:16])))
		data = data[20:] // 4 reserved bytes follow position
		l.Blocks = append(l.Blocks, blockPlacement{BlockIndex: idx, Pos: vecmath.Vec3i{X: x, Y: y, Z: z}})
	}

	dict := readDict(data)
	if v, ok := dict["material"]; ok && len(v) >= 4 {
		l.MatIndex = int(int32(binary.LittleEndian.Uint32(v)))
	}
	if v, ok := dict["name"]; ok {
		l.Name = string(v)
	}
	p.Layers = append(p.Layers, l)
	return nil
}

func processMaterial(p *Parsed, data []byte) error {
	dict := readDict(data)
	var m materialRec
	if v, ok := dict["color"]; ok && len(v) >= 16 {
		for i := 0; i < 4; i++ {
			m.Color[i] = float32At(v[i*4:])
		}
	}
	m.Metallic = float32At(dict["metallic"])
	m.Roughness = float32At(dict["roughness"])
	m.Emission = float32At(dict["emission"])
	p.Materials = append(p.Materials, m)
	return nil
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	return voxerr.New(voxerr.InvalidArgument, "gox.Save", "Goxel .gox is import-only")
}

// GenerateChunks builds one VoxelModel from every layer's blocks, converting
// each block's local voxel to world space and applying the same z-up ->
// y-up, x-mirrored handedness conversion the MagicaVoxel importer uses.
func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	p, ok := parsed.(*Parsed)
	if !ok {
		return nil, voxerr.New(voxerr.InvalidArgument, "gox.GenerateChunks", "not a gox.Parsed value")
	}

	out := voxelmodel.New("gox")
	colorIdx := make(map[uint32]uint8)
	palette := texture.New(0, 1)

	for _, mr := range p.Materials {
		m := material.New()
		m.Metallic = mr.Metallic
		m.Roughness = mr.Roughness
		m.EmissionPower = mr.Emission
		m.Transparency = 1 - mr.Color[3]
		out.Materials = append(out.Materials, m)
	}

	for _, l := range p.Layers {
		for _, bp := range l.Blocks {
			if bp.BlockIndex < 0 || bp.BlockIndex >= len(p.Blocks) {
				continue
			}
			blk := p.Blocks[bp.BlockIndex]
			for z := 0; z < 16; z++ {
				for y := 0; y < 16; y++ {
					for x := 0; x < 16; x++ {
						packed := blk.pixels[z*256+y*16+x]
						if packed == 0 {
							continue
						}
						idx, ok := colorIdx[packed]
						if !ok {
							idx = uint8(len(colorIdx))
							colorIdx[packed] = idx
							palette.AddPixel(packed)
						}
						local := vecmath.Vec3i{X: bp.Pos.X + x, Y: bp.Pos.Y + y, Z: bp.Pos.Z + z}
						wp := vecmath.Vec3i{X: -local.X, Y: local.Z, Z: local.Y}
						transparent := l.MatIndex >= 0 && l.MatIndex < len(p.Materials) && p.Materials[l.MatIndex].Color[3] < 1
						cell := voxel.New(uint8(l.MatIndex), idx, transparent)
						out.Space.Insert(wp, cell)
					}
				}
			}
		}
	}

	out.Textures[texture.TypePalette] = palette
	return out, nil
}

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	return codec.DefaultGenerateScene(model)
}
