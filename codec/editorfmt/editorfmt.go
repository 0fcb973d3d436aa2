// Package editorfmt implements the round-trip "VEDIT" native format from
// spec.md §6: typed sections with typed key/value dictionaries, Adler-32
// key dispatch, and a zlib-compressed voxel section. Unlike the import-only
// codecs this is the only format this package both reads and writes.
package editorfmt

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/adler32"
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
	magic          = "VEDIT"
	formatVersion  = int32(1)
	versionStrSize = 23
)

type sectionType int32

const (
	secMeta sectionType = iota
	secMaterial
	secColorPalette
	secVoxels
	secSceneTree
	secTexturePlanes
)

type valueKind byte

const (
	kindString valueKind = iota
	kindFloat
	kindInt32
	kindUint32
	kindVector3i
)

type value struct {
	Kind valueKind
	Str  string
	F    float32
	I32  int32
	U32  uint32
	Vec  vecmath.Vec3i
}

// Key hashes used as the dispatch switch on read, per spec.md's "hash
// lookup of keys uses Adler-32". Computed once from the literal key names
// below; see DESIGN.md for how these constants were derived.
const (
	hName           = 0x041e01a2 // "name"
	hMetallic       = 0x0ef9034c // "metallic"
	hRoughness      = 0x136803df // "roughness"
	hIOR            = 0x028e014b // "ior"
	hSpecular       = 0x0f490360 // "specular"
	hEmission       = 0x0f330368 // "emission"
	hTransparency   = 0x214f051b // "transparency"
	hPivot          = 0x068d0233 // "pivot"
	hFrameDuration  = 0x2b2b05d1 // "frame_duration"
	hProgramVersion = 0x32f4065e // "program_version"
)

func keyHash(key string) uint32 { return adler32.Checksum([]byte(key)) }

// Parsed is the round-trip intermediate representation.
type Parsed struct {
	Name           string
	ProgramVersion string
	Pivot          vecmath.Vec3i
	FrameDuration  uint32
	Materials      []*material.Material
	Palette        []uint32 // packed RGBA
	Voxels         []voxelRecord
	SceneName      string
	TexturePlanes  map[texture.Type]*texture.Texture
}

type voxelRecord struct {
	Pos            vecmath.Vec3i
	MaterialIdx    uint32
	ColorIdx       uint32
	VisibilityMask uint8
}

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 5 && string(header[:5]) == magic
}

// --- dictionary entry encode/decode -----------------------------------

func writeEntry(w *bytes.Buffer, key string, v value) {
	writeString(w, key)
	w.WriteByte(byte(v.Kind))
	switch v.Kind {
	case kindString:
		writeString(w, v.Str)
	case kindFloat:
		binary.Write(w, binary.LittleEndian, v.F)
	case kindInt32:
		binary.Write(w, binary.LittleEndian, v.I32)
	case kindUint32:
		binary.Write(w, binary.LittleEndian, v.U32)
	case kindVector3i:
		binary.Write(w, binary.LittleEndian, int32(v.Vec.X))
		binary.Write(w, binary.LittleEndian, int32(v.Vec.Y))
		binary.Write(w, binary.LittleEndian, int32(v.Vec.Z))
	}
}

func writeString(w *bytes.Buffer, s string) {
	binary.Write(w, binary.LittleEndian, uint32(len(s)))
	w.WriteString(s)
}

// readDict reads entries from r until it is exhausted, returning a map
// keyed by the Adler-32 hash of each entry's key — the "hash lookup ...
// as a dispatch switch" spec.md calls for.
func readDict(r *bytes.Reader) (map[uint32]value, error) {
	out := make(map[uint32]value)
	for r.Len() > 0 {
		var keyLen uint32
		if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
			return nil, err
		}
		keyBuf := make([]byte, keyLen)
		if _, err := io.ReadFull(r, keyBuf); err != nil {
			return nil, err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var v value
		v.Kind = valueKind(kindByte)
		switch v.Kind {
		case kindString:
			var n uint32
			if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
				return nil, err
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			v.Str = string(buf)
		case kindFloat:
			if err := binary.Read(r, binary.LittleEndian, &v.F); err != nil {
				return nil, err
			}
		case kindInt32:
			if err := binary.Read(r, binary.LittleEndian, &v.I32); err != nil {
				return nil, err
			}
		case kindUint32:
			if err := binary.Read(r, binary.LittleEndian, &v.U32); err != nil {
				return nil, err
			}
		case kindVector3i:
			var x, y, z int32
			binary.Read(r, binary.LittleEndian, &x)
			binary.Read(r, binary.LittleEndian, &y)
			if err := binary.Read(r, binary.LittleEndian, &z); err != nil {
				return nil, err
			}
			v.Vec = vecmath.Vec3i{X: int(x), Y: int(y), Z: int(z)}
		default:
			return nil, fmt.Errorf("editorfmt: unknown value kind %d", kindByte)
		}
		out[keyHash(string(keyBuf))] = v
	}
	return out, nil
}

// --- section framing ----------------------------------------------------

func readSectionHeader(r io.Reader) (sectionType, uint32, error) {
	var typ int32
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return 0, 0, err
	}
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, 0, err
	}
	return sectionType(typ), size, nil
}

func (Codec) Load(r io.Reader) (any, error) {
	const op = "editorfmt.Load"
	var sig [5]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading signature", err)
	}
	if string(sig[:]) != magic {
		return nil, voxerr.New(voxerr.FormatUnknown, op, "missing \"VEDIT\" signature")
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading version", err)
	}
	if version != formatVersion {
		return nil, voxerr.New(voxerr.VersionUnsupported, op, fmt.Sprintf("version %d unsupported", version))
	}
	var progVersion [versionStrSize]byte
	if _, err := io.ReadFull(r, progVersion[:]); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading program version string", err)
	}

	p := &Parsed{ProgramVersion: trimNulls(progVersion[:]), TexturePlanes: make(map[texture.Type]*texture.Texture)}

	for {
		typ, size, err := readSectionHeader(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, voxerr.Wrap(voxerr.Io, op, "reading section header", err)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading section payload", err)
		}
		if err := decodeSection(p, typ, payload); err != nil {
			return nil, voxerr.Wrap(voxerr.Parse, op, fmt.Sprintf("decoding section %d", typ), err)
		}
	}
	return p, nil
}

func trimNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func decodeSection(p *Parsed, typ sectionType, payload []byte) error {
	switch typ {
	case secMeta:
		dict, err := readDict(bytes.NewReader(payload))
		if err != nil {
			return err
		}
		if v, ok := dict[hName]; ok {
			p.Name = v.Str
		}
		if v, ok := dict[hPivot]; ok {
			p.Pivot = v.Vec
		}
		if v, ok := dict[hFrameDuration]; ok {
			p.FrameDuration = v.U32
		}
	case secMaterial:
		r := bytes.NewReader(payload)
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			var dictLen uint32
			if err := binary.Read(r, binary.LittleEndian, &dictLen); err != nil {
				return err
			}
			buf := make([]byte, dictLen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			dict, err := readDict(bytes.NewReader(buf))
			if err != nil {
				return err
			}
			m := material.New()
			if v, ok := dict[hMetallic]; ok {
				m.Metallic = v.F
			}
			if v, ok := dict[hRoughness]; ok {
				m.Roughness = v.F
			}
			if v, ok := dict[hIOR]; ok {
				m.IOR = v.F
			}
			if v, ok := dict[hSpecular]; ok {
				m.Specular = v.F
			}
			if v, ok := dict[hEmission]; ok {
				m.EmissionPower = v.F
			}
			if v, ok := dict[hTransparency]; ok {
				m.Transparency = v.F
			}
			p.Materials = append(p.Materials, m)
		}
	case secColorPalette:
		r := bytes.NewReader(payload)
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			var packed uint32
			if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
				return err
			}
			p.Palette = append(p.Palette, packed)
		}
	case secVoxels:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer zr.Close()
		var count uint32
		if err := binary.Read(zr, binary.LittleEndian, &count); err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			var x, y, z int32
			var matIdx, colorIdx uint32
			var vis uint8
			var reservedType, reservedProps uint32
			if err := binary.Read(zr, binary.LittleEndian, &x); err != nil {
				return err
			}
			binary.Read(zr, binary.LittleEndian, &y)
			binary.Read(zr, binary.LittleEndian, &z)
			binary.Read(zr, binary.LittleEndian, &matIdx)
			binary.Read(zr, binary.LittleEndian, &colorIdx)
			binary.Read(zr, binary.LittleEndian, &vis)
			binary.Read(zr, binary.LittleEndian, &reservedType)
			if err := binary.Read(zr, binary.LittleEndian, &reservedProps); err != nil {
				return err
			}
			p.Voxels = append(p.Voxels, voxelRecord{
				Pos:            vecmath.Vec3i{X: int(x), Y: int(y), Z: int(z)},
				MaterialIdx:    matIdx,
				ColorIdx:       colorIdx,
				VisibilityMask: vis,
			})
		}
	case secSceneTree:
		dict, err := readDict(bytes.NewReader(payload))
		if err != nil {
			return err
		}
		if v, ok := dict[hName]; ok {
			p.SceneName = v.Str
		}
	case secTexturePlanes:
		r := bytes.NewReader(payload)
		for r.Len() > 0 {
			var typeTag, w, h uint32
			if err := binary.Read(r, binary.LittleEndian, &typeTag); err != nil {
				break
			}
			binary.Read(r, binary.LittleEndian, &w)
			if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
				break
			}
			tex := texture.New(int(w), int(h))
			for y := 0; y < int(h); y++ {
				for x := 0; x < int(w); x++ {
					var px uint32
					if err := binary.Read(r, binary.LittleEndian, &px); err != nil {
						return err
					}
					tex.SetPixel(x, y, px)
				}
			}
			p.TexturePlanes[texture.Type(typeTag)] = tex
		}
	}
	return nil
}

// Save writes a Model back out in VEDIT form: one META, one MATERIAL list,
// one COLORPALETTE (the model's palette texture flattened), a zlib-
// compressed VOXELS section, a flat SCENE_TREE record, and a
// TEXTURE_PLANES section for any non-palette textures the model carries.
func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	const op = "editorfmt.Save"
	if _, err := io.WriteString(w, magic); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing signature", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing version", err)
	}
	var progVersion [versionStrSize]byte
	copy(progVersion[:], "voxelcore")
	if _, err := w.Write(progVersion[:]); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing program version", err)
	}

	if err := writeSection(w, secMeta, encodeMeta(model)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing META section", err)
	}
	if err := writeSection(w, secMaterial, encodeMaterials(model.Materials)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing MATERIAL section", err)
	}
	if err := writeSection(w, secColorPalette, encodePalette(model)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing COLORPALETTE section", err)
	}
	voxelsPayload, err := encodeVoxels(model)
	if err != nil {
		return voxerr.Wrap(voxerr.Io, op, "compressing VOXELS section", err)
	}
	if err := writeSection(w, secVoxels, voxelsPayload); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing VOXELS section", err)
	}
	if err := writeSection(w, secSceneTree, encodeSceneTree(model)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing SCENE_TREE section", err)
	}
	if err := writeSection(w, secTexturePlanes, encodeTexturePlanes(model)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing TEXTURE_PLANES section", err)
	}
	return nil
}

func writeSection(w io.Writer, typ sectionType, payload []byte) error {
	if err := binary.Write(w, binary.LittleEndian, int32(typ)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func encodeMeta(model *voxelmodel.Model) []byte {
	var buf bytes.Buffer
	writeEntry(&buf, "name", value{Kind: kindString, Str: model.Name})
	writeEntry(&buf, "pivot", value{Kind: kindVector3i, Vec: model.Pivot})
	writeEntry(&buf, "frame_duration", value{Kind: kindUint32, U32: model.FrameDurationMS})
	return buf.Bytes()
}

func encodeMaterials(mats []*material.Material) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(mats)))
	for _, m := range mats {
		var d bytes.Buffer
		writeEntry(&d, "metallic", value{Kind: kindFloat, F: m.Metallic})
		writeEntry(&d, "roughness", value{Kind: kindFloat, F: m.Roughness})
		writeEntry(&d, "ior", value{Kind: kindFloat, F: m.IOR})
		writeEntry(&d, "specular", value{Kind: kindFloat, F: m.Specular})
		writeEntry(&d, "emission", value{Kind: kindFloat, F: m.EmissionPower})
		writeEntry(&d, "transparency", value{Kind: kindFloat, F: m.Transparency})
		binary.Write(&buf, binary.LittleEndian, uint32(d.Len()))
		buf.Write(d.Bytes())
	}
	return buf.Bytes()
}

func encodePalette(model *voxelmodel.Model) []byte {
	var buf bytes.Buffer
	pal := model.Textures[texture.TypePalette]
	var pixels []uint32
	if pal != nil {
		pixels = pal.Pixels()
	}
	binary.Write(&buf, binary.LittleEndian, uint32(len(pixels)))
	for _, px := range pixels {
		binary.Write(&buf, binary.LittleEndian, px)
	}
	return buf.Bytes()
}

func encodeVoxels(model *voxelmodel.Model) ([]byte, error) {
	var raw bytes.Buffer
	var records []voxelRecord
	for _, meta := range model.Space.QueryChunks(nil) {
		inner := meta.Chunk.InnerBBox()
		if inner.Empty() {
			continue
		}
		for z := inner.Beg.Z; z < inner.End.Z; z++ {
			for y := inner.Beg.Y; y < inner.End.Y; y++ {
				for x := inner.Beg.X; x < inner.End.X; x++ {
					rel := vecmath.Vec3i{X: x, Y: y, Z: z}
					cell := meta.Chunk.At(rel)
					if !cell.Instantiated() {
						continue
					}
					world := rel.Add(meta.Origin)
					records = append(records, voxelRecord{
						Pos:            world,
						MaterialIdx:    uint32(cell.MaterialIndex),
						ColorIdx:       uint32(cell.ColorIndex),
						VisibilityMask: cell.VisibilityMask,
					})
				}
			}
		}
	}
	binary.Write(&raw, binary.LittleEndian, uint32(len(records)))
	for _, rec := range records {
		binary.Write(&raw, binary.LittleEndian, int32(rec.Pos.X))
		binary.Write(&raw, binary.LittleEndian, int32(rec.Pos.Y))
		binary.Write(&raw, binary.LittleEndian, int32(rec.Pos.Z))
		binary.Write(&raw, binary.LittleEndian, rec.MaterialIdx)
		binary.Write(&raw, binary.LittleEndian, rec.ColorIdx)
		binary.Write(&raw, binary.LittleEndian, rec.VisibilityMask)
		binary.Write(&raw, binary.LittleEndian, uint32(0)) // reserved_type
		binary.Write(&raw, binary.LittleEndian, uint32(0)) // reserved_properties
	}

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, 6)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}

func encodeSceneTree(model *voxelmodel.Model) []byte {
	var buf bytes.Buffer
	writeEntry(&buf, "name", value{Kind: kindString, Str: model.Name})
	return buf.Bytes()
}

func encodeTexturePlanes(model *voxelmodel.Model) []byte {
	var buf bytes.Buffer
	for typ, tex := range model.Textures {
		if typ == texture.TypePalette || tex == nil {
			continue
		}
		w, h := tex.Size()
		binary.Write(&buf, binary.LittleEndian, uint32(typ))
		binary.Write(&buf, binary.LittleEndian, uint32(w))
		binary.Write(&buf, binary.LittleEndian, uint32(h))
		for _, px := range tex.Pixels() {
			binary.Write(&buf, binary.LittleEndian, px)
		}
	}
	return buf.Bytes()
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	p, ok := parsed.(*Parsed)
	if !ok {
		return nil, voxerr.New(voxerr.InvalidArgument, "editorfmt.GenerateChunks", "not an editorfmt.Parsed value")
	}

	out := voxelmodel.New(p.Name)
	out.Pivot = p.Pivot
	out.FrameDurationMS = p.FrameDuration
	out.Materials = p.Materials

	palette := texture.New(len(p.Palette), 1)
	for i, c := range p.Palette {
		palette.SetPixel(i, 0, c)
	}
	out.Textures[texture.TypePalette] = palette
	for typ, tex := range p.TexturePlanes {
		out.Textures[typ] = tex
	}

	for _, rec := range p.Voxels {
		transparent := int(rec.MaterialIdx) < len(out.Materials) && out.Materials[rec.MaterialIdx] != nil && out.Materials[rec.MaterialIdx].Transparency > 0
		cell := voxel.New(uint8(rec.MaterialIdx), uint8(rec.ColorIdx), transparent)
		out.Space.Insert(rec.Pos, cell)
	}
	return out, nil
}

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	p, ok := parsed.(*Parsed)
	root := scene.NewNode(model.Name)
	root.SetModel(model)
	if ok && p.SceneName != "" {
		root = scene.NewNode(p.SceneName)
		root.SetModel(model)
	}
	return root
}
