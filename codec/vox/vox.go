// Package vox implements the MagicaVoxel .vox importer from spec.md §6:
// chunk-tree parsing (SIZE/XYZI/RGBA/MATL/PACK/nTRN/nGRP/nSHP), palette and
// material resolution, and the scene-graph flattening and coordinate
// conversion (source up-axis z -> right-handed y-up, x mirrored) that turns
// a parsed file into a VoxelModel and SceneNode tree. Grounded on the
// teacher's chunk-reader loop and node/material parsing.
package vox

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

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

var _ codec.Codec = Codec{}

const magic = "VOX "
const minVersion = 150

type voxel3 struct {
	X, Y, Z    uint8
	ColorIndex uint8
}

type model struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []voxel3
}

type nodeType int

const (
	nodeTransform nodeType = iota
	nodeGroup
	nodeShape
)

type transformFrame struct {
	Rotation byte
	Trans    [3]float32
}

type shapeModel struct {
	ModelID int
}

type node struct {
	ID          int
	Type        nodeType
	ChildID     int
	LayerID     int
	Frames      []transformFrame
	ChildrenIDs []int
	Models      []shapeModel
}

type parsedMaterial struct {
	PaletteIndex int // 1-based palette index this material applies to
	Type         string
	Metal        float32
	Alpha        float32
	Rough        float32
	Spec         float32
	IOR          float32
	Flux         float32
}

// Parsed is the intermediate representation returned by Load.
type Parsed struct {
	Version   int
	Models    []model
	Palette   [256][4]uint8 // index 0 unused; MagicaVoxel palette indices are 1-based
	Materials []parsedMaterial
	Nodes     map[int]node
	RootID    int
}

type Codec struct{}

func New() *Codec { return &Codec{} }

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 4 && string(header[:4]) == magic
}

func (Codec) Load(r io.Reader) (any, error) {
	const op = "vox.Load"

	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading signature", err)
	}
	if string(hdr[:]) != magic {
		return nil, voxerr.New(voxerr.FormatUnknown, op, "missing \"VOX \" signature")
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, voxerr.Wrap(voxerr.Io, op, "reading version", err)
	}
	if version < minVersion {
		return nil, voxerr.New(voxerr.VersionUnsupported, op, fmt.Sprintf("version %d unsupported (need >= %d)", version, minVersion))
	}

	p := &Parsed{
		Version: int(version),
		Palette: defaultPalette(),
		Nodes:   make(map[int]node),
	}
	currentModel := -1

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk id", err)
		}
		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk size", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading children size", err)
		}
		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, voxerr.Wrap(voxerr.Io, op, "reading chunk body", err)
		}

		switch string(chunkID[:]) {
		case "MAIN":
			continue
		case "SIZE":
			if len(data) < 12 {
				return nil, voxerr.New(voxerr.Parse, op, "SIZE chunk too small")
			}
			currentModel++
			for currentModel >= len(p.Models) {
				p.Models = append(p.Models, model{})
			}
			m := &p.Models[currentModel]
			m.SizeX = binary.LittleEndian.Uint32(data[0:4])
			m.SizeY = binary.LittleEndian.Uint32(data[4:8])
			m.SizeZ = binary.LittleEndian.Uint32(data[8:12])
		case "XYZI":
			if currentModel < 0 || currentModel >= len(p.Models) {
				return nil, voxerr.New(voxerr.Parse, op, "XYZI without preceding SIZE")
			}
			if len(data) < 4 {
				return nil, voxerr.New(voxerr.Parse, op, "XYZI chunk too small")
			}
			n := binary.LittleEndian.Uint32(data[:4])
			m := &p.Models[currentModel]
			m.Voxels = make([]voxel3, 0, n)
			for i := 0; i < int(n); i++ {
				off := 4 + i*4
				if off+3 >= len(data) {
					return nil, voxerr.New(voxerr.Parse, op, "XYZI data overflow")
				}
				m.Voxels = append(m.Voxels, voxel3{data[off], data[off+1], data[off+2], data[off+3]})
			}
		case "RGBA":
			for i := 0; i < 255 && (i*4+3) < len(data); i++ {
				off := i * 4
				p.Palette[i+1] = [4]uint8{data[off], data[off+1], data[off+2], data[off+3]}
			}
		case "MATL":
			mat, err := parseMaterial(data)
			if err != nil {
				return nil, voxerr.Wrap(voxerr.Parse, op, "parsing MATL", err)
			}
			p.Materials = append(p.Materials, mat)
		case "PACK":
			if len(data) >= 4 {
				n := binary.LittleEndian.Uint32(data[:4])
				if n > 0 {
					p.Models = make([]model, n)
					currentModel = -1
				}
			}
		case "nTRN":
			n, err := parseTransformNode(data)
			if err != nil {
				return nil, voxerr.Wrap(voxerr.Parse, op, "parsing nTRN", err)
			}
			p.Nodes[n.ID] = n
			if p.RootID == 0 {
				p.RootID = n.ID
			}
		case "nGRP":
			n, err := parseGroupNode(data)
			if err != nil {
				return nil, voxerr.Wrap(voxerr.Parse, op, "parsing nGRP", err)
			}
			p.Nodes[n.ID] = n
		case "nSHP":
			n, err := parseShapeNode(data)
			if err != nil {
				return nil, voxerr.Wrap(voxerr.Parse, op, "parsing nSHP", err)
			}
			p.Nodes[n.ID] = n
		}
	}

	return p, nil
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	return voxerr.New(voxerr.InvalidArgument, "vox.Save", "MagicaVoxel .vox is import-only")
}

// GenerateChunks converts every parsed model into one VoxelModel, inserting
// cells with the y-up/right-handed conversion spec.md §6 requires: the
// source's z-up voxel (x, y, z) becomes (x, z, y) with x mirrored to flip
// handedness.
func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	p, ok := parsed.(*Parsed)
	if !ok {
		return nil, voxerr.New(voxerr.InvalidArgument, "vox.GenerateChunks", "not a vox.Parsed value")
	}

	out := voxelmodel.New("vox")
	out.Materials = buildMaterials(p)

	palette := texture.New(256, 1)
	for i := 0; i < 256; i++ {
		c := p.Palette[i]
		palette.SetPixel(i, 0, packRGBA(c[0], c[1], c[2], c[3]))
	}
	out.Textures[texture.TypePalette] = palette

	for _, m := range p.Models {
		sx := int(m.SizeX)
		for _, v := range m.Voxels {
			// z-up -> y-up, mirror x for handedness.
			wp := vecmath.Vec3i{
				X: sx - 1 - int(v.X),
				Y: int(v.Z),
				Z: int(v.Y),
			}
			matIdx, transparent := materialFor(p, v.ColorIndex)
			cell := voxel.New(matIdx, v.ColorIndex, transparent)
			out.Space.Insert(wp, cell)
		}
	}

	return out, nil
}

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return m.FullMesh(model, opts)
}

// GenerateScene flattens the nTRN/nGRP/nSHP node graph into a SceneNode
// tree, decoding each transform frame's rotation byte and translation.
func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	p, ok := parsed.(*Parsed)
	if !ok || len(p.Nodes) == 0 {
		root := scene.NewNode(model.Name)
		root.SetModel(model)
		return root
	}
	root := scene.NewNode("vox-scene")
	buildSceneNode(p, p.RootID, root, model)
	return root
}

func buildSceneNode(p *Parsed, id int, parent *scene.Node, model *voxelmodel.Model) {
	n, ok := p.Nodes[id]
	if !ok {
		return
	}
	switch n.Type {
	case nodeTransform:
		child := scene.NewNode(fmt.Sprintf("node-%d", id))
		if len(n.Frames) > 0 {
			f := n.Frames[0]
			child.Position = vecmath.Vec3i{X: int(f.Trans[0]), Y: int(f.Trans[2]), Z: int(f.Trans[1])}
			child.Rotation = decodeRotationEuler(f.Rotation)
		}
		parent.AddChild(child)
		buildSceneNode(p, n.ChildID, child, model)
	case nodeGroup:
		for _, cid := range n.ChildrenIDs {
			buildSceneNode(p, cid, parent, model)
		}
	case nodeShape:
		if len(n.Models) > 0 {
			parent.SetModel(model)
		}
	}
}

func buildMaterials(p *Parsed) []*material.Material {
	mats := make([]*material.Material, 256)
	for i := range mats {
		mats[i] = material.Default()
	}
	for _, pm := range p.Materials {
		if pm.PaletteIndex < 0 || pm.PaletteIndex >= len(mats) {
			continue
		}
		m := material.New()
		m.Metallic = pm.Metal
		m.Specular = pm.Spec
		m.Roughness = pm.Rough
		m.IOR = pm.IOR
		m.Transparency = pm.Alpha
		m.EmissionPower = pm.Flux
		mats[pm.PaletteIndex] = m
	}
	return mats
}

func materialFor(p *Parsed, colorIndex uint8) (matIdx uint8, transparent bool) {
	for _, pm := range p.Materials {
		if pm.PaletteIndex == int(colorIndex) {
			return colorIndex, pm.Type == "_glass"
		}
	}
	return colorIndex, false
}

func packRGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// defaultPalette is a deterministic fallback used when no RGBA chunk is
// present: a grayscale ramp. The real MagicaVoxel default palette is a
// fixed 256-entry table baked into the editor; lacking a verified copy of
// that table, this ramp stands in as a documented simplification (see
// DESIGN.md).
func defaultPalette() [256][4]uint8 {
	var pal [256][4]uint8
	for i := range pal {
		v := uint8(255 - i)
		pal[i] = [4]uint8{v, v, v, 255}
	}
	return pal
}

func parseMaterial(data []byte) (parsedMaterial, error) {
	if len(data) < 8 {
		return parsedMaterial{}, fmt.Errorf("MATL chunk too small")
	}
	id := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	_ = binary.LittleEndian.Uint32(data[:4]) // material type enum, unused beyond _type key below
	data = data[4:]

	pm := parsedMaterial{PaletteIndex: id}
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
		val := string(data[:valLen])
		data = data[valLen:]

		switch key {
		case "_type":
			pm.Type = val
		case "_metal":
			pm.Metal = parseFloat(val)
		case "_alpha":
			pm.Alpha = parseFloat(val)
		case "_rough":
			pm.Rough = parseFloat(val)
		case "_spec":
			pm.Spec = parseFloat(val)
		case "_ior":
			pm.IOR = parseFloat(val)
		case "_flux":
			pm.Flux = parseFloat(val)
		}
	}
	return pm, nil
}

func parseFloat(s string) float32 {
	f, _ := strconv.ParseFloat(s, 32)
	return float32(f)
}

func parseDict(data []byte) (map[string]string, []byte) {
	res := make(map[string]string)
	if len(data) < 4 {
		return res, data
	}
	n := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	for i := 0; i < n && len(data) >= 4; i++ {
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
		val := string(data[:valLen])
		data = data[valLen:]
		res[key] = val
	}
	return res, data
}

func parseTransformNode(data []byte) (node, error) {
	if len(data) < 4 {
		return node{}, fmt.Errorf("nTRN chunk too small")
	}
	n := node{Type: nodeTransform}
	n.ID = int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	_, data = parseDict(data)

	if len(data) < 16 {
		return node{}, fmt.Errorf("nTRN chunk missing child/frame header")
	}
	n.ChildID = int(binary.LittleEndian.Uint32(data[0:4]))
	n.LayerID = int(binary.LittleEndian.Uint32(data[8:12]))
	numFrames := int(binary.LittleEndian.Uint32(data[12:16]))
	data = data[16:]

	for i := 0; i < numFrames; i++ {
		attr, rest := parseDict(data)
		data = rest
		var f transformFrame
		if v, ok := attr["_t"]; ok {
			fmt.Sscanf(v, "%f %f %f", &f.Trans[0], &f.Trans[1], &f.Trans[2])
		}
		if v, ok := attr["_r"]; ok {
			var r int
			fmt.Sscanf(v, "%d", &r)
			f.Rotation = byte(r)
		}
		n.Frames = append(n.Frames, f)
	}
	return n, nil
}

func parseGroupNode(data []byte) (node, error) {
	if len(data) < 4 {
		return node{}, fmt.Errorf("nGRP chunk too small")
	}
	n := node{Type: nodeGroup}
	n.ID = int(binary.LittleEndian.Uint32(data[0:4]))
	data = data[4:]
	_, data = parseDict(data)

	if len(data) < 4 {
		return n, nil
	}
	count := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	for i := 0; i < count && len(data) >= 4; i++ {
		n.ChildrenIDs = append(n.ChildrenIDs, int(binary.LittleEndian.Uint32(data[:4])))
		data = data[4:]
	}
	return n, nil
}

func parseShapeNode(data []byte) (node, error) {
	if len(data) < 4 {
		return node{}, fmt.Errorf("nSHP chunk too small")
	}
	n := node{Type: nodeShape}
	n.ID = int(binary.LittleEndian.Uint32(data[0:4]))
	data = data[4:]
	_, data = parseDict(data)

	if len(data) < 4 {
		return n, nil
	}
	count := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	for i := 0; i < count && len(data) >= 4; i++ {
		modelID := int(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		_, rest := parseDict(data)
		data = rest
		n.Models = append(n.Models, shapeModel{ModelID: modelID})
	}
	return n, nil
}

// decodeRotationEuler decodes the compact rotation byte spec.md §6
// describes: bits 0-1 give the row holding column 0's nonzero entry, bits
// 2-3 give the row for column 1 (the remaining row belongs to column 2),
// and bits 4-6 give that entry's sign. The result is always a multiple of
// 90 degrees about each axis, so it round-trips cleanly through the same
// matrix-to-Euler decomposition used for scene node transforms.
func decodeRotationEuler(b byte) mgl32.Vec3 {
	row0 := int(b & 0x3)
	row1 := int((b >> 2) & 0x3)
	row2 := 3 - row0 - row1
	if row2 < 0 || row2 > 2 || row0 == row1 {
		return mgl32.Vec3{}
	}
	sign := func(bit uint) float32 {
		if (b>>bit)&1 != 0 {
			return -1
		}
		return 1
	}
	var arr [9]float32
	arr[0*3+row0] = sign(4)
	arr[1*3+row1] = sign(5)
	arr[2*3+row2] = sign(6)
	m3 := mgl32.Mat3{arr[0], arr[1], arr[2], arr[3], arr[4], arr[5], arr[6], arr[7], arr[8]}
	return vecmath.DecomposeEuler(m3.Mat4())
}
