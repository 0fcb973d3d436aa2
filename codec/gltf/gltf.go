// Package gltf implements the glTF/GLB exporter from spec.md §6: a single
// interleaved vertex buffer per surface (pos, normal, uv in that order),
// one index buffer per surface, and the standard two-chunk (JSON, BIN) GLB
// container with 4-byte chunk alignment. Export-only, so Load/GenerateChunks
// /GenerateScene all fail.
package gltf

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/voxforge/voxelcore/codec"
	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxerr"
)

const (
	vertexStride = 4*3 + 4*3 + 4*2 // pos(vec3) + normal(vec3) + uv(vec2), float32

	compVec3  = "VEC3"
	compVec2  = "VEC2"
	compFloat = 5126 // GL_FLOAT
	compUint  = 5125 // GL_UNSIGNED_INT
	glTriangles = 4
)

type document struct {
	Asset       asset        `json:"asset"`
	Scene       int          `json:"scene"`
	Scenes      []sceneDoc   `json:"scenes"`
	Nodes       []nodeDoc    `json:"nodes"`
	Meshes      []meshDoc    `json:"meshes"`
	Materials   []materialDoc `json:"materials"`
	Buffers     []bufferDoc  `json:"buffers"`
	BufferViews []viewDoc    `json:"bufferViews"`
	Accessors   []accessorDoc `json:"accessors"`
}

type asset struct {
	Version string `json:"version"`
}

type sceneDoc struct {
	Nodes []int `json:"nodes"`
}

type nodeDoc struct {
	Name string `json:"name,omitempty"`
	Mesh *int   `json:"mesh,omitempty"`
}

type meshDoc struct {
	Name       string          `json:"name,omitempty"`
	Primitives []primitiveDoc  `json:"primitives"`
}

type primitiveDoc struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Material   int            `json:"material"`
	Mode       int            `json:"mode"`
}

type materialDoc struct {
	Name                 string      `json:"name,omitempty"`
	PBRMetallicRoughness pbrDoc      `json:"pbrMetallicRoughness"`
}

type pbrDoc struct {
	MetallicFactor  float32 `json:"metallicFactor"`
	RoughnessFactor float32 `json:"roughnessFactor"`
}

type bufferDoc struct {
	ByteLength int `json:"byteLength"`
}

type viewDoc struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride,omitempty"`
	Target     int `json:"target,omitempty"`
}

type accessorDoc struct {
	BufferView    int    `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 4 && string(header[:4]) == "glTF"
}

func (Codec) Load(r io.Reader) (any, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "gltf.Load", "glTF export-only in this package")
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "gltf.GenerateChunks", "glTF export-only in this package")
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node {
	return nil
}

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

// Save writes the model's mesh (re-meshed with Greedy + default options) as
// a binary GLB. Callers who already have a Mesh should use SaveMesh
// instead; Save exists to satisfy the Codec interface's Model-level
// signature for registry-driven dispatch.
func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	m := codec.DefaultGenerateMesh(model, mesher.Greedy{}, mesher.Options{})
	return SaveMesh(w, m)
}

// SaveMesh writes a Mesh directly as a binary GLB container.
func SaveMesh(w io.Writer, m *mesh.Mesh) error {
	const op = "gltf.SaveMesh"
	var bin bytes.Buffer
	doc := document{
		Asset: asset{Version: "2.0"},
		Scene: 0,
		Scenes: []sceneDoc{{Nodes: []int{0}}},
		Nodes:  []nodeDoc{{Name: m.Name, Mesh: intPtr(0)}},
	}

	meshDef := meshDoc{Name: m.Name}
	for _, s := range m.Surfaces {
		vertOffset := bin.Len()
		for _, v := range s.Vertices {
			binary.Write(&bin, binary.LittleEndian, v.Pos)
			binary.Write(&bin, binary.LittleEndian, v.Normal)
			binary.Write(&bin, binary.LittleEndian, v.UV)
		}
		padBuffer(&bin)
		vertLen := bin.Len() - vertOffset

		idxOffset := bin.Len()
		for _, idx := range s.Indices {
			binary.Write(&bin, binary.LittleEndian, idx)
		}
		padBuffer(&bin)
		idxLen := bin.Len() - idxOffset

		vertViewIdx := len(doc.BufferViews)
		doc.BufferViews = append(doc.BufferViews, viewDoc{Buffer: 0, ByteOffset: vertOffset, ByteLength: vertLen, ByteStride: vertexStride, Target: 34962})
		idxViewIdx := len(doc.BufferViews)
		doc.BufferViews = append(doc.BufferViews, viewDoc{Buffer: 0, ByteOffset: idxOffset, ByteLength: idxLen, Target: 34963})

		posAccessor := len(doc.Accessors)
		doc.Accessors = append(doc.Accessors, accessorDoc{BufferView: vertViewIdx, ByteOffset: 0, ComponentType: compFloat, Count: len(s.Vertices), Type: compVec3})
		normAccessor := len(doc.Accessors)
		doc.Accessors = append(doc.Accessors, accessorDoc{BufferView: vertViewIdx, ByteOffset: 12, ComponentType: compFloat, Count: len(s.Vertices), Type: compVec3})
		uvAccessor := len(doc.Accessors)
		doc.Accessors = append(doc.Accessors, accessorDoc{BufferView: vertViewIdx, ByteOffset: 24, ComponentType: compFloat, Count: len(s.Vertices), Type: compVec2})
		idxAccessor := len(doc.Accessors)
		doc.Accessors = append(doc.Accessors, accessorDoc{BufferView: idxViewIdx, ByteOffset: 0, ComponentType: compUint, Count: len(s.Indices), Type: "SCALAR"})

		matIdx := len(doc.Materials)
		doc.Materials = append(doc.Materials, materialDocFor(s.Material))

		meshDef.Primitives = append(meshDef.Primitives, primitiveDoc{
			Attributes: map[string]int{"POSITION": posAccessor, "NORMAL": normAccessor, "TEXCOORD_0": uvAccessor},
			Indices:    idxAccessor,
			Material:   matIdx,
			Mode:       glTriangles,
		})
	}
	doc.Meshes = []meshDoc{meshDef}
	doc.Buffers = []bufferDoc{{ByteLength: bin.Len()}}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return voxerr.Wrap(voxerr.Io, op, "marshaling glTF JSON", err)
	}
	jsonBytes = padJSON(jsonBytes)

	total := 12 + 8 + len(jsonBytes) + 8 + bin.Len()
	if err := binary.Write(w, binary.LittleEndian, [4]byte{'g', 'l', 'T', 'F'}); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing GLB magic", err)
	}
	binary.Write(w, binary.LittleEndian, uint32(2))
	binary.Write(w, binary.LittleEndian, uint32(total))

	binary.Write(w, binary.LittleEndian, uint32(len(jsonBytes)))
	binary.Write(w, binary.LittleEndian, uint32(0x4E4F534A)) // "JSON"
	if _, err := w.Write(jsonBytes); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing JSON chunk", err)
	}

	binary.Write(w, binary.LittleEndian, uint32(bin.Len()))
	binary.Write(w, binary.LittleEndian, uint32(0x004E4942)) // "BIN\0"
	if _, err := w.Write(bin.Bytes()); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing BIN chunk", err)
	}
	return nil
}

func materialDocFor(mat *material.Material) materialDoc {
	return materialDoc{
		Name: mat.Handle(),
		PBRMetallicRoughness: pbrDoc{
			MetallicFactor:  mat.Metallic,
			RoughnessFactor: mat.Roughness,
		},
	}
}

func padBuffer(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

func padJSON(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, ' ')
	}
	return b
}

func intPtr(v int) *int { return &v }
