// Package fbx implements the binary FBX (version 7400) exporter from
// spec.md §6: a node tree whose property-type tags are I, L, D, S, R, f, i
// for int32, int64, double, string, raw bytes, float array, int array;
// float/int arrays are zlib-compressed with encoding=1. Export-only:
// Load/GenerateChunks/GenerateScene all fail.
package fbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/voxforge/voxelcore/codec"
	"github.com/voxforge/voxelcore/mesh"
	"github.com/voxforge/voxelcore/mesher"
	"github.com/voxforge/voxelcore/scene"
	"github.com/voxforge/voxelcore/voxelmodel"
	"github.com/voxforge/voxelcore/voxerr"
)

const fbxVersion = 7400

var magic = append([]byte("Kaydara FBX Binary  "), 0x1A, 0x00)

type property struct {
	tag      byte
	i32      int32
	i64      int64
	f64      float64
	str      string
	raw      []byte
	floatArr []float32
	intArr   []int32
}

func propI32(v int32) property { return property{tag: 'I', i32: v} }
func propI64(v int64) property { return property{tag: 'L', i64: v} }
func propString(v string) property { return property{tag: 'S', str: v} }
func propFloatArr(v []float32) property { return property{tag: 'f', floatArr: v} }
func propIntArr(v []int32) property { return property{tag: 'i', intArr: v} }

type node struct {
	name       string
	properties []property
	children   []*node
}

func (n *node) encode(base int) ([]byte, error) {
	var buf bytes.Buffer
	// reserve end-offset, num-properties, property-list-len
	buf.Write(make([]byte, 12))
	binary.Write(&buf, binary.LittleEndian, uint8(len(n.name)))
	buf.WriteString(n.name)

	propStart := buf.Len()
	for _, p := range n.properties {
		if err := encodeProperty(&buf, p); err != nil {
			return nil, err
		}
	}
	propListLen := buf.Len() - propStart

	for _, c := range n.children {
		childBytes, err := c.encode(base + buf.Len())
		if err != nil {
			return nil, err
		}
		buf.Write(childBytes)
	}
	if len(n.children) > 0 {
		buf.Write(make([]byte, 13)) // null sentinel terminates the nested list
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[0:4], uint32(base+len(out)))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(n.properties)))
	binary.LittleEndian.PutUint32(out[8:12], uint32(propListLen))
	return out, nil
}

func encodeProperty(buf *bytes.Buffer, p property) error {
	buf.WriteByte(p.tag)
	switch p.tag {
	case 'I':
		return binary.Write(buf, binary.LittleEndian, p.i32)
	case 'L':
		return binary.Write(buf, binary.LittleEndian, p.i64)
	case 'D':
		return binary.Write(buf, binary.LittleEndian, p.f64)
	case 'S':
		binary.Write(buf, binary.LittleEndian, uint32(len(p.str)))
		buf.WriteString(p.str)
		return nil
	case 'R':
		binary.Write(buf, binary.LittleEndian, uint32(len(p.raw)))
		buf.Write(p.raw)
		return nil
	case 'f':
		var raw bytes.Buffer
		for _, f := range p.floatArr {
			binary.Write(&raw, binary.LittleEndian, f)
		}
		compressed, err := zlibCompress(raw.Bytes())
		if err != nil {
			return err
		}
		binary.Write(buf, binary.LittleEndian, uint32(len(p.floatArr)))
		binary.Write(buf, binary.LittleEndian, uint32(1)) // encoding = zlib
		binary.Write(buf, binary.LittleEndian, uint32(len(compressed)))
		buf.Write(compressed)
		return nil
	case 'i':
		var raw bytes.Buffer
		for _, v := range p.intArr {
			binary.Write(&raw, binary.LittleEndian, v)
		}
		compressed, err := zlibCompress(raw.Bytes())
		if err != nil {
			return err
		}
		binary.Write(buf, binary.LittleEndian, uint32(len(p.intArr)))
		binary.Write(buf, binary.LittleEndian, uint32(1))
		binary.Write(buf, binary.LittleEndian, uint32(len(compressed)))
		buf.Write(compressed)
		return nil
	}
	return nil
}

func zlibCompress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, 6)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type Codec struct{}

func New() *Codec { return &Codec{} }

var _ codec.Codec = Codec{}

func (Codec) TypeOf(path string, header []byte) bool {
	return len(header) >= 18 && string(header[:18]) == "Kaydara FBX Binary"
}

func (Codec) Load(r io.Reader) (any, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "fbx.Load", "FBX export-only in this package")
}

func (Codec) GenerateChunks(parsed any) (*voxelmodel.Model, error) {
	return nil, voxerr.New(voxerr.InvalidArgument, "fbx.GenerateChunks", "FBX export-only in this package")
}

func (Codec) GenerateScene(parsed any, model *voxelmodel.Model) *scene.Node { return nil }

func (Codec) GenerateMesh(model *voxelmodel.Model, m mesher.Mesher, opts mesher.Options) *mesh.Mesh {
	return codec.DefaultGenerateMesh(model, m, opts)
}

func (Codec) Save(w io.Writer, model *voxelmodel.Model) error {
	m := codec.DefaultGenerateMesh(model, mesher.Greedy{}, mesher.Options{})
	return SaveMesh(w, m)
}

// SaveMesh writes one Geometry node per surface under an Objects root, the
// minimal tree a reader needs to recover positions/normals/UVs/indices;
// material and node-hierarchy export are left for a future pass (see
// DESIGN.md).
func SaveMesh(w io.Writer, m *mesh.Mesh) error {
	const op = "fbx.SaveMesh"
	if _, err := w.Write(magic); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing magic", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(fbxVersion)); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing version", err)
	}

	root := &node{name: "Objects"}
	for i, s := range m.Surfaces {
		geo := &node{name: "Geometry", properties: []property{propI64(int64(i)), propString("Geometry"), propString("Mesh")}}

		var verts []float32
		var normals []float32
		var uvs []float32
		var indices []int32
		for _, v := range s.Vertices {
			verts = append(verts, v.Pos.X(), v.Pos.Y(), v.Pos.Z())
			normals = append(normals, v.Normal.X(), v.Normal.Y(), v.Normal.Z())
			uvs = append(uvs, v.UV.X(), v.UV.Y())
		}
		for idx, vi := range s.Indices {
			// FBX polygon-vertex-index convention: the last index of each
			// face is bitwise-inverted (~x) to mark the face boundary.
			iv := int32(vi)
			if idx%3 == 2 {
				iv = ^iv
			}
			indices = append(indices, iv)
		}

		geo.children = append(geo.children,
			&node{name: "Vertices", properties: []property{propFloatArr(verts)}},
			&node{name: "PolygonVertexIndex", properties: []property{propIntArr(indices)}},
			&node{name: "LayerElementNormal", properties: []property{propI32(0)}, children: []*node{
				{name: "Normals", properties: []property{propFloatArr(normals)}},
			}},
			&node{name: "LayerElementUV", properties: []property{propI32(0)}, children: []*node{
				{name: "UV", properties: []property{propFloatArr(uvs)}},
			}},
		)
		root.children = append(root.children, geo)
	}

	encoded, err := root.encode(len(magic) + 4) // header already written: magic + uint32 version
	if err != nil {
		return voxerr.Wrap(voxerr.Io, op, "encoding node tree", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return voxerr.Wrap(voxerr.Io, op, "writing node tree", err)
	}
	// top-level null record terminates the file's node list.
	_, err = w.Write(make([]byte, 13))
	return err
}
