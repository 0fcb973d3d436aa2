package fbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/mesh"
)

func buildSampleMesh() *mesh.Mesh {
	m := mesh.New("sample")
	mat := material.New()
	s := mesh.NewSurface(mat)
	s.AppendTriangle(
		mesh.Vertex{Pos: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 0}},
		mesh.Vertex{Pos: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 0}},
		mesh.Vertex{Pos: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 1}},
	)
	m.Surfaces = append(m.Surfaces, s)
	return m
}

func TestTypeOfMatchesSignature(t *testing.T) {
	c := Codec{}
	if !c.TypeOf("x.fbx", magic) {
		t.Fatal("TypeOf must match the Kaydara FBX Binary magic")
	}
	if c.TypeOf("x.fbx", []byte("not fbx at all...")) {
		t.Fatal("TypeOf must reject a non-matching header")
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := (Codec{}).Load(bytes.NewReader(nil)); err == nil {
		t.Fatal("Load must fail for this export-only codec")
	}
}

func TestSaveMeshWritesMagicAndVersion(t *testing.T) {
	m := buildSampleMesh()
	var buf bytes.Buffer
	if err := SaveMesh(&buf, m); err != nil {
		t.Fatalf("SaveMesh failed: %v", err)
	}
	raw := buf.Bytes()
	if !bytes.Equal(raw[:len(magic)], magic) {
		t.Fatal("output must begin with the FBX binary magic")
	}
	version := binary.LittleEndian.Uint32(raw[len(magic) : len(magic)+4])
	if version != fbxVersion {
		t.Fatalf("version = %d, want %d", version, fbxVersion)
	}
	// Thirteen trailing zero bytes terminate the top-level node list.
	tail := raw[len(raw)-13:]
	for _, b := range tail {
		if b != 0 {
			t.Fatal("file must end with a 13-byte null sentinel")
		}
	}
}

func TestEncodePropertyFloatArrayZlibRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	vals := []float32{1, 2, 3, 4.5}
	if err := encodeProperty(&buf, propFloatArr(vals)); err != nil {
		t.Fatalf("encodeProperty failed: %v", err)
	}
	raw := buf.Bytes()
	if raw[0] != 'f' {
		t.Fatalf("tag byte = %q, want 'f'", raw[0])
	}
	count := binary.LittleEndian.Uint32(raw[1:5])
	encoding := binary.LittleEndian.Uint32(raw[5:9])
	compLen := binary.LittleEndian.Uint32(raw[9:13])
	if int(count) != len(vals) {
		t.Fatalf("count = %d, want %d", count, len(vals))
	}
	if encoding != 1 {
		t.Fatalf("encoding = %d, want 1 (zlib)", encoding)
	}
	compressed := raw[13 : 13+compLen]
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("zlib.NewReader failed: %v", err)
	}
	defer zr.Close()
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("zlib decompress failed: %v", err)
	}
	if len(decompressed) != len(vals)*4 {
		t.Fatalf("decompressed length = %d, want %d", len(decompressed), len(vals)*4)
	}
	for i, want := range vals {
		bits := binary.LittleEndian.Uint32(decompressed[i*4 : i*4+4])
		got := math.Float32frombits(bits)
		if got != want {
			t.Fatalf("value %d = %v, want %v", i, got, want)
		}
	}
}
