package vox

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/voxforge/voxelcore/internal/vecmath"
)

func appendChunk(buf *bytes.Buffer, id string, data []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, int32(len(data)))
	binary.Write(buf, binary.LittleEndian, int32(0))
	buf.Write(data)
}

func sizeChunk(x, y, z uint32) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, x)
	binary.Write(&b, binary.LittleEndian, y)
	binary.Write(&b, binary.LittleEndian, z)
	return b.Bytes()
}

func xyziChunk(voxels [][4]uint8) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(len(voxels)))
	for _, v := range voxels {
		b.Write(v[:])
	}
	return b.Bytes()
}

func buildMinimalVox(voxels [][4]uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, int32(minVersion))
	appendChunk(&buf, "MAIN", nil)
	appendChunk(&buf, "SIZE", sizeChunk(2, 2, 2))
	appendChunk(&buf, "XYZI", xyziChunk(voxels))
	return buf.Bytes()
}

func TestTypeOfMatchesSignature(t *testing.T) {
	c := Codec{}
	if !c.TypeOf("x.vox", []byte("VOX 1234")) {
		t.Fatal("TypeOf must match a VOX-signed header")
	}
	if c.TypeOf("x.vox", []byte("GOX 1234")) {
		t.Fatal("TypeOf must reject a non-matching signature")
	}
	if c.TypeOf("x.vox", []byte("VO")) {
		t.Fatal("TypeOf must reject a too-short header")
	}
}

func TestLoadRejectsBadSignature(t *testing.T) {
	r := bytes.NewReader([]byte("NOPE0000"))
	if _, err := Codec{}.Load(r); err == nil {
		t.Fatal("Load must fail on a bad signature")
	}
}

func TestLoadRejectsOldVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, int32(100))
	if _, err := Codec{}.Load(&buf); err == nil {
		t.Fatal("Load must reject a version below minVersion")
	}
}

func TestLoadParsesSizeAndVoxels(t *testing.T) {
	raw := buildMinimalVox([][4]uint8{{0, 0, 0, 5}, {1, 1, 1, 9}})
	parsed, err := Codec{}.Load(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p := parsed.(*Parsed)
	if len(p.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(p.Models))
	}
	if p.Models[0].SizeX != 2 || p.Models[0].SizeY != 2 || p.Models[0].SizeZ != 2 {
		t.Fatalf("unexpected model size: %+v", p.Models[0])
	}
	if len(p.Models[0].Voxels) != 2 {
		t.Fatalf("expected 2 voxels, got %d", len(p.Models[0].Voxels))
	}
}

func TestLoadRejectsXYZIWithoutSize(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, int32(minVersion))
	appendChunk(&buf, "MAIN", nil)
	appendChunk(&buf, "XYZI", xyziChunk([][4]uint8{{0, 0, 0, 1}}))
	if _, err := Codec{}.Load(&buf); err == nil {
		t.Fatal("Load must reject XYZI with no preceding SIZE")
	}
}

func TestGenerateChunksConvertsCoordinates(t *testing.T) {
	// size 2x2x2, voxel at source (x=0,y=0,z=1): expect world (sx-1-0, 1, 0) = (1, 1, 0).
	raw := buildMinimalVox([][4]uint8{{0, 0, 1, 5}})
	parsed, err := Codec{}.Load(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m, err := Codec{}.GenerateChunks(parsed)
	if err != nil {
		t.Fatalf("GenerateChunks failed: %v", err)
	}
	want := vecmath.Vec3i{X: 1, Y: 1, Z: 0}
	cell, ok := m.Space.Find(want, false)
	if !ok {
		t.Fatalf("expected a voxel at %+v after coordinate conversion", want)
	}
	if cell.ColorIndex != 5 {
		t.Fatalf("color index = %d, want 5", cell.ColorIndex)
	}
}

func TestGenerateChunksRejectsWrongType(t *testing.T) {
	if _, err := (Codec{}).GenerateChunks("not parsed"); err == nil {
		t.Fatal("GenerateChunks must reject a non-*Parsed value")
	}
}

func TestSaveIsUnsupported(t *testing.T) {
	if err := (Codec{}).Save(&bytes.Buffer{}, nil); err == nil {
		t.Fatal("Save must report an error for this import-only codec")
	}
}

func TestDecodeRotationEulerIdentity(t *testing.T) {
	// row0=0 (sign +), row1=1 (sign +) -> identity rotation matrix, byte 0x04.
	got := decodeRotationEuler(0x04)
	if got.X() != 0 || got.Y() != 0 || got.Z() != 0 {
		t.Fatalf("identity rotation byte should decode to zero euler, got %v", got)
	}
}

func TestDecodeRotationEulerInvalidRowsReturnsZero(t *testing.T) {
	// row0 == row1 is invalid (degenerate matrix).
	got := decodeRotationEuler(0x00)
	if got.X() != 0 || got.Y() != 0 || got.Z() != 0 {
		t.Fatalf("invalid rotation byte should decode to zero euler, got %v", got)
	}
}

func TestDefaultPaletteIsDeterministicGrayscale(t *testing.T) {
	pal := defaultPalette()
	if pal[0] != [4]uint8{255, 255, 255, 255} {
		t.Fatalf("palette[0] = %v, want opaque white", pal[0])
	}
	if pal[255][3] != 255 {
		t.Fatal("palette entries must be fully opaque")
	}
}
