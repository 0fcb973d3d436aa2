package ply

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
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
	if !c.TypeOf("x.ply", []byte("ply\nformat")) {
		t.Fatal("TypeOf must match the 'ply' magic prefix")
	}
	if c.TypeOf("x.ply", []byte("obj\n")) {
		t.Fatal("TypeOf must reject a non-matching header")
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := (Codec{}).Load(bytes.NewReader(nil)); err == nil {
		t.Fatal("Load must fail for this export-only codec")
	}
}

func TestSaveMeshHeaderDeclaresCorrectCounts(t *testing.T) {
	m := buildSampleMesh()
	var buf bytes.Buffer
	if err := SaveMesh(&buf, m); err != nil {
		t.Fatalf("SaveMesh failed: %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var vertexCount, faceCount int
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "element vertex ") {
			vertexCount, _ = strconv.Atoi(strings.TrimPrefix(line, "element vertex "))
		}
		if strings.HasPrefix(line, "element face ") {
			faceCount, _ = strconv.Atoi(strings.TrimPrefix(line, "element face "))
		}
		if line == "end_header" {
			break
		}
	}
	if vertexCount != 3 {
		t.Fatalf("element vertex = %d, want 3", vertexCount)
	}
	if faceCount != 1 {
		t.Fatalf("element face = %d, want 1", faceCount)
	}
}

func TestSaveMeshBinaryBodyLength(t *testing.T) {
	m := buildSampleMesh()
	var buf bytes.Buffer
	if err := SaveMesh(&buf, m); err != nil {
		t.Fatalf("SaveMesh failed: %v", err)
	}
	raw := buf.Bytes()
	idx := bytes.Index(raw, []byte("end_header\n"))
	if idx < 0 {
		t.Fatal("missing end_header terminator")
	}
	body := raw[idx+len("end_header\n"):]
	// 3 vertices * (3+3+2 floats * 4 bytes) + 1 face * (1 byte count + 3*4 bytes indices)
	wantVertexBytes := 3 * (8 * 4)
	wantFaceBytes := 1 * (1 + 3*4)
	if len(body) != wantVertexBytes+wantFaceBytes {
		t.Fatalf("binary body length = %d, want %d", len(body), wantVertexBytes+wantFaceBytes)
	}
}
