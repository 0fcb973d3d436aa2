package vecmath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestComposeSRTTranslationOnly(t *testing.T) {
	m := ComposeSRT(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.X() != 1 || p.Y() != 2 || p.Z() != 3 {
		t.Fatalf("translation not applied to origin: %v", p)
	}
}

func TestDecomposeScale(t *testing.T) {
	m := ComposeSRT(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 3, 4})
	s := DecomposeScale(m)
	const eps = 1e-4
	if absf(s.X()-2) > eps || absf(s.Y()-3) > eps || absf(s.Z()-4) > eps {
		t.Fatalf("DecomposeScale wrong: %v", s)
	}
}

func TestDecomposeEulerRoundTrip(t *testing.T) {
	original := mgl32.Vec3{0.3, -0.5, 0.2}
	m := ComposeSRT(mgl32.Vec3{0, 0, 0}, original, mgl32.Vec3{1, 1, 1})
	got := DecomposeEuler(m)

	back := ComposeSRT(mgl32.Vec3{0, 0, 0}, got, mgl32.Vec3{1, 1, 1})
	for i := 0; i < 16; i++ {
		if absf(m[i]-back[i]) > 1e-3 {
			t.Fatalf("round-tripped rotation matrix diverges at %d: %v vs %v", i, m, back)
		}
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
