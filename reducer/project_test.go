package reducer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDominantAxis(t *testing.T) {
	cases := []struct {
		n    mgl32.Vec3
		want int
	}{
		{mgl32.Vec3{1, 0, 0}, 0},
		{mgl32.Vec3{-1, 0, 0}, 0},
		{mgl32.Vec3{0, 1, 0}, 1},
		{mgl32.Vec3{0, 0, 1}, 2},
		{mgl32.Vec3{0.1, 0.9, 0.2}, 1},
	}
	for _, c := range cases {
		if got := dominantAxis(c.n); got != c.want {
			t.Errorf("dominantAxis(%v) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestProject2DDropsDominantAxis(t *testing.T) {
	p := mgl32.Vec3{1, 2, 3}
	u, v := project2D(p, 0, true)
	// axis 0 dropped: keep (Y, Z) = (2, 3), unflipped for positive.
	if u != 2 || v != 3 {
		t.Fatalf("project2D(axis=0, positive) = (%v, %v), want (2, 3)", u, v)
	}

	u, v = project2D(p, 0, false)
	if u != -2 || v != 3 {
		t.Fatalf("project2D(axis=0, negative) = (%v, %v), want (-2, 3)", u, v)
	}
}
