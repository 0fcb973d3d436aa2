package vecmath

import "testing"

func TestVec3iArithmetic(t *testing.T) {
	a := NewVec3i(1, 2, 3)
	b := NewVec3i(4, -1, 2)

	if got := a.Add(b); got != (Vec3i{5, 1, 5}) {
		t.Fatalf("Add: got %v", got)
	}
	if got := a.Sub(b); got != (Vec3i{-3, 3, 1}) {
		t.Fatalf("Sub: got %v", got)
	}
	if got := a.MulScalar(2); got != (Vec3i{2, 4, 6}) {
		t.Fatalf("MulScalar: got %v", got)
	}
	if got := a.Min(b); got != (Vec3i{1, -1, 2}) {
		t.Fatalf("Min: got %v", got)
	}
	if got := a.Max(b); got != (Vec3i{4, 2, 3}) {
		t.Fatalf("Max: got %v", got)
	}
	if got := NewVec3i(-1, -2, 3).Abs(); got != (Vec3i{1, 2, 3}) {
		t.Fatalf("Abs: got %v", got)
	}
}

func TestVec3iDotCross(t *testing.T) {
	x := NewVec3i(1, 0, 0)
	y := NewVec3i(0, 1, 0)
	if got := x.Dot(y); got != 0 {
		t.Fatalf("orthogonal dot should be 0, got %d", got)
	}
	if got := x.Cross(y); got != (Vec3i{0, 0, 1}) {
		t.Fatalf("x cross y should be z, got %v", got)
	}
}

func TestVec3iGetWith(t *testing.T) {
	v := NewVec3i(7, 8, 9)
	if v.Get(0) != 7 || v.Get(1) != 8 || v.Get(2) != 9 {
		t.Fatal("Get returned wrong component")
	}
	w := v.With(1, 100)
	if w.Y != 100 || w.X != 7 || w.Z != 9 {
		t.Fatalf("With mutated wrong component: %v", w)
	}
	if v.Y != 8 {
		t.Fatal("With must not mutate receiver")
	}
}

func TestVec3iHashDistinctForAdjacent(t *testing.T) {
	a := NewVec3i(0, 0, 0)
	b := NewVec3i(1, 0, 0)
	c := NewVec3i(0, 1, 0)
	if a.Hash() == b.Hash() || a.Hash() == c.Hash() || b.Hash() == c.Hash() {
		t.Fatal("adjacent origins must not collide trivially")
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{7, 2, 3},
		{-7, 2, -4},
		{-1, 16, -1},
		{0, 16, 0},
		{15, 16, 0},
		{16, 16, 1},
		{-16, 16, -1},
		{-17, 16, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
