package vecmath

// Vec2i is a two-component integer vector. The reducer's 2-D projection
// uses mgl32.Vec2 and the greedy mesher indexes its slice masks with plain
// ints, so neither uses this type.
type Vec2i struct {
	X, Y int
}

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{v.X + o.X, v.Y + o.Y} }
func (v Vec2i) Sub(o Vec2i) Vec2i { return Vec2i{v.X - o.X, v.Y - o.Y} }

// Vec2f is a two-component float vector. Mesh UVs are stored as
// mgl32.Vec2, not Vec2f.
type Vec2f struct {
	X, Y float32
}
