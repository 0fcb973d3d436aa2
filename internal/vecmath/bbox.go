package vecmath

// BBox is a half-open integer bounding box [Beg, End), per spec.md §3.
type BBox struct {
	Beg, End Vec3i
}

// EmptyBBox returns a BBox that contains no points; the first Merge call
// seeds it.
func EmptyBBox() BBox {
	const big = 1 << 30
	return BBox{
		Beg: Vec3i{big, big, big},
		End: Vec3i{-big, -big, -big},
	}
}

func (b BBox) Empty() bool {
	return b.Beg.X >= b.End.X || b.Beg.Y >= b.End.Y || b.Beg.Z >= b.End.Z
}

func (b BBox) Size() Vec3i {
	if b.Empty() {
		return Vec3i{}
	}
	return b.End.Sub(b.Beg)
}

func (b BBox) Contains(p Vec3i) bool {
	return p.X >= b.Beg.X && p.X < b.End.X &&
		p.Y >= b.Beg.Y && p.Y < b.End.Y &&
		p.Z >= b.Beg.Z && p.Z < b.End.Z
}

// Merge grows the box (if non-empty) to also enclose p; callers that start
// from EmptyBBox() and merge one point become a 1x1x1 box after the first
// call since BBox is half-open.
func (b BBox) Merge(p Vec3i) BBox {
	if b.Empty() {
		return BBox{Beg: p, End: p.Add(Vec3i{1, 1, 1})}
	}
	return BBox{
		Beg: b.Beg.Min(p),
		End: b.End.Max(p.Add(Vec3i{1, 1, 1})),
	}
}

// Union merges two boxes, treating an empty operand as absorbing.
func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return BBox{Beg: b.Beg.Min(o.Beg), End: b.End.Max(o.End)}
}

// Intersects reports whether two boxes overlap (touching at a shared open
// boundary does not count, consistent with the half-open convention).
func (b BBox) Intersects(o BBox) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.Beg.X < o.End.X && b.End.X > o.Beg.X &&
		b.Beg.Y < o.End.Y && b.End.Y > o.Beg.Y &&
		b.Beg.Z < o.End.Z && b.End.Z > o.Beg.Z
}

// Offset translates a box by d.
func (b BBox) Offset(d Vec3i) BBox {
	return BBox{Beg: b.Beg.Add(d), End: b.End.Add(d)}
}
