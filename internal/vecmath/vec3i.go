// Package vecmath provides the integer and small-dimension vector types the
// voxel core needs that github.com/go-gl/mathgl does not cover (mgl32 is
// used directly wherever a float32 Vec3/Vec4/Mat4 fits).
package vecmath

// Hash primes used by Vec3i.Hash; same constants spec.md names.
const (
	hashPrimeX = 73856093
	hashPrimeY = 19349663
	hashPrimeZ = 83492791
)

// Vec3i is a three-component integer vector: voxel positions, chunk origins,
// and the index triples used when walking a chunk's dense array.
type Vec3i struct {
	X, Y, Z int
}

func NewVec3i(x, y, z int) Vec3i { return Vec3i{x, y, z} }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3i) MulScalar(s int) Vec3i { return Vec3i{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3i) Min(o Vec3i) Vec3i {
	return Vec3i{minInt(v.X, o.X), minInt(v.Y, o.Y), minInt(v.Z, o.Z)}
}

func (v Vec3i) Max(o Vec3i) Vec3i {
	return Vec3i{maxInt(v.X, o.X), maxInt(v.Y, o.Y), maxInt(v.Z, o.Z)}
}

func (v Vec3i) Abs() Vec3i {
	return Vec3i{absInt(v.X), absInt(v.Y), absInt(v.Z)}
}

func (v Vec3i) Dot(o Vec3i) int { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3i) Cross(o Vec3i) Vec3i {
	return Vec3i{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Get indexes the vector by axis (0=X, 1=Y, 2=Z), used by axis-generic
// meshing code that iterates a ∈ {0,1,2}.
func (v Vec3i) Get(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (v Vec3i) With(axis, val int) Vec3i {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

// Hash is the 3-prime XOR scheme from spec.md §3. VoxelSpace's chunk map
// does not use it: it is keyed by Vec3i itself, with Go's built-in map
// hashing of struct keys.
func (v Vec3i) Hash() uint64 {
	return uint64(v.X*hashPrimeX) ^ uint64(v.Y*hashPrimeY) ^ uint64(v.Z*hashPrimeZ)
}

// FloorDiv floors division toward negative infinity, used to canonicalize
// a world position to its containing chunk origin for negative coordinates.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
