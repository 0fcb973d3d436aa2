package vecmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ComposeSRT builds a model matrix from scale, Euler rotation (radians, XYZ
// order) and translation, matching the SRT convention the teacher's
// TransformComponent/transform_hierarchy.go composes during traversal.
func ComposeSRT(pos, eulerRad, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())
	r := mgl32.AnglesToQuat(eulerRad.X(), eulerRad.Y(), eulerRad.Z(), mgl32.XYZ).Mat4()
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(r).Mul4(s)
}

// DecomposeScale extracts the per-axis scale from a 4x4 matrix's basis
// vector lengths, ignoring translation.
func DecomposeScale(m mgl32.Mat4) mgl32.Vec3 {
	col0 := mgl32.Vec3{m[0], m[1], m[2]}
	col1 := mgl32.Vec3{m[4], m[5], m[6]}
	col2 := mgl32.Vec3{m[8], m[9], m[10]}
	return mgl32.Vec3{col0.Len(), col1.Len(), col2.Len()}
}

// DecomposeEuler extracts XYZ Euler angles (radians) from the rotation part
// of a matrix, after removing any scale.
func DecomposeEuler(m mgl32.Mat4) mgl32.Vec3 {
	scale := DecomposeScale(m)
	sx, sy, sz := scale.X(), scale.Y(), scale.Z()
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}

	rot := mgl32.Mat3{
		m[0] / sx, m[1] / sx, m[2] / sx,
		m[4] / sy, m[5] / sy, m[6] / sy,
		m[8] / sz, m[9] / sz, m[10] / sz,
	}

	q := mgl32.Mat4ToQuat(rot.Mat4())
	return quatToEuler(q)
}

func quatToEuler(q mgl32.Quat) mgl32.Vec3 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := float32(math.Atan2(float64(sinrCosp), float64(cosrCosp)))

	sinp := 2 * (w*y - z*x)
	var pitch float32
	switch {
	case sinp >= 1:
		pitch = mgl32.DegToRad(90)
	case sinp <= -1:
		pitch = mgl32.DegToRad(-90)
	default:
		pitch = float32(math.Asin(float64(sinp)))
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := float32(math.Atan2(float64(sinyCosp), float64(cosyCosp)))

	return mgl32.Vec3{roll, pitch, yaw}
}
