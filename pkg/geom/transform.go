package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Placement is the rigid-plus-scale transform of a component: scale is
// applied first, then rotation (Euler, intrinsic X·Y·Z, radians), then
// translation. The zero value is the identity.
type Placement struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// normalized replaces malformed fields with identity defaults:
// non-finite position and rotation components become 0, zero or
// non-finite scale components become 1.
func (p Placement) normalized() Placement {
	out := p
	for i := 0; i < 3; i++ {
		if !finite(out.Position[i]) {
			out.Position[i] = 0
		}
		if !finite(out.Rotation[i]) {
			out.Rotation[i] = 0
		}
		if !finite(out.Scale[i]) || out.Scale[i] == 0 {
			out.Scale[i] = 1
		}
	}
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func sanitizeVec(v Vec3) Vec3 {
	for i := range v {
		if !finite(v[i]) {
			v[i] = 0
		}
	}
	return v
}

// EulerToQuat converts intrinsic X·Y·Z Euler angles to a unit quaternion.
func EulerToQuat(r Vec3) mgl64.Quat {
	r = sanitizeVec(r)
	return mgl64.AnglesToQuat(r[0], r[1], r[2], mgl64.XYZ)
}

// QuatToEuler converts a quaternion back to intrinsic X·Y·Z Euler
// angles. Near gimbal lock the Z angle is folded into X.
func QuatToEuler(q mgl64.Quat) Vec3 {
	m := q.Normalize().Mat4()
	m13 := clamp(m.At(0, 2), -1, 1)
	y := math.Asin(m13)
	var x, z float64
	if math.Abs(m13) < 0.9999999 {
		x = math.Atan2(-m.At(1, 2), m.At(2, 2))
		z = math.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		x = math.Atan2(m.At(2, 1), m.At(1, 1))
	}
	return Vec3{x, y, z}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func rotate(q mgl64.Quat, v Vec3) Vec3 {
	return Vec3(q.Rotate(mgl64.Vec3(v)))
}

// WorldVectorFromLocal applies scale and rotation, but not translation,
// to a local vector. The result is rounded.
func WorldVectorFromLocal(p Placement, local Vec3) Vec3 {
	p = p.normalized()
	return rotate(EulerToQuat(p.Rotation), sanitizeVec(local).Mul(p.Scale)).Round()
}

// WorldPointFromLocal maps a component-local point into world space.
func WorldPointFromLocal(p Placement, local Vec3) Vec3 {
	p = p.normalized()
	scaled := sanitizeVec(local).Mul(p.Scale)
	return rotate(EulerToQuat(p.Rotation), scaled).Add(p.Position).Round()
}

// LocalVectorFromWorld undoes rotation and scale on a world vector.
func LocalVectorFromWorld(p Placement, world Vec3) Vec3 {
	p = p.normalized()
	inv := EulerToQuat(p.Rotation).Conjugate()
	return rotate(inv, sanitizeVec(world)).Div(p.Scale).Round()
}

// LocalPointFromWorld is the inverse of WorldPointFromLocal.
func LocalPointFromWorld(p Placement, world Vec3) Vec3 {
	p = p.normalized()
	inv := EulerToQuat(p.Rotation).Conjugate()
	return rotate(inv, sanitizeVec(world).Sub(p.Position)).Div(p.Scale).Round()
}

// WorldRotationFromLocal composes the component rotation with a
// point's local rotation (component first) and returns Euler angles in
// the same convention.
func WorldRotationFromLocal(p Placement, local Vec3) Vec3 {
	p = p.normalized()
	q := EulerToQuat(p.Rotation).Mul(EulerToQuat(local))
	return QuatToEuler(q).Round()
}
