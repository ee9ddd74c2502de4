package geom

import (
	"fmt"
	"math"
)

// Precision is the decimal step every derived coordinate is rounded to.
const Precision = 1e-6

// roundScale is 1/Precision. Multiplying then dividing by an exact
// integer keeps Round(2.6) == 2.6 bit for bit.
const roundScale = 1e6

// Round rounds x to Precision. Negative zero is normalized to zero.
func Round(x float64) float64 {
	r := math.Round(x*roundScale) / roundScale
	if r == 0 {
		return 0
	}
	return r
}

// Vec3 is a numeric triple. It serializes as a plain JSON array.
type Vec3 [3]float64

// Zero is the origin.
var Zero = Vec3{}

// One is the identity scale.
var One = Vec3{1, 1, 1}

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{v[0] * o[0], v[1] * o[1], v[2] * o[2]}
}

// Div divides component-wise. Callers guarantee o has no zero component.
func (v Vec3) Div(o Vec3) Vec3 {
	return Vec3{v[0] / o[0], v[1] / o[1], v[2] / o[2]}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Round rounds every component to Precision.
func (v Vec3) Round() Vec3 {
	return Vec3{Round(v[0]), Round(v[1]), Round(v[2])}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Sanitized returns v with NaN and infinite components replaced by 0.
func (v Vec3) Sanitized() Vec3 {
	return sanitizeVec(v)
}

// ApproxEqual reports whether every component of v is within eps of o.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	for i := range v {
		if math.Abs(v[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

func (v Vec3) String() string {
	return fmt.Sprintf("[%g %g %g]", v[0], v[1], v[2])
}

// Pose is a world-space position and rotation. Poses are never stored;
// the solver produces a fresh one on every call.
type Pose struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
}

// Ray is a half-line used for picking.
type Ray struct {
	Origin    Vec3 `json:"origin"`
	Direction Vec3 `json:"direction"`
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Hit is a ray intersection in world space. When HasFace is set, Face
// and Vertices identify the struck triangle in the owning mesh.
type Hit struct {
	Point    Vec3
	Distance float64
	HasFace  bool
	Face     int
	Vertices [3]int
}
