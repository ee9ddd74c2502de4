package kernel

import (
	"math"

	"github.com/chazu/trackset/pkg/geom"
)

// Mesh is a triangle mesh suitable for rendering and picking.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices    []float32 `json:"vertices"`    // [x0,y0,z0, x1,y1,z1, ...]
	Normals     []float32 `json:"normals"`     // [nx0,ny0,nz0, ...]
	Indices     []uint32  `json:"indices"`     // [i0,i1,i2, ...] triangles
	ComponentID string    `json:"componentId"` // which component this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) (geom.Vec3, bool) {
	if i < 0 || i >= m.VertexCount() {
		return geom.Vec3{}, false
	}
	v := m.Vertices[i*3 : i*3+3]
	return geom.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}, true
}

// Triangle returns the vertex indices of face f.
func (m *Mesh) Triangle(f int) ([3]int, bool) {
	if f < 0 || f >= m.TriangleCount() {
		return [3]int{}, false
	}
	idx := m.Indices[f*3 : f*3+3]
	return [3]int{int(idx[0]), int(idx[1]), int(idx[2])}, true
}

// rayEpsilon rejects near-parallel triangles and self hits at the
// ray origin.
const rayEpsilon = 1e-9

// Raycast returns the nearest triangle hit along ray, in the mesh's own
// coordinates. Back faces count; a picking ray should find a surface
// whichever way the triangle winds.
func (m *Mesh) Raycast(ray geom.Ray) (geom.Hit, bool) {
	var best geom.Hit
	found := false
	for f := 0; f < m.TriangleCount(); f++ {
		tri, _ := m.Triangle(f)
		a, okA := m.Vertex(tri[0])
		b, okB := m.Vertex(tri[1])
		c, okC := m.Vertex(tri[2])
		if !okA || !okB || !okC {
			continue
		}
		t, ok := intersectTriangle(ray, a, b, c)
		if !ok || (found && t >= best.Distance) {
			continue
		}
		best = geom.Hit{
			Point:    ray.At(t),
			Distance: t,
			HasFace:  true,
			Face:     f,
			Vertices: tri,
		}
		found = true
	}
	return best, found
}

// intersectTriangle is the Möller–Trumbore test. It returns the ray
// parameter of the hit.
func intersectTriangle(ray geom.Ray, a, b, c geom.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := ray.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= rayEpsilon {
		return 0, false
	}
	return t, true
}

// MeshIntersector casts world-space rays against a component-local
// mesh placed by Placement.
type MeshIntersector struct {
	Mesh      *Mesh
	Placement geom.Placement
}

// Intersect converts ray into the mesh's local space, casts it, and
// returns the hit point back in world space. Distance is measured in
// local units.
func (mi MeshIntersector) Intersect(ray geom.Ray) (geom.Hit, bool) {
	if mi.Mesh == nil {
		return geom.Hit{}, false
	}
	local := geom.Ray{
		Origin:    geom.LocalPointFromWorld(mi.Placement, ray.Origin),
		Direction: geom.LocalVectorFromWorld(mi.Placement, ray.Direction),
	}
	hit, ok := mi.Mesh.Raycast(local)
	if !ok {
		return geom.Hit{}, false
	}
	hit.Point = geom.WorldPointFromLocal(mi.Placement, hit.Point)
	return hit, true
}
