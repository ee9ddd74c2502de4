package kernel

import (
	"math"
	"testing"

	"github.com/chazu/trackset/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-x / 2, -y / 2, -z / 2},
		maxBB: [3]float64{x / 2, y / 2, z / 2},
	}
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid      { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{-5, -10, -15} {
		t.Errorf("Box min = %v, want [-5 -10 -15]", min)
	}
	if max != [3]float64{5, 10, 15} {
		t.Errorf("Box max = %v, want [5 10 15]", max)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(1, 1, 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}

// --- Picking ---

// quads returns a mesh with one 1 x 0.5 x 0.3 box side at x = +0.5 and
// another at x = -0.5.
func quads() *Mesh {
	return &Mesh{
		Vertices: []float32{
			0.5, -0.25, -0.15, 0.5, 0.25, -0.15, 0.5, 0.25, 0.15, 0.5, -0.25, 0.15,
			-0.5, -0.25, -0.15, -0.5, 0.25, -0.15, -0.5, 0.25, 0.15, -0.5, -0.25, 0.15,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
	}
}

func TestMeshVertexAndTriangle(t *testing.T) {
	m := quads()
	v, ok := m.Vertex(1)
	if !ok || v != (geom.Vec3{0.5, 0.25, float64(float32(-0.15))}) {
		t.Errorf("Vertex(1) = %v, %v", v, ok)
	}
	if _, ok := m.Vertex(8); ok {
		t.Error("Vertex(8) should be out of range")
	}
	if _, ok := m.Vertex(-1); ok {
		t.Error("Vertex(-1) should be out of range")
	}
	tri, ok := m.Triangle(3)
	if !ok || tri != [3]int{4, 6, 7} {
		t.Errorf("Triangle(3) = %v, %v", tri, ok)
	}
	if _, ok := m.Triangle(4); ok {
		t.Error("Triangle(4) should be out of range")
	}
}

func TestMeshRaycast(t *testing.T) {
	m := quads()

	hit, ok := m.Raycast(geom.Ray{Origin: geom.Vec3{2, 0.01, -0.02}, Direction: geom.Vec3{-1, 0, 0}})
	if !ok {
		t.Fatal("expected a hit")
	}
	if !hit.Point.ApproxEqual(geom.Vec3{0.5, 0.01, -0.02}, 1e-9) {
		t.Errorf("hit point = %v", hit.Point)
	}
	if math.Abs(hit.Distance-1.5) > 1e-9 {
		t.Errorf("distance = %v, want nearest side at 1.5", hit.Distance)
	}
	if !hit.HasFace || hit.Face != 0 || hit.Vertices != [3]int{0, 1, 2} {
		t.Errorf("face = %d %v", hit.Face, hit.Vertices)
	}

	tests := []struct {
		name string
		ray  geom.Ray
	}{
		{"pointing away", geom.Ray{Origin: geom.Vec3{2, 0, 0}, Direction: geom.Vec3{1, 0, 0}}},
		{"parallel", geom.Ray{Origin: geom.Vec3{2, 0, 0}, Direction: geom.Vec3{0, 1, 0}}},
		{"outside", geom.Ray{Origin: geom.Vec3{2, 1, 0}, Direction: geom.Vec3{-1, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := m.Raycast(tt.ray); ok {
				t.Error("expected a miss")
			}
		})
	}
}

func TestMeshIntersector(t *testing.T) {
	in := MeshIntersector{
		Mesh:      quads(),
		Placement: geom.Placement{Position: geom.Vec3{10, 0, 0}},
	}
	hit, ok := in.Intersect(geom.Ray{Origin: geom.Vec3{12, 0.01, -0.02}, Direction: geom.Vec3{-1, 0, 0}})
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Point != (geom.Vec3{10.5, 0.01, -0.02}) {
		t.Errorf("world hit = %v, want [10.5 0.01 -0.02]", hit.Point)
	}

	if _, ok := (MeshIntersector{}).Intersect(geom.Ray{Direction: geom.Vec3{1, 0, 0}}); ok {
		t.Error("nil mesh should never hit")
	}
}
