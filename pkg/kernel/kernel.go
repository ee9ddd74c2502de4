// Package kernel defines the abstract geometry kernel used to build
// component meshes, and the flat Mesh type those meshes are delivered
// in. Meshes can be ray cast, which is how authoring hits are found
// without a rendering scene graph.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin. Cylinders run along Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in radians, intrinsic X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
