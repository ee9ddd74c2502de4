// Package tessellate turns catalog components into triangle meshes
// using a geometry kernel. One mesh is produced per component.
package tessellate

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/geom"
	"github.com/chazu/trackset/pkg/kernel"
)

// DefaultDimensions is the size of a component whose dimensions are
// unknown. Its face centers are the snapping targets used when
// authoring points.
var DefaultDimensions = geom.Vec3{1, 0.5, 0.3}

// cylinderSegments is passed to kernels that facet cylinders.
const cylinderSegments = 32

// Shape is the solid family a component type is drawn with.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeCylinder
	ShapeProfile
	ShapeConnector
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeProfile:
		return "profile"
	case ShapeConnector:
		return "connector"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ShapeOf picks the solid family from a component's free-form type.
func ShapeOf(componentType string) Shape {
	t := strings.ToLower(componentType)
	switch {
	case strings.Contains(t, "profile"):
		return ShapeProfile
	case strings.Contains(t, "pipe"), strings.Contains(t, "pendant"), strings.Contains(t, "fixture"):
		return ShapeCylinder
	case strings.Contains(t, "connector"):
		return ShapeConnector
	default:
		return ShapeBox
	}
}

// Dimensions returns the scaled size of c, falling back to
// DefaultDimensions when the size is unknown.
func Dimensions(c catalog.Component) geom.Vec3 {
	size := c.Dimensions
	if size == geom.Zero {
		size = DefaultDimensions
	}
	scale := c.Scale
	for i := range size {
		s := scale[i]
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			s = 1
		}
		size[i] = math.Abs(size[i] * s)
	}
	return size
}

// LocalSolid builds c's solid in its own coordinates, centered on the
// origin with the long axis of rails and pipes along Y.
func LocalSolid(k kernel.Kernel, c catalog.Component) (kernel.Solid, error) {
	d := Dimensions(c)
	if !d.IsFinite() || d[0] == 0 || d[1] == 0 || d[2] == 0 {
		return nil, fmt.Errorf("tessellate: component %s has degenerate size %v", c.ID, d)
	}
	thin := math.Min(d[0], d[2])

	switch ShapeOf(c.Type) {
	case ShapeCylinder:
		return alongY(k, k.Cylinder(d[1], thin/2, cylinderSegments)), nil

	case ShapeProfile:
		// Open channel along the rail, cut into the +Z face.
		body := k.Box(d[0], d[1], d[2])
		groove := k.Translate(k.Box(d[0]*0.4, d[1]*1.1, d[2]*0.5), 0, 0, d[2]*0.3)
		return k.Difference(body, groove), nil

	case ShapeConnector:
		hub := k.Box(d[0], d[1], d[2])
		boss := alongY(k, k.Cylinder(d[1]*1.4, thin/4, cylinderSegments))
		return k.Union(hub, boss), nil

	default:
		return k.Box(d[0], d[1], d[2]), nil
	}
}

// alongY turns a Z-axis kernel cylinder onto the Y axis.
func alongY(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	return k.Rotate(s, math.Pi/2, 0, 0)
}

// LocalMesh returns c's mesh in its own coordinates. This is the mesh
// authoring hits are cast against.
func LocalMesh(k kernel.Kernel, c catalog.Component) (*kernel.Mesh, error) {
	solid, err := LocalSolid(k, c)
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for component %s: %w", c.ID, err)
	}
	mesh.ComponentID = c.ID
	return mesh, nil
}

// Tessellate produces one world-space mesh per component: size and
// scale first, then rotation, then translation. Components are never
// mutated.
func Tessellate(components []catalog.Component, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(components))
	for _, c := range components {
		solid, err := LocalSolid(k, c)
		if err != nil {
			return nil, err
		}

		// Apply rotation first, then translation.
		rot := c.Rotation.Sanitized()
		if rot != geom.Zero {
			solid = k.Rotate(solid, rot[0], rot[1], rot[2])
		}
		pos := c.Position.Sanitized()
		if pos != geom.Zero {
			solid = k.Translate(solid, pos[0], pos[1], pos[2])
		}

		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for component %s: %w", c.ID, err)
		}
		mesh.ComponentID = c.ID
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
