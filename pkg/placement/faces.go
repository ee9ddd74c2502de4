package placement

import (
	"fmt"
	"strings"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/geom"
)

// SnapThreshold is the default distance within which a hit snaps to a
// named face center.
const SnapThreshold = 0.1

// Face is a named snapping target in component-local space.
type Face struct {
	Name   string
	Center geom.Vec3
}

// Label returns the point name used for hits snapped to f.
func (f Face) Label() string {
	return strings.ToUpper(f.Name[:1]) + f.Name[1:] + " Connection"
}

// Faces are the face centers of a unit component (1 x 0.5 x 0.3,
// centered on its origin). Order matters only for exact ties.
var Faces = []Face{
	{Name: "right", Center: geom.Vec3{0.5, 0, 0}},
	{Name: "left", Center: geom.Vec3{-0.5, 0, 0}},
	{Name: "top", Center: geom.Vec3{0, 0.25, 0}},
	{Name: "bottom", Center: geom.Vec3{0, -0.25, 0}},
	{Name: "back", Center: geom.Vec3{0, 0, 0.15}},
	{Name: "front", Center: geom.Vec3{0, 0, -0.15}},
	{Name: "center", Center: geom.Vec3{0, 0, 0}},
}

// CustomLabel is the name and face of points that did not snap to any face.
const CustomLabel = "custom"

// Snap is the outcome of matching a local hit against Faces.
type Snap struct {
	Position    geom.Vec3
	Name        string
	Description string
	Face        string // face name, or CustomLabel
	Snapped     bool
}

// SnapToFace matches a local point to the nearest face center. Within
// threshold the point moves to that center exactly; otherwise the raw
// position is kept and the point is labelled custom.
func SnapToFace(local geom.Vec3, threshold float64) Snap {
	best, bestDist := -1, 0.0
	for i, f := range Faces {
		d := local.Dist(f.Center)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 && bestDist <= threshold {
		f := Faces[best]
		return Snap{
			Position:    f.Center,
			Name:        f.Label(),
			Description: fmt.Sprintf("Connection point on the %s face", f.Name),
			Face:        f.Name,
			Snapped:     true,
		}
	}
	return Snap{
		Position:    local.Round(),
		Name:        CustomLabel,
		Description: "Connection point off the face centers",
		Face:        CustomLabel,
	}
}

// VertexSource resolves vertex indices of a live mesh to local
// positions.
type VertexSource interface {
	Vertex(i int) (geom.Vec3, bool)
}

// FaceCentroid returns the mean of the three vertices ref points at.
// It reports false when any vertex is missing from vs.
func FaceCentroid(ref catalog.FaceReference, vs VertexSource) (geom.Vec3, bool) {
	var sum geom.Vec3
	for _, idx := range ref.Vertices {
		v, ok := vs.Vertex(idx)
		if !ok {
			return geom.Vec3{}, false
		}
		sum = sum.Add(v)
	}
	return sum.Scale(1.0 / 3.0).Round(), true
}

// RecomputeFaceCenters returns a copy of points with every face-bound
// point moved to the current centroid of its face. Points without a
// face reference, or whose vertices no longer exist, are left alone.
// The second result counts the points that moved.
func RecomputeFaceCenters(points []catalog.ConnectionPoint, vs VertexSource) ([]catalog.ConnectionPoint, int) {
	out := catalog.Sanitize(points)
	moved := 0
	for i := range out {
		ref := out[i].FaceReference
		if ref == nil {
			continue
		}
		c, ok := FaceCentroid(*ref, vs)
		if !ok || c == out[i].Position {
			continue
		}
		out[i].Position = c
		moved++
	}
	return out, moved
}
