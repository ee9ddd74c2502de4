package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/trackset/pkg/geom"
)

// PointType is the kind of a connection point.
type PointType string

const (
	PointPower      PointType = "power"
	PointMechanical PointType = "mechanical"
	PointData       PointType = "data"
	PointTrack      PointType = "track"
	PointMounting   PointType = "mounting"
	PointAccessory  PointType = "accessory"
)

// PointTypes lists every known point type in declaration order.
var PointTypes = []PointType{
	PointPower, PointMechanical, PointData, PointTrack, PointMounting, PointAccessory,
}

// Valid reports whether t is one of the known point types.
func (t PointType) Valid() bool {
	for _, known := range PointTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Unlimited is the MaxConnections value meaning no limit.
const Unlimited = -1

// Defaults applied when a decoded point omits the field.
const (
	DefaultPriority       = 1
	DefaultMaxConnections = 1
)

// FaceReference identifies the mesh triangle a point was placed on.
// It is only used to recompute the exact face centroid on demand.
type FaceReference struct {
	FaceIndex int    `json:"faceIndex"`
	Vertices  [3]int `json:"vertices"`
}

// ConnectionPoint is a named, typed, component-local attachment site.
type ConnectionPoint struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	Type                 PointType      `json:"type"`
	Subtype              string         `json:"subtype,omitempty"`
	Position             geom.Vec3      `json:"position"`
	Rotation             geom.Vec3      `json:"rotation"`
	MaxConnections       int            `json:"maxConnections"`
	CompatibleTypes      []PointType    `json:"compatibleTypes,omitempty"`
	CompatibleComponents []string       `json:"compatibleComponents,omitempty"`
	IsRequired           bool           `json:"isRequired"`
	Priority             int            `json:"priority"`
	FaceReference        *FaceReference `json:"faceReference,omitempty"`
}

// UnmarshalJSON decodes a point, filling Priority and MaxConnections
// with their defaults when the fields are absent.
func (p *ConnectionPoint) UnmarshalJSON(data []byte) error {
	type plain ConnectionPoint
	aux := plain{
		Priority:       DefaultPriority,
		MaxConnections: DefaultMaxConnections,
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ConnectionPoint(aux)
	return nil
}

// AtCapacity reports whether used connections exhaust MaxConnections.
func (p ConnectionPoint) AtCapacity(used int) bool {
	if p.MaxConnections == Unlimited {
		return false
	}
	return used >= p.MaxConnections
}

// Clone returns a deep copy.
func (p ConnectionPoint) Clone() ConnectionPoint {
	out := p
	if p.CompatibleTypes != nil {
		out.CompatibleTypes = append([]PointType(nil), p.CompatibleTypes...)
	}
	if p.CompatibleComponents != nil {
		out.CompatibleComponents = append([]string(nil), p.CompatibleComponents...)
	}
	if p.FaceReference != nil {
		ref := *p.FaceReference
		out.FaceReference = &ref
	}
	return out
}

func (p ConnectionPoint) String() string {
	return fmt.Sprintf("%s(%s %s @ %v)", p.ID, p.Name, p.Type, p.Position)
}

// Component is a catalog item placed in the scene. The engine treats it
// as read-only input.
type Component struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type"`
	Position geom.Vec3 `json:"position"`
	Rotation geom.Vec3 `json:"rotation"`
	Scale    geom.Vec3 `json:"scale"`
	// Dimensions is the unscaled bounding size; zero means unknown.
	Dimensions geom.Vec3         `json:"dimensions,omitempty"`
	Points     []ConnectionPoint `json:"points"`
}

// UnmarshalJSON decodes a component, defaulting an absent scale to
// 1,1,1. Point entries that are not JSON objects are skipped rather
// than failing the whole record; id-less entries are kept so the
// collection validator can report and drop them.
func (c *Component) UnmarshalJSON(data []byte) error {
	type plain Component
	aux := struct {
		*plain
		Points json.RawMessage `json:"points"`
	}{plain: &plain{Scale: geom.One}}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	points, _, err := decodeEntries(aux.Points)
	if err != nil {
		return fmt.Errorf("component %q: points: %w", aux.ID, err)
	}
	*c = Component(*aux.plain)
	c.Points = points
	return nil
}

// Placement returns the component's transform.
func (c Component) Placement() geom.Placement {
	return geom.Placement{Position: c.Position, Rotation: c.Rotation, Scale: c.Scale}
}

// WithPose returns a copy of c moved to pose.
func (c Component) WithPose(pose geom.Pose) Component {
	out := c.Clone()
	out.Position = pose.Position
	out.Rotation = pose.Rotation
	return out
}

// Point returns the point with the given id.
func (c Component) Point(id string) (ConnectionPoint, bool) {
	for _, p := range c.Points {
		if p.ID == id {
			return p, true
		}
	}
	return ConnectionPoint{}, false
}

// Clone returns a deep copy.
func (c Component) Clone() Component {
	out := c
	if c.Points != nil {
		out.Points = make([]ConnectionPoint, len(c.Points))
		for i, p := range c.Points {
			out.Points[i] = p.Clone()
		}
	}
	return out
}
