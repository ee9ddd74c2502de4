package placement

import (
	"errors"
	"fmt"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/geom"
	"github.com/google/uuid"
)

// State is the authoring mode of a Session.
type State int

const (
	Idle State = iota
	Placing
	Editing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Placing:
		return "placing"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when a command is not allowed
	// in the current state.
	ErrInvalidTransition = errors.New("placement: invalid transition")

	// ErrUnknownPoint is returned when selecting an id the component
	// does not have.
	ErrUnknownPoint = errors.New("placement: unknown point")

	// ErrNoSelection is returned by commands that act on the selected
	// point when nothing is selected.
	ErrNoSelection = errors.New("placement: no point selected")

	// ErrInvalidPoint is returned when a form edit would leave the
	// selected point without a unique id.
	ErrInvalidPoint = errors.New("placement: invalid point")

	// ErrNoFaceReference is returned when snapping a point that was not
	// placed on a mesh face.
	ErrNoFaceReference = errors.New("placement: point has no face reference")
)

// Intersector casts a world-space ray against the component's mesh.
type Intersector interface {
	Intersect(ray geom.Ray) (geom.Hit, bool)
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

// WithSnapThreshold sets the face snapping distance.
func WithSnapThreshold(d float64) Option {
	return func(s *Session) { s.threshold = d }
}

// WithDefaultType sets the type given to newly placed points.
func WithDefaultType(t catalog.PointType) Option {
	return func(s *Session) { s.pointType = t }
}

// Session is the authoring state for one component. It is driven by a
// single serialized stream of commands and is not safe for concurrent
// use.
type Session struct {
	component catalog.Component
	points    []catalog.ConnectionPoint
	state     State
	selected  string
	dirty     bool

	newID     func() string
	threshold float64
	pointType catalog.PointType
}

// NewSession starts an idle session on a copy of c. The copy's points
// are sanitized first, so a session never sees id-less entries.
func NewSession(c catalog.Component, opts ...Option) *Session {
	clean, dropped := catalog.SanitizeComponent(c)
	s := &Session{
		component: clean,
		points:    clean.Points,
		dirty:     dropped > 0,
		newID:     uuid.NewString,
		threshold: SnapThreshold,
		pointType: catalog.PointMechanical,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current mode.
func (s *Session) State() State { return s.state }

// Dirty reports whether points changed since the session started or
// was last saved.
func (s *Session) Dirty() bool { return s.dirty }

// Points returns a copy of the current points.
func (s *Session) Points() []catalog.ConnectionPoint {
	return catalog.Sanitize(s.points)
}

// Component returns a copy of the component carrying the current points.
func (s *Session) Component() catalog.Component {
	out := s.component.Clone()
	out.Points = s.Points()
	return out
}

// Selected returns the selected point, if any.
func (s *Session) Selected() (catalog.ConnectionPoint, bool) {
	i := s.indexOf(s.selected)
	if i < 0 {
		return catalog.ConnectionPoint{}, false
	}
	return s.points[i].Clone(), true
}

// BeginPlacement arms the session to create a point from the next hit.
func (s *Session) BeginPlacement() error {
	if s.state != Idle {
		return s.invalid("begin placement")
	}
	s.state = Placing
	s.selected = ""
	return nil
}

// CancelPlacement leaves placing mode without creating a point.
func (s *Session) CancelPlacement() error {
	if s.state != Placing {
		return s.invalid("cancel placement")
	}
	s.state = Idle
	return nil
}

// Select makes the point with the given id the editing target.
func (s *Session) Select(id string) error {
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPoint, id)
	}
	s.selected = id
	s.state = Editing
	return nil
}

// Deselect clears the selection and returns to idle.
func (s *Session) Deselect() error {
	if s.state == Placing {
		return s.invalid("deselect")
	}
	s.selected = ""
	s.state = Idle
	return nil
}

// Cast intersects ray with the component through in and handles the
// hit. It reports false when nothing was created, either because the
// ray missed or because the session is no longer placing.
func (s *Session) Cast(in Intersector, ray geom.Ray) (catalog.ConnectionPoint, bool) {
	if s.state != Placing {
		return catalog.ConnectionPoint{}, false
	}
	hit, ok := in.Intersect(ray)
	if !ok {
		return catalog.ConnectionPoint{}, false
	}
	return s.HandleHit(hit)
}

// HandleHit turns a world-space hit into a new point. Hits that arrive
// outside placing mode are discarded. On success the session returns
// to idle with the new point selected.
func (s *Session) HandleHit(hit geom.Hit) (catalog.ConnectionPoint, bool) {
	if s.state != Placing {
		return catalog.ConnectionPoint{}, false
	}
	local := geom.LocalPointFromWorld(s.component.Placement(), hit.Point)
	snap := SnapToFace(local, s.threshold)

	p := catalog.ConnectionPoint{
		ID:             s.uniqueID(),
		Name:           snap.Name,
		Description:    snap.Description,
		Type:           s.pointType,
		Position:       snap.Position,
		MaxConnections: catalog.DefaultMaxConnections,
		Priority:       catalog.DefaultPriority,
	}
	if hit.HasFace {
		p.FaceReference = &catalog.FaceReference{FaceIndex: hit.Face, Vertices: hit.Vertices}
	}

	s.points = append(s.points, p)
	s.selected = p.ID
	s.state = Idle
	s.dirty = true
	return p.Clone(), true
}

// MoveSelected applies a world-space drag delta to the selected point.
func (s *Session) MoveSelected(delta geom.Vec3) error {
	if s.state != Editing {
		return s.invalid("move")
	}
	i := s.indexOf(s.selected)
	if i < 0 {
		return ErrNoSelection
	}
	local := geom.LocalVectorFromWorld(s.component.Placement(), delta)
	s.points[i].Position = s.points[i].Position.Add(local).Round()
	s.dirty = true
	return nil
}

// UpdateSelected applies a form edit to the selected point. The edit is
// rejected if it leaves the point without an id or collides with
// another point's id.
func (s *Session) UpdateSelected(edit func(*catalog.ConnectionPoint)) error {
	i := s.indexOf(s.selected)
	if i < 0 {
		return ErrNoSelection
	}
	p := s.points[i].Clone()
	edit(&p)
	if !catalog.Valid(p) {
		return fmt.Errorf("%w: empty id", ErrInvalidPoint)
	}
	if j := s.indexOf(p.ID); j >= 0 && j != i {
		return fmt.Errorf("%w: id %q already used", ErrInvalidPoint, p.ID)
	}
	s.points[i] = p
	s.selected = p.ID
	s.dirty = true
	return nil
}

// SnapSelectedToFace moves the selected point to the current centroid
// of the face it was placed on.
func (s *Session) SnapSelectedToFace(vs VertexSource) error {
	i := s.indexOf(s.selected)
	if i < 0 {
		return ErrNoSelection
	}
	ref := s.points[i].FaceReference
	if ref == nil {
		return fmt.Errorf("%w: %q", ErrNoFaceReference, s.selected)
	}
	c, ok := FaceCentroid(*ref, vs)
	if !ok {
		return fmt.Errorf("placement: face %d of %q references missing vertices", ref.FaceIndex, s.selected)
	}
	s.points[i].Position = c
	s.dirty = true
	return nil
}

// DeleteSelected removes the selected point and returns to idle.
func (s *Session) DeleteSelected() (catalog.ConnectionPoint, error) {
	if s.state != Editing {
		return catalog.ConnectionPoint{}, s.invalid("delete")
	}
	i := s.indexOf(s.selected)
	if i < 0 {
		return catalog.ConnectionPoint{}, ErrNoSelection
	}
	removed := s.points[i]
	s.points = append(s.points[:i:i], s.points[i+1:]...)
	s.selected = ""
	s.state = Idle
	s.dirty = true
	return removed, nil
}

// Save returns the sanitized point collection for the caller to
// persist, clears the dirty flag and leaves editing mode.
func (s *Session) Save() ([]catalog.ConnectionPoint, error) {
	if s.state == Placing {
		return nil, s.invalid("save")
	}
	s.points = catalog.Sanitize(s.points)
	s.state = Idle
	s.selected = ""
	s.dirty = false
	return s.Points(), nil
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, s.state)
}

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// uniqueID returns a fresh id, falling back to a uuid when a custom
// generator repeats itself.
func (s *Session) uniqueID() string {
	if id := s.newID(); id != "" && s.indexOf(id) < 0 {
		return id
	}
	return uuid.NewString()
}
