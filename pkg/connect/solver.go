package connect

import (
	"math"
	"strings"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/geom"
)

// Room is the axis-aligned envelope used by the rail boundary check.
// It is centered on the origin in X and Z and spans 0..Height in Y.
type Room struct {
	Width  float64 `json:"width"`  // X extent
	Length float64 `json:"length"` // Z extent
	Height float64 `json:"height"` // Y extent
}

// DefaultRoom is assumed when no envelope is configured.
var DefaultRoom = Room{Width: 8, Length: 6, Height: 3}

// containsFootprint reports whether a segment of the given length,
// centered at (x, z), stays inside the room along both X and Z.
func (r Room) containsFootprint(x, z, length float64) bool {
	half := length / 2
	return math.Abs(x)+half <= r.Width/2 && math.Abs(z)+half <= r.Length/2
}

const (
	// DefaultComponentLength is the rail length assumed by the boundary
	// check when the candidate's real size is not used.
	DefaultComponentLength = 0.3

	// ceilingHeight is the anchor height above which a connector counts
	// as ceiling mounted.
	ceilingHeight = 2.0

	// ceilingRise is the height of an attached rail's origin above the
	// ceiling connector's origin.
	ceilingRise = 0.1
)

// Orientation constants for rail-like components.
var (
	Horizontal = geom.Vec3{math.Pi / 2, 0, 0}
	Vertical   = geom.Vec3{0, 0, 0}
)

// DefaultPose is returned when a solve request cannot be satisfied. It
// sits clearly above the floor at the room origin.
func DefaultPose() geom.Pose {
	return geom.Pose{Position: geom.Vec3{0, 2, 0}, Rotation: geom.Vec3{0, 0, 0}}
}

// Option configures a Solver.
type Option func(*Solver)

// WithRoom sets the boundary-check envelope.
func WithRoom(r Room) Option {
	return func(s *Solver) { s.room = r }
}

// WithComponentLength sets the rail length assumed by the boundary check.
func WithComponentLength(l float64) Option {
	return func(s *Solver) { s.length = l }
}

// WithMeasuredLength makes the boundary check use the candidate's own
// scaled dimensions when they are known, falling back to the assumed
// length otherwise.
func WithMeasuredLength() Option {
	return func(s *Solver) { s.measured = true }
}

// WithTracer installs a hook that receives one Trace per Solve call.
func WithTracer(t Tracer) Option {
	return func(s *Solver) { s.tracer = t }
}

// Solver computes attachment poses. The zero value is not usable; call
// NewSolver.
type Solver struct {
	room     Room
	length   float64
	measured bool
	tracer   Tracer
}

// NewSolver creates a Solver with the default room and rail length,
// then applies opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{room: DefaultRoom, length: DefaultComponentLength}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Room returns the configured envelope.
func (s *Solver) Room() Room { return s.room }

var defaultSolver = NewSolver()

// Solve computes a pose with the default configuration.
func Solve(anchor *catalog.Component, anchorPoint *catalog.ConnectionPoint, candidate *catalog.Component, candidatePoint *catalog.ConnectionPoint) geom.Pose {
	return defaultSolver.Solve(anchor, anchorPoint, candidate, candidatePoint)
}

// Solve returns the pose at which candidate must be placed so that
// candidatePoint coincides with anchorPoint in world space.
//
// Compatibility and capacity are the caller's responsibility. Missing
// inputs yield DefaultPose. Rails (track, profile, pipe) are turned
// horizontal, or vertical when a horizontal rail would leave the room;
// rails hung from a ceiling connector stay horizontal with their origin
// held 0.1 above the connector's origin. Other components keep their own rotation. When the
// ceiling rule moves the rail, the points no longer coincide in Y.
func (s *Solver) Solve(anchor *catalog.Component, anchorPoint *catalog.ConnectionPoint, candidate *catalog.Component, candidatePoint *catalog.ConnectionPoint) geom.Pose {
	if anchor == nil || anchorPoint == nil || candidate == nil || candidatePoint == nil {
		pose := DefaultPose()
		s.trace(Trace{Defaulted: true, Pose: pose})
		return pose
	}

	tr := Trace{
		Anchor:         anchor.ID,
		AnchorPoint:    anchorPoint.ID,
		Candidate:      candidate.ID,
		CandidatePoint: candidatePoint.ID,
		AnchorWorld:    geom.WorldPointFromLocal(anchor.Placement(), anchorPoint.Position),
		Rail:           isRail(candidate.Type),
		Ceiling:        ceilingMounted(anchor, candidate),
	}

	rotation := candidate.Rotation.Sanitized()
	if tr.Rail {
		rotation = Horizontal
	}
	position := s.place(tr.AnchorWorld, candidate, candidatePoint, rotation, &tr)

	if tr.Rail && !tr.Ceiling && !s.room.containsFootprint(position[0], position[2], s.railLength(candidate)) {
		tr.BoundaryFallback = true
		rotation = Vertical
		position = s.place(tr.AnchorWorld, candidate, candidatePoint, rotation, &tr)
	}
	if tr.Ceiling {
		position[1] = geom.Round(anchor.Position.Sanitized()[1] + ceilingRise)
	}

	tr.Pose = geom.Pose{Position: position, Rotation: rotation.Round()}
	s.trace(tr)
	return tr.Pose
}

// place returns the component origin that puts point on target when the
// component has the given rotation and its own scale.
func (s *Solver) place(target geom.Vec3, c *catalog.Component, point *catalog.ConnectionPoint, rotation geom.Vec3, tr *Trace) geom.Vec3 {
	offset := geom.WorldVectorFromLocal(geom.Placement{Rotation: rotation, Scale: c.Scale}, point.Position)
	tr.Offset = offset
	return target.Sub(offset).Round()
}

// railLength is the extent used by the boundary check.
func (s *Solver) railLength(c *catalog.Component) float64 {
	if !s.measured || c.Dimensions == geom.Zero {
		return s.length
	}
	scale := c.Scale
	if scale == geom.Zero {
		scale = geom.One
	}
	longest := 0.0
	for _, d := range c.Dimensions.Mul(scale) {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if a := math.Abs(d); a > longest {
			longest = a
		}
	}
	if longest == 0 {
		return s.length
	}
	return longest
}

func (s *Solver) trace(t Trace) {
	if s.tracer != nil {
		s.tracer.TraceSolve(t)
	}
}

func typeHas(componentType string, words ...string) bool {
	t := strings.ToLower(componentType)
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// isRail reports whether a component type gets the rail orientation rules.
func isRail(componentType string) bool {
	return typeHas(componentType, "track", "profile", "pipe")
}

// ceilingMounted reports whether a rail is being hung from a connector
// that sits above ceiling height.
func ceilingMounted(anchor, candidate *catalog.Component) bool {
	return typeHas(anchor.Type, "connector") &&
		anchor.Position[1] > ceilingHeight &&
		typeHas(candidate.Type, "track", "profile")
}
