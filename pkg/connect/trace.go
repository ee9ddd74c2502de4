package connect

import (
	"log"

	"github.com/chazu/trackset/pkg/geom"
)

// Trace records how one Solve call arrived at its pose.
type Trace struct {
	Anchor         string
	AnchorPoint    string
	Candidate      string
	CandidatePoint string

	AnchorWorld geom.Vec3 // anchor point in world space
	Offset      geom.Vec3 // candidate point after rotation and scale

	Rail             bool // rail orientation rules applied
	Ceiling          bool // ceiling-mount height override applied
	BoundaryFallback bool // horizontal rail left the room; vertical used
	Defaulted        bool // inputs missing; DefaultPose returned

	Pose geom.Pose
}

// Tracer receives solver traces. Implementations must not retain or
// modify solver inputs.
type Tracer interface {
	TraceSolve(Trace)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(Trace)

// TraceSolve calls f(t).
func (f TracerFunc) TraceSolve(t Trace) { f(t) }

// LogTracer writes one line per solve to l.
func LogTracer(l *log.Logger) Tracer {
	return TracerFunc(func(t Trace) {
		if t.Defaulted {
			l.Printf("solve: missing input, default pose %v", t.Pose.Position)
			return
		}
		l.Printf("solve: %s.%s -> %s.%s anchor=%v offset=%v rail=%t ceiling=%t fallback=%t pos=%v rot=%v",
			t.Candidate, t.CandidatePoint, t.Anchor, t.AnchorPoint,
			t.AnchorWorld, t.Offset, t.Rail, t.Ceiling, t.BoundaryFallback,
			t.Pose.Position, t.Pose.Rotation)
	})
}
